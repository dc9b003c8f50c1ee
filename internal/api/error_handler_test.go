package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tradedesk/dashboard/internal/core/domain"
)

func TestHTTPErrorHandler_Mapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"validation", domain.NewValidationError("email", "must be a valid email"), http.StatusUnprocessableEntity, "email: must be a valid email"},
		{"unauthenticated", domain.ErrUnauthenticated, http.StatusUnauthorized, "authentication required"},
		{"expired", fmt.Errorf("get user: %w", domain.ErrSessionExpired), http.StatusUnauthorized, "authentication required"},
		{"forbidden", fmt.Errorf("list all activities: %w", domain.ErrForbidden), http.StatusForbidden, "access forbidden"},
		{"credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
		{"not found", domain.ErrUserNotFound, http.StatusNotFound, "user not found"},
		{"exists", domain.ErrUserExists, http.StatusConflict, "user already exists"},
		{"store", &domain.StoreError{Op: "append activity", Err: errors.New("timeout")}, http.StatusInternalServerError, "store append activity: timeout"},
		{"rate limited", &domain.UpstreamError{Kind: domain.UpstreamRateLimited, Message: "API rate limit reached. Please try again later."}, http.StatusTooManyRequests, "API rate limit reached. Please try again later."},
		{"unknown symbol", &domain.UpstreamError{Kind: domain.UpstreamUnknownSymbol, Message: "Invalid ticker symbol"}, http.StatusNotFound, "Invalid ticker symbol"},
		{"upstream failure", &domain.UpstreamError{Kind: domain.UpstreamFailure, Message: "Failed to fetch stock data", Err: errors.New("eof")}, http.StatusBadGateway, "Failed to fetch stock data"},
		{"configuration", &domain.ConfigurationError{Key: "ALPHA_VANTAGE_API_KEY"}, http.StatusServiceUnavailable, "configuration: ALPHA_VANTAGE_API_KEY is not set"},
		{"echo", echo.NewHTTPError(http.StatusBadRequest, "invalid payload"), http.StatusBadRequest, "invalid payload"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "internal server error"},
	}

	h := NewHTTPErrorHandler(zerolog.Nop())
	for _, tc := range cases {
		e := echo.New()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/x", nil), rec)

		h(tc.err, c)

		if rec.Code != tc.code {
			t.Errorf("%s: expected %d, got %d", tc.name, tc.code, rec.Code)
		}
		want := fmt.Sprintf("{\"error\":%q}\n", tc.msg)
		if rec.Body.String() != want {
			t.Errorf("%s: expected body %s, got %s", tc.name, want, rec.Body.String())
		}
	}
}

func TestHTTPErrorHandler_Head(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodHead, "/api/x", nil), rec)

	NewHTTPErrorHandler(zerolog.Nop())(domain.ErrForbidden, c)

	if rec.Code != http.StatusForbidden || rec.Body.Len() != 0 {
		t.Fatalf("expected bare 403, got %d %q", rec.Code, rec.Body.String())
	}
}

package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tradedesk/dashboard/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler maps domain errors to status codes and renders
// {"error": "<message>"}. Unexpected errors are logged and hidden.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil {
			log.Debug().Err(he.Internal).Str("path", c.Path()).Msg("request rejected")
		}
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	var (
		ve *domain.ValidationError
		se *domain.StoreError
		ue *domain.UpstreamError
		ce *domain.ConfigurationError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity, ve.Error()
	case errors.Is(err, domain.ErrUnauthenticated), errors.Is(err, domain.ErrSessionExpired):
		return http.StatusUnauthorized, "authentication required"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "access forbidden"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, "user already exists"
	case errors.As(err, &se):
		log.Error().Err(err).Str("path", c.Path()).Msg("store failure")
		return http.StatusInternalServerError, se.Error()
	case errors.As(err, &ue):
		return upstreamStatus(ue.Kind), ue.Message
	case errors.As(err, &ce):
		log.Error().Err(err).Str("path", c.Path()).Msg("missing configuration")
		return http.StatusServiceUnavailable, ce.Error()
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}

func upstreamStatus(k domain.UpstreamKind) int {
	switch k {
	case domain.UpstreamRateLimited:
		return http.StatusTooManyRequests
	case domain.UpstreamUnknownSymbol:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

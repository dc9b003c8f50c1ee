package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tradedesk/dashboard/internal/core/domain"
)

// Session cookie names shared with the browser client.
const (
	AccessTokenCookie  = "sb-access-token"
	RefreshTokenCookie = "sb-refresh-token"
)

const refreshCookieTTL = 30 * 24 * time.Hour

// Cookies writes and clears the session cookie pair.
type Cookies struct {
	Secure bool
}

// Write stores s in the response cookies and makes it the credential pair
// seen by the rest of the request.
func (k Cookies) Write(c echo.Context, s *domain.Session) {
	accessTTL := time.Until(s.ExpiresAt)
	if s.ExpiresAt.IsZero() || accessTTL <= 0 {
		accessTTL = time.Hour
	}
	c.SetCookie(k.cookie(AccessTokenCookie, s.AccessToken, accessTTL))
	if s.RefreshToken != "" {
		c.SetCookie(k.cookie(RefreshTokenCookie, s.RefreshToken, refreshCookieTTL))
	}
	c.Set(ctxAccessToken, s.AccessToken)
	c.Set(ctxRefreshToken, s.RefreshToken)
}

// Clear expires both cookies.
func (k Cookies) Clear(c echo.Context) {
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		ck := k.cookie(name, "", 0)
		ck.MaxAge = -1
		ck.Expires = time.Unix(0, 0)
		c.SetCookie(ck)
	}
	c.Set(ctxAccessToken, "")
	c.Set(ctxRefreshToken, "")
}

func (k Cookies) cookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   k.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Credentials returns the credential pair of the request. Tokens refreshed
// earlier in the chain take precedence over the incoming cookies, and a
// bearer header takes precedence over the access cookie.
func Credentials(c echo.Context) (access, refresh string) {
	if v, ok := c.Get(ctxAccessToken).(string); ok {
		access = v
		refresh, _ = c.Get(ctxRefreshToken).(string)
		return access, refresh
	}

	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		scheme, token, found := strings.Cut(h, " ")
		if found && strings.EqualFold(scheme, "bearer") {
			access = strings.TrimSpace(token)
		}
	}
	if access == "" {
		if ck, err := c.Cookie(AccessTokenCookie); err == nil {
			access = ck.Value
		}
	}
	if ck, err := c.Cookie(RefreshTokenCookie); err == nil {
		refresh = ck.Value
	}
	return access, refresh
}

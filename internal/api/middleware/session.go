package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tradedesk/dashboard/internal/core/domain"
	"github.com/tradedesk/dashboard/internal/core/ports"
)

const (
	ctxUser         = "user"
	ctxAccessToken  = "access_token"
	ctxRefreshToken = "refresh_token"
)

// CurrentUser returns the user resolved for this request, or nil.
func CurrentUser(c echo.Context) *domain.User {
	u, _ := c.Get(ctxUser).(*domain.User)
	return u
}

// SetUser stores u as the user of this request.
func SetUser(c echo.Context, u *domain.User) {
	c.Set(ctxUser, u)
}

// ResolveUser resolves the request credentials, writes refreshed or cleared
// cookies and returns the user. Resolver failures count as no user.
func ResolveUser(c echo.Context, resolver ports.SessionResolver, cookies Cookies, log zerolog.Logger) *domain.User {
	access, refresh := Credentials(c)
	res, err := resolver.Resolve(c.Request().Context(), access, refresh)
	if err != nil {
		log.Warn().Err(err).Str("path", c.Request().URL.Path).Msg("session resolution failed")
		return nil
	}
	switch {
	case res.Refreshed != nil:
		cookies.Write(c, res.Refreshed)
	case res.Cleared:
		cookies.Clear(c)
	}
	return res.User
}

// Session resolves the user once and stores it in the echo context. It never
// rejects a request; RequireUser and RBAC do that.
func Session(resolver ports.SessionResolver, cookies Cookies, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if u := ResolveUser(c, resolver, cookies, log); u != nil {
				SetUser(c, u)
			}
			return next(c)
		}
	}
}

// RequireUser rejects requests without a resolved user.
func RequireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if CurrentUser(c) == nil {
			return domain.ErrUnauthenticated
		}
		return next(c)
	}
}

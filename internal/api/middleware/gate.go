package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tradedesk/dashboard/internal/api/metrics"
	"github.com/tradedesk/dashboard/internal/core/domain"
	"github.com/tradedesk/dashboard/internal/core/ports"
)

// Gate applies the route policy to page requests. Refreshed cookies are
// already on the response when it redirects.
func Gate(resolver ports.SessionResolver, cookies Cookies, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ns, ok := domain.NamespaceOf(c.Request().URL.Path)
			if !ok {
				return next(c)
			}

			user := ResolveUser(c, resolver, cookies, log)
			if user != nil {
				SetUser(c, user)
			}

			d := domain.Authorize(ns, user)
			if !d.Allow {
				metrics.GateDecisionsTotal.WithLabelValues(string(ns), "redirect").Inc()
				log.Debug().
					Str("path", c.Request().URL.Path).
					Str("namespace", string(ns)).
					Str("redirect", d.Redirect).
					Msg("gate redirect")
				return c.Redirect(http.StatusTemporaryRedirect, d.Redirect)
			}
			metrics.GateDecisionsTotal.WithLabelValues(string(ns), "allow").Inc()
			return next(c)
		}
	}
}

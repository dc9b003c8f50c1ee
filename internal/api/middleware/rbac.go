package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/tradedesk/dashboard/internal/core/domain"
)

// RBAC enforces role-based access control on the resolved user.
// No user is 401; a user with another role is 403.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := CurrentUser(c)
			if user == nil {
				return domain.ErrUnauthenticated
			}
			if _, ok := allowed[domain.ResolveRole(user)]; !ok {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}

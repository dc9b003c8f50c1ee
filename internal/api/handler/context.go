package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/tradedesk/dashboard/internal/api/middleware"
	"github.com/tradedesk/dashboard/internal/core/domain"
)

// currentUser returns the user resolved by the Session middleware. Routes
// behind RequireUser always have one; the check keeps handlers safe when
// mounted elsewhere.
func currentUser(c echo.Context) (*domain.User, error) {
	u := middleware.CurrentUser(c)
	if u == nil {
		return nil, domain.ErrUnauthenticated
	}
	return u, nil
}

func accessToken(c echo.Context) string {
	access, _ := middleware.Credentials(c)
	return access
}

package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/tradedesk/dashboard/internal/core/domain"
	"github.com/tradedesk/dashboard/internal/core/ports"
)

type AdminHandler struct {
	admin ports.AdminService
}

func NewAdminHandler(admin ports.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

type adjustBalanceRequest struct {
	Balance *float64 `json:"balance" validate:"required,gte=0"`
}

// ListUsers returns a page of accounts from the identity provider.
//
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Param        page      query     int  false  "Page, from 1"
// @Param        per_page  query     int  false  "Page size"
// @Success      200       {object}  listResponse[domain.User]
// @Failure      403       {object}  errorBody
// @Router       /api/admin/users [get]
func (h *AdminHandler) ListUsers(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	page, _ := strconv.Atoi(c.QueryParam("page"))
	perPage, _ := strconv.Atoi(c.QueryParam("per_page"))

	users, err := h.admin.ListUsers(c.Request().Context(), domain.ResolveRole(user), page, perPage)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(users))
}

// AdjustBalance sets a user's balance and records it on the admin's trail.
//
// @Summary      Adjust balance
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id    path      string                true  "User ID"
// @Param        body  body      adjustBalanceRequest  true  "New balance"
// @Success      200   {object}  domain.User
// @Failure      403   {object}  errorBody
// @Failure      404   {object}  errorBody
// @Failure      422   {object}  errorBody
// @Router       /api/admin/users/{id}/balance [post]
func (h *AdminHandler) AdjustBalance(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req adjustBalanceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	target, err := h.admin.AdjustBalance(c.Request().Context(), user, c.Param("id"), *req.Balance)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, target)
}

package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tradedesk/dashboard/internal/core/ports"
)

type ProfileHandler struct {
	profiles ports.ProfileService
}

func NewProfileHandler(profiles ports.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

type updateProfileRequest struct {
	FullName  *string `json:"full_name"  validate:"omitempty,max=120"`
	Phone     *string `json:"phone"      validate:"omitempty,max=32"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url"`
}

type updatePasswordRequest struct {
	NewPassword     string `json:"new_password"     validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

// Get returns the signed-in user's profile.
//
// @Summary      Get profile
// @Tags         profile
// @Produce      json
// @Success      200  {object}  domain.Profile
// @Failure      401  {object}  errorBody
// @Router       /api/profile [get]
func (h *ProfileHandler) Get(c echo.Context) error {
	p, err := h.profiles.Get(c.Request().Context(), accessToken(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Update changes full name, phone or avatar. The role cannot be changed here.
//
// @Summary      Update profile
// @Tags         profile
// @Accept       json
// @Produce      json
// @Param        body  body      updateProfileRequest  true  "Fields to change"
// @Success      200   {object}  domain.Profile
// @Failure      422   {object}  errorBody
// @Router       /api/profile [patch]
func (h *ProfileHandler) Update(c echo.Context) error {
	var req updateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	p, err := h.profiles.UpdateMetadata(c.Request().Context(), accessToken(c), ports.ProfileUpdate{
		FullName:  req.FullName,
		Phone:     req.Phone,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// UpdatePassword sets a new password for the signed-in user.
//
// @Summary      Change password
// @Tags         profile
// @Accept       json
// @Param        body  body  updatePasswordRequest  true  "New password"
// @Success      204
// @Failure      422  {object}  errorBody
// @Router       /api/profile/password [put]
func (h *ProfileHandler) UpdatePassword(c echo.Context) error {
	var req updatePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.profiles.UpdatePassword(c.Request().Context(), accessToken(c), req.NewPassword, req.ConfirmPassword); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

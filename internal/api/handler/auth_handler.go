package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tradedesk/dashboard/internal/api/middleware"
	"github.com/tradedesk/dashboard/internal/core/domain"
	"github.com/tradedesk/dashboard/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	cookies     middleware.Cookies
	log         zerolog.Logger
}

func NewAuthHandler(authService ports.AuthService, cookies middleware.Cookies, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, cookies: cookies, log: log}
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signUpRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	RedirectTo      string `json:"redirect_to"`
}

type passwordResetRequest struct {
	Email      string `json:"email"`
	RedirectTo string `json:"redirect_to"`
}

type authResponse struct {
	User     *domain.User `json:"user,omitempty"`
	Role     domain.Role  `json:"role,omitempty"`
	Redirect string       `json:"redirect,omitempty"`
	// Confirm is set when the account must be confirmed by email first.
	Confirm bool `json:"confirmation_required,omitempty"`
}

// SignIn authenticates with email and password and sets the session cookies.
//
// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signInRequest  true  "Credentials"
// @Success      200   {object}  authResponse
// @Failure      401   {object}  errorBody
// @Failure      422   {object}  errorBody
// @Router       /api/auth/sign-in [post]
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req signInRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload").SetInternal(err)
	}

	sess, err := h.authService.SignIn(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	h.cookies.Write(c, sess)

	role := domain.ResolveRole(sess.User)
	return c.JSON(http.StatusOK, authResponse{
		User:     sess.User,
		Role:     role,
		Redirect: domain.DefaultRouteFor(role),
	})
}

// SignUp registers a new account with the user role.
//
// @Summary      Sign up
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signUpRequest  true  "Registration"
// @Success      201   {object}  authResponse
// @Failure      409   {object}  errorBody
// @Failure      422   {object}  errorBody
// @Router       /api/auth/sign-up [post]
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req signUpRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload").SetInternal(err)
	}

	user, sess, err := h.authService.SignUp(c.Request().Context(), ports.SignUpRequest{
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		RedirectTo:      req.RedirectTo,
	})
	if err != nil {
		return err
	}

	resp := authResponse{User: user, Role: domain.ResolveRole(user), Confirm: sess == nil}
	if sess != nil {
		h.cookies.Write(c, sess)
		resp.Redirect = domain.DefaultRouteFor(resp.Role)
	}
	return c.JSON(http.StatusCreated, resp)
}

// SignOut revokes the session and clears the cookies even when revocation fails.
//
// @Summary      Sign out
// @Tags         auth
// @Success      204
// @Router       /api/auth/sign-out [post]
func (h *AuthHandler) SignOut(c echo.Context) error {
	if err := h.authService.SignOut(c.Request().Context(), accessToken(c)); err != nil {
		h.log.Warn().Err(err).Msg("sign-out at identity provider failed")
	}
	h.cookies.Clear(c)
	return c.NoContent(http.StatusNoContent)
}

// PasswordReset sends a reset link when the account exists.
//
// @Summary      Request a password reset
// @Tags         auth
// @Accept       json
// @Param        body  body  passwordResetRequest  true  "Email"
// @Success      202
// @Failure      422  {object}  errorBody
// @Router       /api/auth/password-reset [post]
func (h *AuthHandler) PasswordReset(c echo.Context) error {
	var req passwordResetRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload").SetInternal(err)
	}
	if err := h.authService.RequestPasswordReset(c.Request().Context(), req.Email, req.RedirectTo); err != nil {
		return err
	}
	return c.NoContent(http.StatusAccepted)
}

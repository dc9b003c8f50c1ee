package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tradedesk/dashboard/internal/api/middleware"
	"github.com/tradedesk/dashboard/internal/core/domain"
	"github.com/tradedesk/dashboard/internal/core/ports"
)

// usersPerSummaryPage is the page size used when counting accounts for the
// admin summary.
const usersPerSummaryPage = 200

// ShellHandler serves the page shells. Each shell resolves the session again
// and applies domain.Authorize itself, so a page mounted without the gate is
// still protected.
type ShellHandler struct {
	resolver   ports.SessionResolver
	cookies    middleware.Cookies
	activities ports.ActivityService
	admin      ports.AdminService
	log        zerolog.Logger
	now        func() time.Time
}

func NewShellHandler(
	resolver ports.SessionResolver,
	cookies middleware.Cookies,
	activities ports.ActivityService,
	admin ports.AdminService,
	log zerolog.Logger,
) *ShellHandler {
	return &ShellHandler{
		resolver:   resolver,
		cookies:    cookies,
		activities: activities,
		admin:      admin,
		log:        log,
		now:        time.Now,
	}
}

type shellView struct {
	User       *domain.User     `json:"user,omitempty"`
	Role       domain.Role      `json:"role,omitempty"`
	Title      string           `json:"title"`
	Navigation []domain.NavItem `json:"navigation,omitempty"`
	Page       any              `json:"page,omitempty"`
}

type chartDefaults struct {
	Ticker    string `json:"ticker"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type dashboardPage struct {
	RecentActivity []domain.Activity `json:"recent_activity"`
	Chart          chartDefaults     `json:"chart"`
}

type adminSummary struct {
	UserCount      int                         `json:"user_count"`
	ActivityCounts map[domain.ActivityType]int `json:"activity_counts"`
	ActivityWindow int                         `json:"activity_window"`
}

type authForm struct {
	Fields  []string          `json:"fields"`
	Actions map[string]string `json:"actions"`
}

// authorize resolves the caller and applies the policy of the page namespace.
// A nil user with a nil error means the response was already written.
func (h *ShellHandler) authorize(c echo.Context) (*domain.User, error) {
	user := middleware.ResolveUser(c, h.resolver, h.cookies, h.log)
	ns, ok := domain.NamespaceOf(c.Request().URL.Path)
	if !ok {
		return user, nil
	}
	if d := domain.Authorize(ns, user); !d.Allow {
		return nil, c.Redirect(http.StatusTemporaryRedirect, d.Redirect)
	}
	return user, nil
}

func (h *ShellHandler) render(c echo.Context, user *domain.User, page any) error {
	role := domain.ResolveRole(user)
	return c.JSON(http.StatusOK, shellView{
		User:       user,
		Role:       role,
		Title:      domain.PageTitle(c.Request().URL.Path),
		Navigation: domain.NavigationFor(role),
		Page:       page,
	})
}

// Home redirects to the landing page of the caller.
//
// @Summary      Landing redirect
// @Tags         pages
// @Success      307
// @Router       / [get]
func (h *ShellHandler) Home(c echo.Context) error {
	user := middleware.ResolveUser(c, h.resolver, h.cookies, h.log)
	return c.Redirect(http.StatusTemporaryRedirect, domain.HomeRedirect(user))
}

// Auth returns the login form descriptor.
//
// @Summary      Login page
// @Tags         pages
// @Produce      json
// @Success      200  {object}  shellView
// @Success      307
// @Router       /auth [get]
func (h *ShellHandler) Auth(c echo.Context) error {
	if _, err := h.authorize(c); err != nil || c.Response().Committed {
		return err
	}
	return c.JSON(http.StatusOK, shellView{
		Title: "Sign In",
		Page: authForm{
			Fields: []string{"email", "password"},
			Actions: map[string]string{
				"sign_in":        "/api/auth/sign-in",
				"sign_up":        "/api/auth/sign-up",
				"password_reset": "/api/auth/password-reset",
			},
		},
	})
}

// Dashboard returns the user dashboard with recent activity and chart defaults.
//
// @Summary      User dashboard
// @Tags         pages
// @Produce      json
// @Success      200  {object}  shellView
// @Success      307
// @Router       /dashboard [get]
func (h *ShellHandler) Dashboard(c echo.Context) error {
	user, err := h.authorize(c)
	if err != nil || c.Response().Committed {
		return err
	}

	recent, err := h.activities.Recent(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	if recent == nil {
		recent = []domain.Activity{}
	}

	end := h.now().UTC()
	start := end.Add(-domain.DefaultChartWindow)
	return h.render(c, user, dashboardPage{
		RecentActivity: recent,
		Chart: chartDefaults{
			Ticker:    domain.DefaultTicker,
			StartDate: start.Format(domain.DateLayout),
			EndDate:   end.Format(domain.DateLayout),
		},
	})
}

// Profile returns the profile settings page.
//
// @Summary      Profile page
// @Tags         pages
// @Produce      json
// @Success      200  {object}  shellView
// @Router       /dashboard/profile [get]
func (h *ShellHandler) Profile(c echo.Context) error {
	user, err := h.authorize(c)
	if err != nil || c.Response().Committed {
		return err
	}
	return h.render(c, user, domain.ProfileFromUser(user))
}

// AdminHome returns activity counts by type and the number of accounts.
//
// @Summary      Admin dashboard
// @Tags         pages
// @Produce      json
// @Success      200  {object}  shellView
// @Router       /admin [get]
func (h *ShellHandler) AdminHome(c echo.Context) error {
	user, err := h.authorize(c)
	if err != nil || c.Response().Committed {
		return err
	}
	ctx := c.Request().Context()
	role := domain.ResolveRole(user)

	items, err := h.activities.ListAll(ctx, domain.DefaultAdminActivityLimit, role)
	if err != nil {
		return err
	}
	summary := adminSummary{
		ActivityCounts: make(map[domain.ActivityType]int, len(domain.ActivityTypes)),
		ActivityWindow: domain.DefaultAdminActivityLimit,
	}
	for _, t := range domain.ActivityTypes {
		summary.ActivityCounts[t] = 0
	}
	for _, a := range items {
		summary.ActivityCounts[a.Type]++
	}

	for page := 1; ; page++ {
		users, err := h.admin.ListUsers(ctx, role, page, usersPerSummaryPage)
		if err != nil {
			return err
		}
		summary.UserCount += len(users)
		if len(users) < usersPerSummaryPage {
			break
		}
	}
	return h.render(c, user, summary)
}

// AdminUsers returns the first page of accounts.
//
// @Summary      Users page
// @Tags         pages
// @Produce      json
// @Success      200  {object}  shellView
// @Router       /admin/users [get]
func (h *ShellHandler) AdminUsers(c echo.Context) error {
	user, err := h.authorize(c)
	if err != nil || c.Response().Committed {
		return err
	}
	users, err := h.admin.ListUsers(c.Request().Context(), domain.ResolveRole(user), 1, 0)
	if err != nil {
		return err
	}
	if users == nil {
		users = []domain.User{}
	}
	return h.render(c, user, users)
}

// AdminActivity returns the latest activities of every user with owner names.
//
// @Summary      Activity log page
// @Tags         pages
// @Produce      json
// @Success      200  {object}  shellView
// @Router       /admin/activity [get]
func (h *ShellHandler) AdminActivity(c echo.Context) error {
	user, err := h.authorize(c)
	if err != nil || c.Response().Committed {
		return err
	}
	items, err := h.activities.ListAll(c.Request().Context(), domain.DefaultAdminActivityLimit, domain.ResolveRole(user))
	if err != nil {
		return err
	}
	if items == nil {
		items = []domain.Activity{}
	}
	return h.render(c, user, items)
}

// AdminSettings has no page content yet.
//
// @Summary      Settings page
// @Tags         pages
// @Produce      json
// @Success      200  {object}  shellView
// @Router       /admin/settings [get]
func (h *ShellHandler) AdminSettings(c echo.Context) error {
	user, err := h.authorize(c)
	if err != nil || c.Response().Committed {
		return err
	}
	return h.render(c, user, nil)
}

package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/tradedesk/dashboard/docs"
	"github.com/tradedesk/dashboard/internal/api/handler"
	"github.com/tradedesk/dashboard/internal/api/middleware"
	"github.com/tradedesk/dashboard/internal/core/domain"
	"github.com/tradedesk/dashboard/internal/core/ports"
)

// Services are the use cases exposed over HTTP.
type Services struct {
	Sessions   ports.SessionResolver
	Auth       ports.AuthService
	Profiles   ports.ProfileService
	Activities ports.ActivityService
	Admin      ports.AdminService
	Prices     ports.PriceService
}

// Options tune the router.
type Options struct {
	CookieSecure bool
	// Metrics adds the Prometheus request middleware. The registry is global,
	// so tests building several routers leave it off.
	Metrics bool
	Swagger bool
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(svc Services, opts Options, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(log))
	if opts.Metrics {
		e.Use(echoprometheus.NewMiddleware("tradedesk"))
	}

	cookies := middleware.Cookies{Secure: opts.CookieSecure}

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(svc.Auth, cookies, log)
	profileHandler := handler.NewProfileHandler(svc.Profiles)
	activityHandler := handler.NewActivityHandler(svc.Activities)
	adminHandler := handler.NewAdminHandler(svc.Admin)
	priceHandler := handler.NewPriceHandler(svc.Prices)
	shellHandler := handler.NewShellHandler(svc.Sessions, cookies, svc.Activities, svc.Admin, log)

	// --- Pages ---
	// Gate runs on every request, unmatched namespace paths included.
	e.Use(middleware.Gate(svc.Sessions, cookies, log))
	e.GET(domain.RouteHome, shellHandler.Home)
	e.GET(domain.RouteAuth, shellHandler.Auth)
	e.GET(domain.RouteDashboard, shellHandler.Dashboard)
	e.GET(domain.RouteDashboardProfile, shellHandler.Profile)
	e.GET(domain.RouteAdmin, shellHandler.AdminHome)
	e.GET(domain.RouteAdminUsers, shellHandler.AdminUsers)
	e.GET(domain.RouteAdminActivity, shellHandler.AdminActivity)
	e.GET(domain.RouteAdminSettings, shellHandler.AdminSettings)

	// --- Public API ---
	api := e.Group("/api", middleware.Session(svc.Sessions, cookies, log))
	api.POST("/auth/sign-in", authHandler.SignIn)
	api.POST("/auth/sign-up", authHandler.SignUp)
	api.POST("/auth/sign-out", authHandler.SignOut)
	api.POST("/auth/password-reset", authHandler.PasswordReset)
	api.GET("/activity-types", activityHandler.Types)

	// --- Signed-in API ---
	signedIn := middleware.RequireUser
	api.GET("/profile", profileHandler.Get, signedIn)
	api.PATCH("/profile", profileHandler.Update, signedIn)
	api.PUT("/profile/password", profileHandler.UpdatePassword, signedIn)
	api.GET("/activities", activityHandler.List, signedIn)
	api.POST("/activities", activityHandler.Append, signedIn)
	api.POST("/activities/prune", activityHandler.Prune, signedIn)
	api.GET("/prices", priceHandler.Get, signedIn)

	// --- Admin API ---
	admin := api.Group("/admin", middleware.RBAC(domain.RoleAdmin))
	admin.GET("/activities", activityHandler.AdminList)
	admin.GET("/users", adminHandler.ListUsers)
	admin.POST("/users/:id/balance", adminHandler.AdjustBalance)

	if opts.Swagger {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil || v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}

// @title        Tradedesk Dashboard API
// @version      1.0
// @description  Role-aware trading dashboard: session gate, page shells, activity trail and price charts.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/tradedesk/dashboard/internal/api"
	"github.com/tradedesk/dashboard/internal/core/ports"
	"github.com/tradedesk/dashboard/internal/core/service"
	"github.com/tradedesk/dashboard/internal/infrastructure/config"
	"github.com/tradedesk/dashboard/internal/infrastructure/db/mongo"
	"github.com/tradedesk/dashboard/internal/infrastructure/db/redis"
	opshttp "github.com/tradedesk/dashboard/internal/infrastructure/http"
	"github.com/tradedesk/dashboard/internal/infrastructure/http/handlers"
	"github.com/tradedesk/dashboard/internal/infrastructure/identity/gotrue"
	"github.com/tradedesk/dashboard/internal/infrastructure/identity/local"
	"github.com/tradedesk/dashboard/internal/infrastructure/marketdata/alphavantage"
	"github.com/tradedesk/dashboard/internal/infrastructure/telemetry"
	"github.com/tradedesk/dashboard/pkg/logger"
)

const (
	serviceName     = "tradedesk-dashboard"
	outboundTimeout = 15 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "tradedesk: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: serviceName,
		Env:     cfg.Env,
	})

	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: serviceName,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		SampleRatio: cfg.Telemetry.SampleRatio,
	}, logger.Component("telemetry"))
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn().Err(err).Msg("tracer shutdown failed")
		}
	}()

	// --- Storage ---
	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  serviceName,
	})
	if err != nil {
		return err
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	activityRepo := mongo.NewActivityRepository(db)
	if err := mongo.EnsureIndexes(ctx, activityRepo); err != nil {
		return err
	}

	// --- Identity ---
	httpClient := telemetry.InstrumentClient(nil, outboundTimeout)
	idp, admin, err := identity(ctx, cfg, db, rdb, httpClient, logger.Component("identity"))
	if err != nil {
		return err
	}

	// --- Services ---
	activities := service.NewActivityService(activityRepo, admin, logger.Component("activity"))
	marketData := alphavantage.NewClient(httpClient, cfg.MarketData.BaseURL, cfg.MarketData.APIKey, logger.Component("alphavantage"))
	if cfg.MarketData.APIKey == "" {
		log.Warn().Msg("ALPHA_VANTAGE_API_KEY is not set; price requests will fail")
	}

	svc := api.Services{
		Sessions:   service.NewSessionService(idp, logger.Component("session")),
		Auth:       service.NewAuthService(idp, activities, logger.Component("auth")),
		Profiles:   service.NewProfileService(idp, activities, logger.Component("profile")),
		Activities: activities,
		Admin:      service.NewAdminService(admin, activities, logger.Component("admin")),
		Prices: service.NewPriceService(
			marketData,
			redis.NewPriceCache(rdb, cfg.MarketData.CacheTTL),
			cfg.MarketData.RequestsPerMinute,
			logger.Component("prices"),
		),
	}

	// --- Servers ---
	app := api.NewRouter(svc, api.Options{
		CookieSecure: cfg.CookieSecure,
		Metrics:      true,
		Swagger:      !cfg.IsProduction(),
	}, logger.Component("http"))
	ops := opshttp.NewOpsRouter(handlers.MongoCheck(db), handlers.RedisCheck(rdb))

	servers := []*http.Server{
		{Addr: ":" + cfg.Port, Handler: telemetry.HTTPHandler(app, "tradedesk.http"), ReadHeaderTimeout: 5 * time.Second},
		{Addr: ":" + cfg.OpsPort, Handler: ops, ReadHeaderTimeout: 5 * time.Second},
	}

	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			log.Info().Str("addr", srv.Addr).Msg("listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("serve %s: %w", srv.Addr, err)
			}
		}(srv)
	}

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err = <-errCh:
		log.Error().Err(err).Msg("server failed")
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		if serr := srv.Shutdown(sctx); serr != nil {
			log.Warn().Err(serr).Str("addr", srv.Addr).Msg("graceful shutdown failed")
		}
	}
	return err
}

// identity builds the provider selected by IDENTITY_DRIVER.
func identity(
	ctx context.Context,
	cfg *config.Config,
	db *mongodriver.Database,
	rdb *goredis.Client,
	httpClient *http.Client,
	log zerolog.Logger,
) (ports.IdentityProvider, ports.IdentityAdmin, error) {
	switch cfg.Identity.Driver {
	case config.IdentityLocal:
		users := mongo.NewAuthRepository(db)
		if err := mongo.EnsureIndexes(ctx, users); err != nil {
			return nil, nil, err
		}
		p, err := local.NewProvider(users, redis.NewRefreshTokenStore(rdb, 0), cfg.Identity.JWTSecret, cfg.Identity.TokenTTL, log)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Identity.AdminEmail != "" {
			if err := p.EnsureAdmin(ctx, cfg.Identity.AdminEmail, cfg.Identity.AdminPassword); err != nil {
				return nil, nil, err
			}
		}
		log.Info().Msg("using local identity provider")
		return p, p, nil
	default:
		p, err := gotrue.NewProvider(cfg.Identity.SupabaseURL, cfg.Identity.AnonKey, httpClient)
		if err != nil {
			return nil, nil, err
		}
		a, err := gotrue.NewAdmin(cfg.Identity.SupabaseURL, cfg.Identity.ServiceRoleKey, httpClient)
		if err != nil {
			return nil, nil, err
		}
		return p, a, nil
	}
}

package config

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"

	"github.com/tradedesk/dashboard/internal/core/domain"
)

// Identity drivers.
const (
	IdentityGoTrue = "gotrue"
	IdentityLocal  = "local"
)

type Config struct {
	Port         string `env:"PORT,          default=8080"`
	OpsPort      string `env:"OPS_PORT,      default=9090"`
	Env          string `env:"ENV,           default=development"`
	LogLevel     string `env:"LOG_LEVEL,     default=info"`
	CookieSecure bool   `env:"COOKIE_SECURE, default=false"`

	Identity   IdentityConfig
	MarketData MarketDataConfig
	Mongo      MongoConfig
	Redis      RedisConfig
	Telemetry  TelemetryConfig
}

type IdentityConfig struct {
	Driver         string        `env:"IDENTITY_DRIVER,           default=gotrue"`
	SupabaseURL    string        `env:"SUPABASE_URL"`
	AnonKey        string        `env:"SUPABASE_ANON_KEY"`
	ServiceRoleKey string        `env:"SUPABASE_SERVICE_ROLE_KEY"`
	JWTSecret      string        `env:"JWT_SECRET"`
	TokenTTL       time.Duration `env:"ACCESS_TOKEN_TTL,          default=1h"`
	AdminEmail     string        `env:"LOCAL_ADMIN_EMAIL"`
	AdminPassword  string        `env:"LOCAL_ADMIN_PASSWORD"`
}

type MarketDataConfig struct {
	APIKey            string        `env:"ALPHA_VANTAGE_API_KEY"`
	BaseURL           string        `env:"ALPHA_VANTAGE_BASE_URL, default=https://www.alphavantage.co/query"`
	RequestsPerMinute int           `env:"MARKET_DATA_RPM,        default=5"`
	CacheTTL          time.Duration `env:"PRICE_CACHE_TTL,        default=15m"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=tradedesk"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type TelemetryConfig struct {
	Endpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Insecure    bool    `env:"OTEL_EXPORTER_OTLP_INSECURE, default=false"`
	SampleRatio float64 `env:"OTEL_TRACES_SAMPLER_ARG,     default=1"`
}

// Load reads a .env file when present, then the environment.
func Load(ctx context.Context) (*Config, error) {
	_ = godotenv.Load()
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration from l and validates it.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the selected identity driver cannot start without.
// The market-data key is not required here.
func (c *Config) Validate() error {
	switch c.Identity.Driver {
	case IdentityGoTrue:
		if c.Identity.SupabaseURL == "" {
			return &domain.ConfigurationError{Key: "SUPABASE_URL"}
		}
		if c.Identity.AnonKey == "" {
			return &domain.ConfigurationError{Key: "SUPABASE_ANON_KEY"}
		}
		if c.Identity.ServiceRoleKey == "" {
			return &domain.ConfigurationError{Key: "SUPABASE_SERVICE_ROLE_KEY"}
		}
	case IdentityLocal:
		if c.Identity.JWTSecret == "" {
			return &domain.ConfigurationError{Key: "JWT_SECRET"}
		}
	default:
		return fmt.Errorf("config: unknown IDENTITY_DRIVER %q", c.Identity.Driver)
	}
	return nil
}

// IsProduction reports whether ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultMaxPoolSize = 50
)

// Config holds the connection settings of the dashboard database.
type Config struct {
	URI         string
	Database    string
	AppName     string
	MaxPoolSize uint64
	Timeout     time.Duration
}

// Connect opens a client, pings the primary and returns the client together
// with the configured database.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	poolSize := cfg.MaxPoolSize
	if poolSize == 0 {
		poolSize = defaultMaxPoolSize
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(poolSize).
		SetServerSelectionTimeout(timeout)
	if cfg.AppName != "" {
		opts.SetAppName(cfg.AppName)
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping %s: %w", cfg.Database, err)
	}

	return client, client.Database(cfg.Database), nil
}

// Indexer is a repository that owns indexes.
type Indexer interface {
	EnsureIndexes(ctx context.Context) error
}

// EnsureIndexes runs every indexer and stops at the first failure.
func EnsureIndexes(ctx context.Context, indexers ...Indexer) error {
	for _, ix := range indexers {
		if err := ix.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("ensure indexes (%T): %w", ix, err)
		}
	}
	return nil
}

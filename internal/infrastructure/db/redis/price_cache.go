package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tradedesk/dashboard/internal/core/domain"
	"github.com/tradedesk/dashboard/internal/core/ports"
)

const defaultPriceTTL = 15 * time.Minute

// PriceCache keeps market-data responses in Redis.
// Key format: prices:<symbol>:<output_size>
type PriceCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPriceCache creates a PriceCache. A non-positive ttl uses defaultPriceTTL.
func NewPriceCache(client *redis.Client, ttl time.Duration) *PriceCache {
	if ttl <= 0 {
		ttl = defaultPriceTTL
	}
	return &PriceCache{client: client, ttl: ttl}
}

var _ ports.PriceCache = (*PriceCache)(nil)

func (c *PriceCache) Get(ctx context.Context, symbol string, size domain.OutputSize) (*domain.PriceSeries, error) {
	raw, err := c.client.Get(ctx, c.key(symbol, size)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("price cache get: %w", err)
	}

	var s domain.PriceSeries
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("price cache decode: %w", err)
	}
	return &s, nil
}

func (c *PriceCache) Set(ctx context.Context, symbol string, size domain.OutputSize, s *domain.PriceSeries) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("price cache encode: %w", err)
	}
	return c.client.Set(ctx, c.key(symbol, size), raw, c.ttl).Err()
}

func (c *PriceCache) key(symbol string, size domain.OutputSize) string {
	return fmt.Sprintf("prices:%s:%s", symbol, size)
}

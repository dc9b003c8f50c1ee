package ports

import (
	"context"
	"time"

	"github.com/tradedesk/dashboard/internal/core/domain"
)

// MarketDataProvider fetches daily price series from the external API.
type MarketDataProvider interface {
	DailySeries(ctx context.Context, symbol string, size domain.OutputSize) (*domain.PriceSeries, error)
}

// PriceCache stores provider responses. A miss is (nil, nil).
type PriceCache interface {
	Get(ctx context.Context, symbol string, size domain.OutputSize) (*domain.PriceSeries, error)
	Set(ctx context.Context, symbol string, size domain.OutputSize, s *domain.PriceSeries) error
}

// PriceService serves chart data.
type PriceService interface {
	DailySeries(ctx context.Context, ticker string, size domain.OutputSize) (*domain.PriceSeries, error)
	SeriesInRange(ctx context.Context, ticker string, start, end time.Time) (*domain.PriceSeries, error)
}

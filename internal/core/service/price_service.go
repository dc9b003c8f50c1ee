package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tradedesk/dashboard/internal/api/metrics"
	"github.com/tradedesk/dashboard/internal/core/domain"
	"github.com/tradedesk/dashboard/internal/core/ports"
)

type priceService struct {
	provider ports.MarketDataProvider
	cache    ports.PriceCache
	limiter  *rate.Limiter
	log      zerolog.Logger
}

// NewPriceService wraps provider with an optional cache and a per-minute
// request budget. requestsPerMinute <= 0 disables the limiter.
func NewPriceService(provider ports.MarketDataProvider, cache ports.PriceCache, requestsPerMinute int, log zerolog.Logger) ports.PriceService {
	s := &priceService{provider: provider, cache: cache, log: log}
	if requestsPerMinute > 0 {
		s.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), requestsPerMinute)
	}
	return s
}

func (s *priceService) DailySeries(ctx context.Context, ticker string, size domain.OutputSize) (*domain.PriceSeries, error) {
	symbol, err := normalizeTicker(ticker)
	if err != nil {
		return nil, err
	}
	switch size {
	case "":
		size = domain.OutputCompact
	case domain.OutputCompact, domain.OutputFull:
	default:
		return nil, domain.NewValidationError("output_size", "must be compact or full")
	}

	ctx, span := tracer.Start(ctx, "price.daily_series")
	defer span.End()

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, symbol, size)
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("price cache read failed")
		} else if cached != nil {
			metrics.MarketDataRequestsTotal.WithLabelValues("cache_hit").Inc()
			return cached, nil
		}
	}

	if s.limiter != nil && !s.limiter.Allow() {
		metrics.MarketDataRequestsTotal.WithLabelValues(string(domain.UpstreamRateLimited)).Inc()
		return nil, &domain.UpstreamError{
			Kind:    domain.UpstreamRateLimited,
			Message: "API rate limit reached. Please try again later.",
		}
	}

	start := time.Now()
	series, err := s.provider.DailySeries(ctx, symbol, size)
	metrics.MarketDataDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		metrics.MarketDataRequestsTotal.WithLabelValues(upstreamLabel(err)).Inc()
		return nil, err
	}
	metrics.MarketDataRequestsTotal.WithLabelValues("ok").Inc()

	if s.cache != nil {
		if err := s.cache.Set(ctx, symbol, size, series); err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("price cache write failed")
		}
	}
	return series, nil
}

// SeriesInRange returns the compact series of ticker narrowed to [start, end].
// An empty result is not an error.
func (s *priceService) SeriesInRange(ctx context.Context, ticker string, start, end time.Time) (*domain.PriceSeries, error) {
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return nil, domain.NewValidationError("end_date", "End date must not be before start date")
	}
	series, err := s.DailySeries(ctx, ticker, domain.OutputCompact)
	if err != nil {
		return nil, err
	}
	filtered := series.Between(start, end)
	return &filtered, nil
}

func normalizeTicker(ticker string) (string, error) {
	symbol := strings.ToUpper(strings.TrimSpace(ticker))
	if symbol == "" {
		return "", domain.NewValidationError("ticker", "Ticker symbol is required")
	}
	if len(symbol) > domain.MaxTickerLength {
		return "", domain.NewValidationError("ticker", "Invalid ticker symbol")
	}
	return symbol, nil
}

func upstreamLabel(err error) string {
	var ue *domain.UpstreamError
	if errors.As(err, &ue) {
		return string(ue.Kind)
	}
	return "error"
}

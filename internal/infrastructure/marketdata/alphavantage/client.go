// Package alphavantage fetches daily price series from the Alpha Vantage API.
package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/tradedesk/dashboard/internal/core/domain"
	"github.com/tradedesk/dashboard/internal/core/ports"
)

const (
	// DefaultBaseURL is the public query endpoint.
	DefaultBaseURL = "https://www.alphavantage.co/query"
	defaultTimeout = 10 * time.Second
)

// Client implements ports.MarketDataProvider.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	log        zerolog.Logger
}

// NewClient never fails on a missing key; DailySeries reports it instead so
// the rest of the dashboard keeps working.
func NewClient(httpClient *http.Client, baseURL, apiKey string, log zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{httpClient: httpClient, baseURL: baseURL, apiKey: apiKey, log: log}
}

var _ ports.MarketDataProvider = (*Client)(nil)

type ohlcv struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

type dailyResponse struct {
	Meta struct {
		Symbol        string `json:"2. Symbol"`
		LastRefreshed string `json:"3. Last Refreshed"`
		TimeZone      string `json:"5. Time Zone"`
	} `json:"Meta Data"`
	Series       map[string]ohlcv `json:"Time Series (Daily)"`
	ErrorMessage string           `json:"Error Message"`
	Note         string           `json:"Note"`
	Information  string           `json:"Information"`
}

func (c *Client) DailySeries(ctx context.Context, symbol string, size domain.OutputSize) (*domain.PriceSeries, error) {
	if c.apiKey == "" {
		return nil, &domain.ConfigurationError{Key: "ALPHA_VANTAGE_API_KEY"}
	}

	reqURL, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	q := reqURL.Query()
	q.Set("function", "TIME_SERIES_DAILY")
	q.Set("symbol", symbol)
	q.Set("outputsize", string(size))
	q.Set("apikey", c.apiKey)
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("symbol", symbol).Msg("alpha vantage request failed")
		return nil, failure(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Error().Int("http_status", resp.StatusCode).Str("symbol", symbol).Msg("alpha vantage returned error status")
		return nil, failure(fmt.Errorf("API request failed with status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, failure(err)
	}

	var dr dailyResponse
	if err := json.Unmarshal(body, &dr); err != nil {
		c.log.Error().Err(err).Str("symbol", symbol).Msg("alpha vantage response not parseable")
		return nil, failure(err)
	}

	switch {
	case dr.ErrorMessage != "":
		return nil, &domain.UpstreamError{Kind: domain.UpstreamUnknownSymbol, Message: dr.ErrorMessage}
	case dr.Note != "" || (dr.Information != "" && len(dr.Series) == 0):
		return nil, &domain.UpstreamError{
			Kind:    domain.UpstreamRateLimited,
			Message: "API rate limit reached. Please try again later.",
		}
	}

	points := toPoints(dr.Series)
	if len(points) == 0 {
		return nil, &domain.UpstreamError{Kind: domain.UpstreamUnknownSymbol, Message: "No data available for this ticker"}
	}

	s := &domain.PriceSeries{
		Symbol:        dr.Meta.Symbol,
		LastRefreshed: dr.Meta.LastRefreshed,
		TimeZone:      dr.Meta.TimeZone,
		Points:        points,
	}
	if s.Symbol == "" {
		s.Symbol = symbol
	}
	return s, nil
}

// toPoints returns the series sorted by ascending date. Unparseable dates are dropped.
func toPoints(series map[string]ohlcv) []domain.PricePoint {
	points := make([]domain.PricePoint, 0, len(series))
	for date, v := range series {
		if _, err := time.Parse(domain.DateLayout, date); err != nil {
			continue
		}
		closePrice := parseFloat(v.Close)
		points = append(points, domain.PricePoint{
			Date:   date,
			Price:  closePrice,
			Open:   parseFloat(v.Open),
			High:   parseFloat(v.High),
			Low:    parseFloat(v.Low),
			Close:  closePrice,
			Volume: parseFloat(v.Volume),
		})
	}
	// DateLayout sorts lexically.
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func failure(err error) error {
	return &domain.UpstreamError{Kind: domain.UpstreamFailure, Message: "Failed to fetch stock data", Err: err}
}

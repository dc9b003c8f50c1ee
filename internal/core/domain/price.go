package domain

import "time"

// DateLayout is the calendar-day format used by the market-data provider.
const DateLayout = "2006-01-02"

// OutputSize hints how much history the provider returns.
type OutputSize string

const (
	OutputCompact OutputSize = "compact" // last 100 trading days
	OutputFull    OutputSize = "full"
)

// DefaultTicker and DefaultChartWindow seed the dashboard chart.
const (
	DefaultTicker      = "AAPL"
	DefaultChartWindow = 30 * 24 * time.Hour
	MaxTickerLength    = 10
)

// PricePoint is one trading day.
type PricePoint struct {
	Date   string  `json:"date"`
	Price  float64 `json:"price"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// Day parses the point's date. The zero time is returned for malformed dates.
func (p PricePoint) Day() time.Time {
	t, err := time.Parse(DateLayout, p.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// PriceSeries is a daily series sorted by ascending date.
type PriceSeries struct {
	Symbol        string       `json:"symbol"`
	LastRefreshed string       `json:"last_refreshed"`
	TimeZone      string       `json:"time_zone"`
	Points        []PricePoint `json:"data"`
}

// Between returns the points whose date falls in [start, end]. A zero bound is
// open. Dates are compared by calendar day.
func (s PriceSeries) Between(start, end time.Time) PriceSeries {
	if start.IsZero() && end.IsZero() {
		return s
	}
	startDay := truncateDay(start)
	endDay := truncateDay(end)

	out := s
	out.Points = make([]PricePoint, 0, len(s.Points))
	for _, p := range s.Points {
		d := p.Day()
		if d.IsZero() {
			continue
		}
		if !start.IsZero() && d.Before(startDay) {
			continue
		}
		if !end.IsZero() && d.After(endDay) {
			continue
		}
		out.Points = append(out.Points, p)
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

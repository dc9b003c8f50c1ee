package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tradedesk/dashboard/internal/core/domain"
	"github.com/tradedesk/dashboard/internal/core/ports"
)

type PriceHandler struct {
	prices ports.PriceService
}

func NewPriceHandler(prices ports.PriceService) *PriceHandler {
	return &PriceHandler{prices: prices}
}

// Get returns the daily series of a ticker, optionally narrowed to a date range.
//
// @Summary      Daily prices
// @Tags         prices
// @Produce      json
// @Param        ticker       query     string  true   "Ticker symbol"
// @Param        start        query     string  false  "YYYY-MM-DD"
// @Param        end          query     string  false  "YYYY-MM-DD"
// @Param        output_size  query     string  false  "compact or full"
// @Success      200          {object}  domain.PriceSeries
// @Failure      404          {object}  errorBody
// @Failure      422          {object}  errorBody
// @Failure      429          {object}  errorBody
// @Failure      502          {object}  errorBody
// @Router       /api/prices [get]
func (h *PriceHandler) Get(c echo.Context) error {
	ticker := c.QueryParam("ticker")
	start, err := queryDate(c, "start")
	if err != nil {
		return err
	}
	end, err := queryDate(c, "end")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if start.IsZero() && end.IsZero() {
		s, err := h.prices.DailySeries(ctx, ticker, domain.OutputSize(c.QueryParam("output_size")))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, s)
	}

	s, err := h.prices.SeriesInRange(ctx, ticker, start, end)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s)
}

func queryDate(c echo.Context, name string) (time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(domain.DateLayout, raw)
	if err != nil {
		return time.Time{}, domain.NewValidationError(name, "must be a date in YYYY-MM-DD format")
	}
	return t, nil
}

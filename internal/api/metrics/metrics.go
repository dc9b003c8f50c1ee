// Package metrics defines and registers all custom Prometheus metrics for the
// tradedesk dashboard API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry through promauto
// as soon as the package is imported.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tradedesk"

// ── Access control ────────────────────────────────────────────────────────────

// GateDecisionsTotal counts gate outcomes.
// Labels:
//   - namespace: "public", "user-dashboard" or "admin-dashboard"
//   - outcome: "allow" or the redirect target (e.g. "/auth")
var GateDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gate_decisions_total",
		Help:      "Total number of access-control gate decisions.",
	},
	[]string{"namespace", "outcome"},
)

// SessionRefreshesTotal counts access-token refresh attempts.
// Label:
//   - result: "ok" or "error"
var SessionRefreshesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_refreshes_total",
		Help:      "Total number of session refresh attempts, labelled by result.",
	},
	[]string{"result"},
)

// ── Activity trail ────────────────────────────────────────────────────────────

// ActivityAppendsTotal counts activity appends.
// Labels:
//   - type: the activity type (e.g. "login")
//   - result: "ok", "invalid" or "error"
var ActivityAppendsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "activity_appends_total",
		Help:      "Total number of activity appends, by type and result.",
	},
	[]string{"type", "result"},
)

// ActivityPrunedTotal counts activities deleted by retention pruning.
var ActivityPrunedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "activity_pruned_total",
		Help:      "Total number of activities deleted by pruning.",
	},
)

// DisplayNameLookupsTotal counts owner lookups done for the admin feed.
// Label:
//   - result: "ok" or "fallback"
var DisplayNameLookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "display_name_lookups_total",
		Help:      "Total number of identity lookups made to resolve activity owner names.",
	},
	[]string{"result"},
)

// ── Market data ───────────────────────────────────────────────────────────────

// MarketDataRequestsTotal counts price series requests.
// Label:
//   - result: "cache_hit", "ok", "rate_limited", "unknown_symbol" or "error"
var MarketDataRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "market_data_requests_total",
		Help:      "Total number of price series requests, by result.",
	},
	[]string{"result"},
)

// MarketDataDuration measures round trips to the market-data provider.
var MarketDataDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "market_data_request_duration_seconds",
		Help:      "Duration of market-data provider requests.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
)

// Package metrics holds the Prometheus collectors for the scanner process.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Drop reasons recorded per mapping per cycle
const (
	DropStale        = "stale"
	DropIlliquid     = "illiquid"
	DropNoLine       = "no_line"
	DropNotFound     = "not_found"
	DropInvalidInput = "invalid_input"
	DropDegenerate   = "degenerate"
	DropUpstream     = "upstream"
	DropNoEdge       = "no_edge"
	DropBelowMinEdge = "below_min_edge"
	DropDuplicate    = "duplicate"
	DropCooldown     = "cooldown"
)

// Metrics groups every collector the scanner, ingest and alert paths update
type Metrics struct {
	CyclesTotal      prometheus.Counter
	CycleDuration    prometheus.Histogram
	AlertsTotal      *prometheus.CounterVec
	DropsTotal       *prometheus.CounterVec
	FetchErrorsTotal *prometheus.CounterVec
	DeliveryFailures prometheus.Counter
	QuotesIngested   prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kalshi_odds_scan_cycles_total",
			Help: "completed scan cycles",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kalshi_odds_scan_cycle_duration_seconds",
			Help:    "wall time of one scan cycle",
			Buckets: prometheus.DefBuckets,
		}),
		AlertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kalshi_odds_alerts_total",
			Help: "alerts emitted by direction and confidence bucket",
		}, []string{"direction", "bucket"}),
		DropsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kalshi_odds_mapping_drops_total",
			Help: "mappings skipped for a cycle by reason",
		}, []string{"reason"}),
		FetchErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kalshi_odds_fetch_errors_total",
			Help: "failed upstream fetches by source",
		}, []string{"source"}),
		DeliveryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kalshi_odds_alert_delivery_failures_total",
			Help: "alert store or sink failures",
		}),
		QuotesIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kalshi_odds_quotes_ingested_total",
			Help: "sportsbook quotes written to the cache",
		}),
	}

	reg.MustRegister(
		m.CyclesTotal,
		m.CycleDuration,
		m.AlertsTotal,
		m.DropsTotal,
		m.FetchErrorsTotal,
		m.DeliveryFailures,
		m.QuotesIngested,
	)

	return m
}

// Drop records a skipped mapping. Safe on a nil receiver.
func (m *Metrics) Drop(reason string) {
	if m == nil {
		return
	}
	m.DropsTotal.WithLabelValues(reason).Inc()
}

// FetchError records a failed upstream fetch. Safe on a nil receiver.
func (m *Metrics) FetchError(source string) {
	if m == nil {
		return
	}
	m.FetchErrorsTotal.WithLabelValues(source).Inc()
}

// Alert records an emitted alert. Safe on a nil receiver.
func (m *Metrics) Alert(direction, bucket string) {
	if m == nil {
		return
	}
	m.AlertsTotal.WithLabelValues(direction, bucket).Inc()
}

// Cycle records a finished cycle. Safe on a nil receiver.
func (m *Metrics) Cycle(seconds float64, deliveryFailures int) {
	if m == nil {
		return
	}
	m.CyclesTotal.Inc()
	m.CycleDuration.Observe(seconds)
	m.DeliveryFailures.Add(float64(deliveryFailures))
}

// Ingested records quotes written to the cache. Safe on a nil receiver.
func (m *Metrics) Ingested(n int) {
	if m == nil {
		return
	}
	m.QuotesIngested.Add(float64(n))
}

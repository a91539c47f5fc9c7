// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the engine. A nil *Metrics
// is valid and records nothing, so components can run unmetered in
// tests and replay.
type Metrics struct {
	registry *prometheus.Registry

	EventsProcessed  *prometheus.CounterVec
	EventsMalformed  prometheus.Counter
	EventsOutOfOrder prometheus.Counter

	LaunchesAdmitted prometheus.Counter
	LaunchesRejected prometheus.Counter

	OrdersSubmitted *prometheus.CounterVec
	OrdersFailed    *prometheus.CounterVec

	OpenPositions  prometheus.Gauge
	StuckPositions prometheus.Gauge
	TradesClosed   *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance backed by its own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "meme_sniper"
	}
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		EventsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "events_processed_total",
			Help:      "Total number of market events processed",
		}, []string{"type"}),
		EventsMalformed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "events_malformed_total",
			Help:      "Total number of payloads dropped as malformed",
		}),
		EventsOutOfOrder: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "events_out_of_order_total",
			Help:      "Total number of events dropped for ordering violations",
		}),

		LaunchesAdmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "filter",
			Name:      "launches_admitted_total",
			Help:      "Total number of launches admitted for entry",
		}),
		LaunchesRejected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "filter",
			Name:      "launches_rejected_total",
			Help:      "Total number of launches rejected by admission filtering",
		}),

		OrdersSubmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "orders_submitted_total",
			Help:      "Total number of orders submitted",
		}, []string{"side"}),
		OrdersFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "orders_failed_total",
			Help:      "Total number of order failures",
		}, []string{"side", "kind"}),

		OpenPositions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "open_positions",
			Help:      "Number of positions currently open",
		}),
		StuckPositions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "stuck_positions",
			Help:      "Number of positions flagged stuck, awaiting intervention",
		}),
		TradesClosed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "trades_closed_total",
			Help:      "Total number of closed trades",
		}, []string{"exit_reason"}),
	}
}

// Handler returns an HTTP handler exposing the metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Nil-safe recording helpers.

// EventProcessed counts one processed event by type.
func (m *Metrics) EventProcessed(eventType string) {
	if m == nil {
		return
	}
	m.EventsProcessed.WithLabelValues(eventType).Inc()
}

// Admitted counts one admitted launch.
func (m *Metrics) Admitted() {
	if m == nil {
		return
	}
	m.LaunchesAdmitted.Inc()
}

// Rejected counts one rejected launch.
func (m *Metrics) Rejected() {
	if m == nil {
		return
	}
	m.LaunchesRejected.Inc()
}

// OrderSubmitted counts one submission by side.
func (m *Metrics) OrderSubmitted(side string) {
	if m == nil {
		return
	}
	m.OrdersSubmitted.WithLabelValues(side).Inc()
}

// OrderFailed counts one failure by side and kind.
func (m *Metrics) OrderFailed(side, kind string) {
	if m == nil {
		return
	}
	m.OrdersFailed.WithLabelValues(side, kind).Inc()
}

// SetOpenPositions updates the open position gauge.
func (m *Metrics) SetOpenPositions(n int) {
	if m == nil {
		return
	}
	m.OpenPositions.Set(float64(n))
}

// SetStuckPositions updates the stuck position gauge.
func (m *Metrics) SetStuckPositions(n int) {
	if m == nil {
		return
	}
	m.StuckPositions.Set(float64(n))
}

// TradeClosed counts one closed trade by exit reason.
func (m *Metrics) TradeClosed(reason string) {
	if m == nil {
		return
	}
	m.TradesClosed.WithLabelValues(reason).Inc()
}

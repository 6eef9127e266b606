package infra

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the validation service's Prometheus collectors on a private
// registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	validations    *prometheus.CounterVec
	validationTime prometheus.Histogram
	price          prometheus.Gauge
	reconnects     *prometheus.CounterVec
	feedConnected  *prometheus.GaugeVec
	errorsTotal    *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trove",
			Name:      "validations_total",
			Help:      "Trove change validations by change kind, outcome and rejection kind.",
		}, []string{"change", "outcome", "rejection"}),
		validationTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "trove",
			Name:      "validation_duration_seconds",
			Help:      "Time spent validating one trove change.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 8),
		}),
		price: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "trove",
			Name:      "price",
			Help:      "Latest collateral price in LUSD.",
		}),
		reconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trove",
			Name:      "feed_reconnects_total",
			Help:      "Price feed reconnect attempts.",
		}, []string{"feed"}),
		feedConnected: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "trove",
			Name:      "feed_connected",
			Help:      "1 while the price feed is connected.",
		}, []string{"feed"}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trove",
			Name:      "errors_total",
			Help:      "Errors by component.",
		}, []string{"component"}),
	}

	m.registry.MustRegister(
		m.validations,
		m.validationTime,
		m.price,
		m.reconnects,
		m.feedConnected,
		m.errorsTotal,
		collectors.NewGoCollector(),
	)
	return m
}

// RecordValidation counts one validation and observes its latency.
// rejection is empty unless outcome is "rejected".
func (m *Metrics) RecordValidation(change, outcome, rejection string, elapsed time.Duration) {
	m.validations.WithLabelValues(change, outcome, rejection).Inc()
	m.validationTime.Observe(elapsed.Seconds())
}

// SetPrice records the latest price.
func (m *Metrics) SetPrice(price float64) {
	m.price.Set(price)
}

// RecordReconnect counts a reconnect attempt of feed.
func (m *Metrics) RecordReconnect(feed string) {
	m.reconnects.WithLabelValues(feed).Inc()
}

// SetFeedConnected sets the connection state of feed.
func (m *Metrics) SetFeedConnected(feed string, connected bool) {
	v := 0.0
	if connected {
		v = 1
	}
	m.feedConnected.WithLabelValues(feed).Set(v)
}

// RecordError records an error occurrence in component.
func (m *Metrics) RecordError(component string) {
	m.errorsTotal.WithLabelValues(component).Inc()
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

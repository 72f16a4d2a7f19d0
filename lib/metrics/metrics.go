// Package metrics provides the Prometheus metrics of the scanner. All methods are safe on a nil *Metrics so
// components can be run without monitoring.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace of every metric.
const Namespace = "chainscan"

// Price request results.
const (
	PriceHit   = "hit"
	PriceFetch = "fetch"
	PriceError = "error"
)

// Metrics holds all Prometheus metrics for the scanner.
type Metrics struct {
	// Polling metrics
	AddressesChecked *prometheus.CounterVec
	LookupErrors     *prometheus.CounterVec
	LookupLatency    *prometheus.HistogramVec
	PollersRunning   prometheus.Gauge

	// Price metrics
	PriceRequests *prometheus.CounterVec

	// Found metrics
	Found        *prometheus.CounterVec
	SinkErrors   *prometheus.CounterVec
	DroppedFinds prometheus.Counter

	gatherer prometheus.Gatherer
}

// New creates a new Metrics instance registered in reg. A nil reg uses a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	f := promauto.With(reg)

	return &Metrics{
		AddressesChecked: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "poll",
			Name:      "addresses_checked_total",
			Help:      "Total number of successful balance lookups",
		}, []string{"chain"}),
		LookupErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "poll",
			Name:      "lookup_errors_total",
			Help:      "Total number of failed balance lookups",
		}, []string{"chain"}),
		LookupLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "poll",
			Name:      "lookup_duration_seconds",
			Help:      "Balance lookup latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"chain"}),
		PollersRunning: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "poll",
			Name:      "pollers_running",
			Help:      "Number of running chain pollers",
		}),
		PriceRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "price",
			Name:      "requests_total",
			Help:      "Price requests by result (hit, fetch, error)",
		}, []string{"symbol", "result"}),
		Found: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "found",
			Name:      "events_total",
			Help:      "Total number of value found events",
		}, []string{"chain"}),
		SinkErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "found",
			Name:      "sink_errors_total",
			Help:      "Total number of failed found event deliveries",
		}, []string{"sink"}),
		DroppedFinds: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "found",
			Name:      "dropped_total",
			Help:      "Found events dropped because the notifier was busy",
		}),
		gatherer: reg,
	}
}

// Handler returns the HTTP handler exposing the metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}

	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveLookup records one balance lookup of chain.
func (m *Metrics) ObserveLookup(chain string, d time.Duration, err error) {
	if m == nil {
		return
	}

	m.LookupLatency.WithLabelValues(chain).Observe(d.Seconds())

	if err != nil {
		m.LookupErrors.WithLabelValues(chain).Inc()

		return
	}

	m.AddressesChecked.WithLabelValues(chain).Inc()
}

// PollerStarted increments the running pollers gauge.
func (m *Metrics) PollerStarted() {
	if m != nil {
		m.PollersRunning.Inc()
	}
}

// PollerStopped decrements the running pollers gauge.
func (m *Metrics) PollerStopped() {
	if m != nil {
		m.PollersRunning.Dec()
	}
}

// PriceRequest records a price request for symbol with result PriceHit, PriceFetch or PriceError.
func (m *Metrics) PriceRequest(symbol, result string) {
	if m != nil {
		m.PriceRequests.WithLabelValues(symbol, result).Inc()
	}
}

// FoundEvent records a found event on chain.
func (m *Metrics) FoundEvent(chain string) {
	if m != nil {
		m.Found.WithLabelValues(chain).Inc()
	}
}

// SinkError records a failed delivery to sink.
func (m *Metrics) SinkError(sink string) {
	if m != nil {
		m.SinkErrors.WithLabelValues(sink).Inc()
	}
}

// Dropped records a found event that could not be queued.
func (m *Metrics) Dropped() {
	if m != nil {
		m.DroppedFinds.Inc()
	}
}

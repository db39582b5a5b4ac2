package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the tracker.
type Metrics struct {
	Registry            *prometheus.Registry
	RequestsTotal       *prometheus.CounterVec
	RequestDuration     prometheus.Histogram
	ItemsExtractedTotal *prometheus.CounterVec
	TargetsTotal        *prometheus.CounterVec
	ErrorsTotal         *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_requests_total",
			Help: "Total HTTP requests issued by the tracker.",
		},
		[]string{"phase"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tracker_request_duration_seconds",
			Help:    "HTTP request latency for target fetches.",
			Buckets: prometheus.DefBuckets,
		},
	)
	itemsExtracted := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_items_extracted_total",
			Help: "Total number of items extracted per target.",
		},
		[]string{"target"},
	)
	targets := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_targets_total",
			Help: "Targets attempted, by outcome.",
		},
		[]string{"outcome"},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_errors_total",
			Help: "Total number of fetch errors by type.",
		},
		[]string{"error_type"},
	)

	registry.MustRegister(requests, requestDuration, itemsExtracted, targets, errorsTotal)

	return &Metrics{
		Registry:            registry,
		RequestsTotal:       requests,
		RequestDuration:     requestDuration,
		ItemsExtractedTotal: itemsExtracted,
		TargetsTotal:        targets,
		ErrorsTotal:         errorsTotal,
	}
}

// IncRequest increments the requests total counter.
func (m *Metrics) IncRequest(phase string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(phase).Inc()
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// AddItems adds n extracted items for target.
func (m *Metrics) AddItems(target string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ItemsExtractedTotal.WithLabelValues(target).Add(float64(n))
}

// IncTarget counts a finished target by outcome (ok, empty, failed, canceled).
func (m *Metrics) IncTarget(outcome string) {
	if m == nil {
		return
	}
	m.TargetsTotal.WithLabelValues(outcome).Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// GenerationDuration tracks generation backend call duration.
	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "generation_duration_seconds",
			Help:    "Generation backend call duration",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 45, 60, 90, 120},
		},
		[]string{"model", "status"},
	)

	// GenerationFragmentsTotal tracks streamed fragments consumed.
	GenerationFragmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_fragments_total",
			Help: "Total streamed generation fragments consumed",
		},
		[]string{"model"},
	)

	// PersonasTotal tracks persona creations.
	PersonasTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "personas_total",
			Help: "Total personas created",
		},
		[]string{"owner_id"},
	)

	// InteractionsTotal tracks logged interactions.
	InteractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interactions_total",
			Help: "Total interactions logged",
		},
		[]string{"owner_id"},
	)

	// DialogueRoundsTotal tracks completed dialogue rounds.
	DialogueRoundsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dialogue_rounds_total",
			Help: "Total completed dialogue rounds",
		},
		[]string{"status"},
	)

	// SSEConnectionsActive tracks active SSE connections.
	SSEConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sse_connections_active",
			Help: "Number of active SSE connections",
		},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordGeneration records metrics for a generation backend call.
func RecordGeneration(model, status string, duration float64, fragments int) {
	GenerationDuration.WithLabelValues(model, status).Observe(duration)
	GenerationFragmentsTotal.WithLabelValues(model).Add(float64(fragments))
}

// IncrementSSEConnections increments the active SSE connection count.
func IncrementSSEConnections() {
	SSEConnectionsActive.Inc()
}

// DecrementSSEConnections decrements the active SSE connection count.
func DecrementSSEConnections() {
	SSEConnectionsActive.Dec()
}

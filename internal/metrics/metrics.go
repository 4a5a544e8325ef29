// Package metrics provides Prometheus instrumentation for fraudlens.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fraudlens",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fraudlens",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// PredictionsTotal counts completed inferences by predicted label.
	PredictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fraudlens",
			Name:      "predictions_total",
			Help:      "Total predictions by label.",
		},
		[]string{"label"},
	)

	// PredictionErrorsTotal counts failed inferences by error kind.
	PredictionErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fraudlens",
			Name:      "prediction_errors_total",
			Help:      "Total failed predictions by error kind.",
		},
		[]string{"kind"},
	)

	// ScoreDuration observes classifier scoring latency.
	ScoreDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fraudlens",
			Name:      "score_duration_seconds",
			Help:      "Classifier scoring duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		},
	)

	// AttributionDuration observes attribution latency, typically the
	// dominant cost of the pipeline.
	AttributionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fraudlens",
			Name:      "attribution_duration_seconds",
			Help:      "Attribution duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		},
	)

	// CacheHitsTotal counts result cache hits and misses.
	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fraudlens",
			Name:      "cache_requests_total",
			Help:      "Result cache lookups by outcome.",
		},
		[]string{"outcome"},
	)

	// ActiveWebSocketClients tracks connected live-feed clients.
	ActiveWebSocketClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fraudlens",
			Name:      "active_websocket_clients",
			Help:      "Number of currently connected WebSocket clients.",
		},
	)
)

var registry = prometheus.NewRegistry()

func init() {
	registry.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		PredictionsTotal,
		PredictionErrorsTotal,
		ScoreDuration,
		AttributionDuration,
		CacheHitsTotal,
		ActiveWebSocketClients,
	)
}

// Handler returns the HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// Package metrics provides Prometheus metrics for the installation tracking API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts handled requests by method, route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "meterinstall",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status_code"},
	)

	// HTTPRequestDuration tracks request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "meterinstall",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	// TargetMutationsTotal counts target writes by operation and outcome.
	TargetMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "meterinstall",
			Subsystem: "targets",
			Name:      "mutations_total",
			Help:      "Total number of target create/update/delete attempts by outcome",
		},
		[]string{"operation", "outcome"},
	)

	// ProgressComputeDuration tracks how long one target's progress derivation takes, fact queries included.
	ProgressComputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "meterinstall",
			Subsystem: "progress",
			Name:      "compute_duration_seconds",
			Help:      "Duration of a single target progress computation in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	// ProgressComputeErrors counts progress computations that failed on the fact source.
	ProgressComputeErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "meterinstall",
			Subsystem: "progress",
			Name:      "compute_errors_total",
			Help:      "Total number of progress computations that failed",
		},
	)
)

// RecordHTTPRequest records one handled request.
func RecordHTTPRequest(method, route, statusCode string, durationSeconds float64) {
	HTTPRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(durationSeconds)
}

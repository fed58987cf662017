package metrics

import "github.com/prometheus/client_golang/prometheus"

// Engine Prometheus metrics.
var (
	// EngineErrorsTotal counts failed exchanges with the search engine.
	// Incremented before the error is re-raised; the gateway never retries.
	EngineErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rummager",
			Name:      "engine_errors_total",
			Help:      "Total search engine request failures",
		},
		[]string{"error_type"},
	)

	// EngineRequestDuration observes round-trip time per engine operation.
	EngineRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rummager",
			Name:      "engine_request_duration_seconds",
			Help:      "Search engine request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)
)

var engineMetricsRegistered bool

// RegisterEngineMetrics registers engine metrics. Must be called once from main.
func RegisterEngineMetrics() {
	if engineMetricsRegistered {
		return
	}
	prometheus.MustRegister(EngineErrorsTotal)
	prometheus.MustRegister(EngineRequestDuration)
	engineMetricsRegistered = true
}

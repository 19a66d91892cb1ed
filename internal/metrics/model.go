package metrics

import "github.com/prometheus/client_golang/prometheus"

// Model endpoint Prometheus metrics.
var (
	ModelRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chunkdex",
			Name:      "model_requests_total",
			Help:      "Total number of chat and embedding requests",
		},
		[]string{"kind", "model", "status"},
	)

	ModelRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "chunkdex",
			Name:      "model_request_duration_seconds",
			Help:      "Model request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"kind", "model"},
	)

	ModelTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chunkdex",
			Name:      "model_tokens_total",
			Help:      "Total tokens consumed",
		},
		[]string{"kind", "model", "type"},
	)

	SanitizedRequestsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chunkdex",
			Name:      "sanitized_requests_total",
			Help:      "Outbound JSON requests rewritten to drop surrogate code points",
		},
	)
)

var modelMetricsRegistered bool

// RegisterModelMetrics registers model endpoint metrics. Must be called once from main.
func RegisterModelMetrics() {
	if modelMetricsRegistered {
		return
	}
	prometheus.MustRegister(ModelRequestsTotal)
	prometheus.MustRegister(ModelRequestDuration)
	prometheus.MustRegister(ModelTokensTotal)
	prometheus.MustRegister(SanitizedRequestsTotal)
	modelMetricsRegistered = true
}

package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search index Prometheus metrics.
var (
	IndexCreateTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chunkdex",
			Name:      "index_create_total",
			Help:      "Search index creation requests by outcome",
		},
		[]string{"kind", "result"}, // "created" / "exists" / "error"
	)

	IndexPollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chunkdex",
			Name:      "index_polls_total",
			Help:      "Readiness polls by outcome",
		},
		[]string{"collection", "outcome"}, // "pending" / "converged" / "error"
	)

	IndexPendingGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "chunkdex",
			Name:      "index_pending",
			Help:      "Indexes reported PENDING at the last poll",
		},
		[]string{"collection"},
	)
)

var indexMetricsRegistered bool

// RegisterIndexMetrics registers search index metrics. Must be called once from main.
func RegisterIndexMetrics() {
	if indexMetricsRegistered {
		return
	}
	prometheus.MustRegister(IndexCreateTotal)
	prometheus.MustRegister(IndexPollsTotal)
	prometheus.MustRegister(IndexPendingGauge)
	indexMetricsRegistered = true
}

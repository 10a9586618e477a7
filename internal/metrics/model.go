package metrics

import "github.com/prometheus/client_golang/prometheus"

// Model provider Prometheus metrics.
var (
	ModelRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragfleet",
			Name:      "model_requests_total",
			Help:      "Total number of model provider requests",
		},
		[]string{"operation", "model", "status"},
	)

	ModelRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ragfleet",
			Name:      "model_request_duration_seconds",
			Help:      "Model provider request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"operation", "model"},
	)

	ModelTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragfleet",
			Name:      "model_tokens_total",
			Help:      "Total model tokens consumed",
		},
		[]string{"operation", "model"},
	)
)

var modelMetricsRegistered bool

// RegisterModelMetrics registers model provider metrics. Must be called once from main.
func RegisterModelMetrics() {
	if modelMetricsRegistered {
		return
	}
	prometheus.MustRegister(ModelRequestsTotal)
	prometheus.MustRegister(ModelRequestDuration)
	prometheus.MustRegister(ModelTokensTotal)
	modelMetricsRegistered = true
}

package metrics

import "github.com/prometheus/client_golang/prometheus"

// Worker fleet and pipeline Prometheus metrics.
var (
	WorkersLive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ragfleet",
			Name:      "workers_live",
			Help:      "Number of live workers",
		},
	)

	WorkerSpawnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragfleet",
			Name:      "worker_spawns_total",
			Help:      "Total worker spawn attempts",
		},
		[]string{"status"},
	)

	IngestFilesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragfleet",
			Name:      "ingest_files_total",
			Help:      "Total files processed during ingestion",
		},
		[]string{"status"}, // indexed / failed / skipped
	)

	IngestChunksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ragfleet",
			Name:      "ingest_chunks_total",
			Help:      "Total chunks written to the index",
		},
	)

	IngestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ragfleet",
			Name:      "ingest_duration_seconds",
			Help:      "Archive ingestion duration in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragfleet",
			Name:      "queries_total",
			Help:      "Total retrieval queries",
		},
		[]string{"status"},
	)

	QueryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ragfleet",
			Name:      "query_duration_seconds",
			Help:      "End-to-end query duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
)

var workerMetricsRegistered bool

// RegisterWorkerMetrics registers fleet and pipeline metrics. Must be called once from main.
func RegisterWorkerMetrics() {
	if workerMetricsRegistered {
		return
	}
	prometheus.MustRegister(WorkersLive)
	prometheus.MustRegister(WorkerSpawnsTotal)
	prometheus.MustRegister(IngestFilesTotal)
	prometheus.MustRegister(IngestChunksTotal)
	prometheus.MustRegister(IngestDuration)
	prometheus.MustRegister(QueriesTotal)
	prometheus.MustRegister(QueryDuration)
	workerMetricsRegistered = true
}

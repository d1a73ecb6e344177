package metrics

import "github.com/prometheus/client_golang/prometheus"

// Indexing and answering pipeline metrics.
var (
	ModelRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "askdocs",
			Name:      "model_requests_total",
			Help:      "Total number of chat model requests",
		},
		[]string{"model", "status"},
	)

	ModelRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "askdocs",
			Name:      "model_request_duration_seconds",
			Help:      "Chat model request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"model"},
	)

	FilesIndexedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "askdocs",
			Name:      "files_indexed_total",
			Help:      "Files that finished indexing, by outcome",
		},
		[]string{"status"}, // "indexed" / "error"
	)

	ChunksIndexedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "askdocs",
			Name:      "chunks_indexed_total",
			Help:      "Total chunks written to the vector index",
		},
	)

	RoutingQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "askdocs",
			Name:      "routing_queries_total",
			Help:      "Routing queries by confidence tier",
		},
		[]string{"tier"},
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(ModelRequestsTotal)
	prometheus.MustRegister(ModelRequestDuration)
	prometheus.MustRegister(FilesIndexedTotal)
	prometheus.MustRegister(ChunksIndexedTotal)
	prometheus.MustRegister(RoutingQueriesTotal)
	pipelineMetricsRegistered = true
}

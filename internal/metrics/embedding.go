package metrics

import "github.com/prometheus/client_golang/prometheus"

// Embedding and retrieval Prometheus metrics.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jejuguide",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"provider", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jejuguide",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jejuguide",
			Name:      "embedding_tokens_total",
			Help:      "Total embedding tokens consumed",
		},
		[]string{"provider", "model", "type"},
	)

	EmbeddingErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jejuguide",
			Name:      "embedding_errors_total",
			Help:      "Total embedding errors",
		},
		[]string{"provider", "model", "error_type"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jejuguide",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	IndexerPlacesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jejuguide",
			Name:      "indexer_places_total",
			Help:      "Places processed by indexer runs, by outcome",
		},
		[]string{"outcome"}, // "embedded" / "skipped" / "failed"
	)

	IndexerRunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "jejuguide",
			Name:      "indexer_run_duration_seconds",
			Help:      "Duration of indexer batch runs",
			Buckets:   []float64{1, 5, 15, 60, 300, 900, 3600},
		},
	)

	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jejuguide",
			Name:      "search_requests_total",
			Help:      "Place search requests, by retrieval mode",
		},
		[]string{"mode"}, // "semantic" / "fallback" / "empty"
	)
)

var metricsRegistered bool

// RegisterMetrics registers all retrieval metrics. Must be called once from main.
func RegisterMetrics() {
	if metricsRegistered {
		return
	}
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	prometheus.MustRegister(EmbeddingTokensTotal)
	prometheus.MustRegister(EmbeddingErrorsTotal)
	prometheus.MustRegister(EmbeddingCacheTotal)
	prometheus.MustRegister(IndexerPlacesTotal)
	prometheus.MustRegister(IndexerRunDuration)
	prometheus.MustRegister(SearchRequestsTotal)
	metricsRegistered = true
}

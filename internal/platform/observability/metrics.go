package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Batch engine metrics
	BatchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scorer_batch_duration_seconds",
		Help:    "Duration of batch comparison calls",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
	}, []string{"dispatch"})

	PairsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scorer_pairs_processed_total",
		Help: "The total number of statement pairs scored",
	}, []string{"status"})

	WorkerCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scorer_worker_count",
		Help: "Worker count chosen for the most recent batch",
	})

	UniqueStatements = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scorer_unique_statements",
		Help:    "Number of unique statements encoded per batch",
		Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})

	EncoderCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scorer_encoder_calls_total",
		Help: "Encoder invocations issued by the embedding cache",
	}, []string{"kind"})

	MetricFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scorer_metric_failures_total",
		Help: "Similarity signals that degraded to zero",
	}, []string{"metric"})

	KeywordFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scorer_keyword_fallback_total",
		Help: "Keyword extractions served by the frequency fallback",
	})

	ReclaimRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scorer_reclaim_runs_total",
		Help: "Resource reclamation passes",
	}, []string{"trigger"})

	GPUFreeMemoryMB = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "scorer_gpu_free_memory_mb",
		Help: "Free accelerator memory reported by the last hardware query",
	}, []string{"device"})

	AnalyzerRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scorer_analyzer_requests_total",
		Help: "Linguistic analyzer requests",
	}, []string{"status"})

	OperationRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scorer_operation_requests_total",
		Help: "Host operations served by transport",
	}, []string{"transport", "operation", "status"})

	// Embedding metrics
	EmbeddingRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scorer_embedding_requests_total",
		Help: "Total number of embedding requests",
	}, []string{"provider", "model", "status"})

	EmbeddingTexts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scorer_embedding_texts_total",
		Help: "Total number of texts sent for embedding",
	}, []string{"provider", "model"})

	EmbeddingLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scorer_embedding_latency_seconds",
		Help:    "Latency of embedding requests by provider",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"provider", "model"})

	EmbeddingProviderAvailable = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "scorer_embedding_provider_available",
		Help: "Whether embedding provider is currently available (0=no, 1=yes)",
	}, []string{"provider"})

	EmbeddingFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scorer_embedding_fallbacks_total",
		Help: "Total number of embedding fallback events",
	}, []string{"from_provider", "to_provider"})
)

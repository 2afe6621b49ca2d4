package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "patentsearch"

const embeddingSubsystem = "embedding"

func embeddingCounter(name, help string, labels ...string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: embeddingSubsystem, Name: name, Help: help,
	}, labels)
}

// Provider-side metrics are labeled by provider and model so a model switch
// shows up as a new series.
var (
	EmbeddingRequestsTotal = embeddingCounter("requests_total",
		"Provider calls by final outcome (success or error)", "provider", "model", "status")
	EmbeddingErrorsTotal = embeddingCounter("errors_total",
		"Failed provider calls by failure class", "provider", "model", "error_type")
	EmbeddingRetriesTotal = embeddingCounter("retries_total",
		"Provider calls repeated after a transient failure", "provider", "model")
	EmbeddingTokensTotal = embeddingCounter("tokens_total",
		"Tokens billed by the provider", "provider", "model", "type")

	EmbeddingRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: embeddingSubsystem,
		Name:      "request_duration_seconds",
		Help:      "Latency of successful provider calls including retries",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
	}, []string{"provider", "model"})

	// EmbeddingCacheTotal is labeled hit, miss or bypass.
	EmbeddingCacheTotal = embeddingCounter("cache_total", "Query embedding cache lookups", "result")

	// EmbeddingInputTruncatedTotal counts patent or query texts cut to the embedding input budget.
	EmbeddingInputTruncatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: embeddingSubsystem,
		Name:      "input_truncated_total",
		Help:      "Embedding inputs truncated to the rune budget",
	})
)

var registerEmbedding sync.Once

// RegisterEmbeddingMetrics registers the embedding collectors. Safe to call from both binaries.
func RegisterEmbeddingMetrics() {
	registerEmbedding.Do(func() {
		prometheus.MustRegister(
			EmbeddingRequestsTotal,
			EmbeddingErrorsTotal,
			EmbeddingRetriesTotal,
			EmbeddingTokensTotal,
			EmbeddingRequestDuration,
			EmbeddingCacheTotal,
			EmbeddingInputTruncatedTotal,
		)
	})
}

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Search and indexing Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Total number of searches by requested mode",
		},
		[]string{"mode"},
	)

	SearchFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_fallbacks_total",
			Help:      "Searches degraded to keyword mode",
		},
		[]string{"mode", "reason"}, // reason: "empty" / "error" / "timeout"
	)

	SearchBranchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_branch_duration_seconds",
			Help:      "Duration of a single retrieval branch",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"branch"}, // "semantic" / "keyword"
	)

	IndexingRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "indexing_records_total",
			Help:      "Records processed by bulk indexing",
		},
		[]string{"outcome"}, // "indexed" / "skipped" / "error"
	)
)

var registerSearch sync.Once

// RegisterSearchMetrics registers search and indexing collectors.
func RegisterSearchMetrics() {
	registerSearch.Do(func() {
		prometheus.MustRegister(SearchRequestsTotal, SearchFallbacksTotal, SearchBranchDuration, IndexingRecordsTotal)
	})
}

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Search Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Search requests by operation and the mode that produced the results",
		},
		[]string{"operation", "mode"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Search duration in seconds, embedding calls included",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	SearchFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_fallback_total",
			Help:      "Semantic searches answered by keyword matching, by reason",
		},
		[]string{"reason"}, // "query_embedding" / "below_threshold"
	)

	SearchCandidatesSkippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_candidates_skipped_total",
			Help:      "Candidates dropped before scoring",
		},
		[]string{"reason"}, // "embedding" / "dimension" / "zero_norm"
	)

	SearchCandidatesScored = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_candidates_scored",
			Help:      "Number of candidates scored per semantic search",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		},
	)
)

var registerSearchOnce sync.Once

// RegisterSearchMetrics registers Prometheus search metrics. Safe to call more than once.
func RegisterSearchMetrics() {
	registerSearchOnce.Do(func() {
		prometheus.MustRegister(
			SearchRequestsTotal,
			SearchDuration,
			SearchFallbackTotal,
			SearchCandidatesSkippedTotal,
			SearchCandidatesScored,
		)
	})
}

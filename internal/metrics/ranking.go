package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval and ranking metrics.
var (
	CandidatesScoredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ranking_candidates_scored_total",
			Help:      "Candidate passages scored, by retrieval mode",
		},
		[]string{"mode"}, // "topk" / "bulk"
	)

	MalformedRecordsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ranking_malformed_records_total",
			Help:      "Stored passages whose embedding could not be decoded",
		},
	)

	DimensionMismatchTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ranking_dimension_mismatch_total",
			Help:      "Passages whose embedding length differs from the query vector",
		},
	)

	TopKFallbackTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ranking_topk_fallback_total",
			Help:      "Searches that fell back from native top-k to bulk retrieval",
		},
	)

	SearchResultsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results_returned",
			Help:      "Passages returned per search after thresholding",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 20, 50, 100},
		},
	)

	SearchStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_stage_duration_seconds",
			Help:      "Duration of each search pipeline stage",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"stage"}, // "embed" / "fetch" / "rank"
	)

	ContextDegradedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "context_degraded_total",
			Help:      "Context builds that fell back to the no-context marker after a search failure",
		},
		[]string{"reason"},
	)
)

var rankMetricsRegistered bool

// RegisterRankingMetrics registers retrieval metrics. Must be called once from main.
func RegisterRankingMetrics() {
	if rankMetricsRegistered {
		return
	}
	prometheus.MustRegister(
		CandidatesScoredTotal,
		MalformedRecordsTotal,
		DimensionMismatchTotal,
		TopKFallbackTotal,
		SearchResultsReturned,
		SearchStageDuration,
		ContextDegradedTotal,
	)
	rankMetricsRegistered = true
}

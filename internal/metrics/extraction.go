package metrics

import "github.com/prometheus/client_golang/prometheus"

// Entity extraction Prometheus metrics.
var (
	ExtractionRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_requests_total",
			Help:      "Total number of LLM entity extraction requests",
		},
		[]string{"provider", "model", "status"},
	)

	ExtractionRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extraction_request_duration_seconds",
			Help:      "LLM entity extraction duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider", "model"},
	)

	ExtractionTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_tokens_total",
			Help:      "Total LLM tokens consumed by entity extraction",
		},
		[]string{"provider", "model", "type"},
	)

	ExtractionErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_errors_total",
			Help:      "Total entity extraction errors",
		},
		[]string{"provider", "model", "error_type"},
	)

	ExtractionBudgetTokensRemaining = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "extraction_budget_tokens_remaining",
			Help:      "Remaining token budget",
		},
		[]string{"provider", "period"},
	)

	ExtractionCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_cache_total",
			Help:      "Entity cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	SkillRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skill_records_total",
			Help:      "Skill records processed by outcome",
		},
		[]string{"outcome"}, // "extracted" / "empty" / "fallback" / "skipped"
	)
)

var extractionMetricsRegistered bool

// RegisterExtractionMetrics registers entity extraction metrics. Must be called once from main.
func RegisterExtractionMetrics() {
	if extractionMetricsRegistered {
		return
	}
	prometheus.MustRegister(
		ExtractionRequestsTotal,
		ExtractionRequestDuration,
		ExtractionTokensTotal,
		ExtractionErrorsTotal,
		ExtractionBudgetTokensRemaining,
		ExtractionCacheTotal,
		SkillRecordsTotal,
	)
	extractionMetricsRegistered = true
}

// Package metrics exposes Prometheus instrumentation for the analysis
// pipeline. Collectors are process-global; the CLI serves them on an
// optional metrics listener.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	strategySelected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chronicle_strategy_selected_total",
			Help: "Total number of strategy selections",
		},
		[]string{"strategy"},
	)

	analysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chronicle_analysis_duration_seconds",
			Help:    "Document analysis duration in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"strategy"},
	)

	analysisFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chronicle_analysis_fallbacks_total",
			Help: "Total number of fallbacks to the legacy strategy",
		},
	)

	tokensSpent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chronicle_llm_tokens_total",
			Help: "Total LLM tokens spent on delegation",
		},
	)

	llmRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chronicle_llm_retries_total",
			Help: "Total number of LLM call retries",
		},
	)

	timelineEntries = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chronicle_timeline_entries",
			Help:    "Number of entries in produced timelines",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		},
		[]string{"strategy"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordStrategySelected records a strategy selection.
func RecordStrategySelected(strategy string) {
	strategySelected.WithLabelValues(strategy).Inc()
}

// RecordAnalysis records a completed analysis run.
func RecordAnalysis(strategy string, duration time.Duration, entries int) {
	analysisDuration.WithLabelValues(strategy).Observe(duration.Seconds())
	timelineEntries.WithLabelValues(strategy).Observe(float64(entries))
}

// RecordFallback records a fallback to the legacy strategy.
func RecordFallback() {
	analysisFallbacks.Inc()
}

// RecordTokens records LLM tokens spent.
func RecordTokens(n int) {
	if n > 0 {
		tokensSpent.Add(float64(n))
	}
}

// RecordLLMRetry records one LLM call retry.
func RecordLLMRetry() {
	llmRetries.Inc()
}

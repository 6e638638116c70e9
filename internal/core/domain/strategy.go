package domain

import (
	"time"
)

// Strategy identifies an execution strategy for a document.
type Strategy string

// Execution strategies. The selection is terminal: once chosen for a
// document, the strategy never switches mid-document.
const (
	// StrategyLegacy runs the local-heuristic pipeline only.
	StrategyLegacy Strategy = "legacy"

	// StrategyIntelligence runs the pipeline with LLM delegation and
	// richer per-stage metrics.
	StrategyIntelligence Strategy = "intelligence"

	// StrategyHybrid runs both pipelines concurrently and fuses the
	// results.
	StrategyHybrid Strategy = "hybrid"
)

// Valid reports whether s is a known strategy.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyLegacy, StrategyIntelligence, StrategyHybrid:
		return true
	}
	return false
}

// AnalysisMode is the user-facing cost/accuracy posture.
type AnalysisMode string

// Analysis modes, from cheapest to most thorough.
const (
	ModeFast     AnalysisMode = "fast"
	ModeBalanced AnalysisMode = "balanced"
	ModeThorough AnalysisMode = "thorough"
)

// DefaultStrategy maps a mode to the strategy used when the selector
// falls through all explicit rules.
func (m AnalysisMode) DefaultStrategy() Strategy {
	if m == ModeThorough {
		return StrategyIntelligence
	}
	return StrategyLegacy
}

// AnalysisConfig is the configuration surface consumed by the strategy
// selector and the temporal filter.
type AnalysisConfig struct {
	// Mode is the cost/accuracy posture.
	Mode AnalysisMode

	// IntelligenceEnabled gates all LLM-assisted behaviour. When false
	// the selector always chooses the legacy strategy.
	IntelligenceEnabled bool

	// HybridMode forces hybrid execution for every document.
	HybridMode bool

	// ForceStrategy, when set, overrides all selection logic.
	ForceStrategy Strategy

	// FallbackToLegacy reprocesses the document with the legacy
	// strategy when a non-legacy strategy fails.
	FallbackToLegacy bool

	// CostLimit is the document-level token budget. Zero means
	// unlimited.
	CostLimit int

	// AccuracyThreshold is the minimum acceptable quality score in
	// [0,1] used when consulting historical performance.
	AccuracyThreshold float64

	// HybridTimeout bounds the hybrid join. Zero means the default.
	HybridTimeout time.Duration

	// MaxConcurrency bounds parallel chunk processing. Zero means the
	// default.
	MaxConcurrency int

	// Filter holds the temporal filter options.
	Filter FilterOptions
}

// DefaultAnalysisConfig returns the balanced-mode defaults.
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		Mode:                ModeBalanced,
		IntelligenceEnabled: true,
		FallbackToLegacy:    true,
		AccuracyThreshold:   0.7,
		Filter: FilterOptions{
			IncludeBeforeReference: true,
		},
	}
}

// PerformanceMetrics captures the outcome of one analysis run.
type PerformanceMetrics struct {
	// Strategy is the strategy that produced these metrics.
	Strategy Strategy

	// Duration is the wall-clock time of the run.
	Duration time.Duration

	// TokenCost is the total LLM tokens spent. Zero for pure-legacy
	// runs.
	TokenCost int

	// QualityScore is the heuristic output quality estimate in [0,1].
	QualityScore float64

	// ConfidenceAvg is the mean confidence across timeline entries.
	ConfidenceAvg float64

	// ChunksProcessed and ChunksSkipped track budget cutoff behaviour.
	ChunksProcessed int
	ChunksSkipped   int

	// LLMCalls and LLMFailures track delegation activity.
	LLMCalls    int
	LLMFailures int

	// QualityImprovement is set for hybrid runs:
	// max(qualityIntel, qualityLegacy) - qualityLegacy.
	QualityImprovement float64

	// Stages holds per-stage metrics for intelligence runs.
	Stages []StageMetrics
}

// StageMetrics tracks one stage of the intelligence pipeline
// (raw -> events -> timeline).
type StageMetrics struct {
	Name     string
	Duration time.Duration
	Items    int
}

// PerformanceRecord is one rolling-history sample for a strategy.
type PerformanceRecord struct {
	Strategy     Strategy
	Duration     time.Duration
	TokenCost    int
	QualityScore float64
	RecordedAt   time.Time
}

// StrategyResult is the successful outcome of a document analysis.
type StrategyResult struct {
	// Strategy is the strategy that was actually executed. When a
	// fallback occurred this is StrategyLegacy.
	Strategy Strategy

	// Timeline is the final merged, sorted timeline.
	Timeline Timeline

	// Filter is the temporal partition of the timeline.
	Filter FilterResult

	// Metrics describes the run.
	Metrics PerformanceMetrics

	// Audit holds candidate events that never entered the timeline
	// (undated events and low-value leftovers).
	Audit []CandidateEvent
}

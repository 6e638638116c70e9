package services

import (
	"context"
	"strings"

	"github.com/vnexus-labs/chronicle/internal/core/domain"
	"github.com/vnexus-labs/chronicle/internal/core/ports/driven"
	"github.com/vnexus-labs/chronicle/internal/logger"
)

// Complexity and length thresholds for strategy selection.
const (
	complexityLow  = 0.3
	complexityHigh = 0.7
	shortDocRunes  = 5000
	longDocRunes   = 20000

	// historyAdvantage is the quality-score lead the intelligence
	// strategy must hold over legacy in the rolling history before the
	// selector prefers it on history alone.
	historyAdvantage = 0.1

	// minHistorySamples is the per-strategy sample count below which the
	// rolling history is considered too thin to consult.
	minHistorySamples = 5
)

// Complexity component weights. Each component is clamped to [0,1]
// before weighting, so the sum stays in [0,1].
const (
	lengthWeight     = 0.3
	keywordWeight    = 0.3
	dateNumberWeight = 0.2
	structuralWeight = 0.2
)

// medicalKeywords drive the keyword-density component of the
// complexity estimate.
var medicalKeywords = []string{
	"진단", "수술", "입원", "퇴원", "처방", "검사",
	"치료", "소견", "보험", "청구", "진료",
}

// StrategySelector chooses the execution strategy for a document from
// configuration, estimated complexity and rolling historical
// performance.
type StrategySelector struct {
	history driven.PerformanceHistory
	llm     driven.LLMService
}

// NewStrategySelector creates a selector. Both collaborators are
// optional: a nil history disables the historical branch, a nil LLM
// pins the selector to the legacy strategy.
func NewStrategySelector(history driven.PerformanceHistory, llm driven.LLMService) *StrategySelector {
	return &StrategySelector{history: history, llm: llm}
}

// Select chooses a strategy for the document. Selection is terminal:
// once chosen, the strategy never switches mid-document. The rules run
// in fixed order and the first applicable rule decides.
func (s *StrategySelector) Select(ctx context.Context, doc *domain.RawDocument, cfg domain.AnalysisConfig) domain.Strategy {
	if cfg.ForceStrategy.Valid() {
		logger.Debug("Strategy selection: forced to %s", cfg.ForceStrategy)
		return cfg.ForceStrategy
	}

	if !cfg.IntelligenceEnabled || s.llm == nil {
		logger.Debug("Strategy selection: intelligence unavailable, using legacy")
		return domain.StrategyLegacy
	}

	if cfg.HybridMode {
		logger.Debug("Strategy selection: hybrid mode configured")
		return domain.StrategyHybrid
	}

	length := len([]rune(doc.Text))
	complexity := EstimateComplexity(doc.Text)
	logger.Debug("Strategy selection: length=%d complexity=%.2f", length, complexity)

	if complexity < complexityLow && length < shortDocRunes {
		return domain.StrategyLegacy
	}
	if complexity > complexityHigh || length > longDocRunes {
		return domain.StrategyIntelligence
	}

	if s.intelligenceLeadsHistory(ctx, cfg.AccuracyThreshold) {
		logger.Debug("Strategy selection: history favours intelligence")
		return domain.StrategyIntelligence
	}

	return cfg.Mode.DefaultStrategy()
}

// intelligenceLeadsHistory consults the rolling performance history and
// reports whether it favours the intelligence strategy: either its mean
// quality score leads legacy's by more than the advantage threshold, or
// legacy's mean quality has dropped below the configured accuracy
// threshold while intelligence still meets it. The history is only
// trusted once both strategies have enough samples.
func (s *StrategySelector) intelligenceLeadsHistory(ctx context.Context, accuracyThreshold float64) bool {
	if s.history == nil {
		return false
	}

	intel, err := s.history.Recent(ctx, domain.StrategyIntelligence, driven.DefaultHistoryCapacity)
	if err != nil {
		logger.Warn("Strategy selection: intelligence history unavailable: %v", err)
		return false
	}
	legacy, err := s.history.Recent(ctx, domain.StrategyLegacy, driven.DefaultHistoryCapacity)
	if err != nil {
		logger.Warn("Strategy selection: legacy history unavailable: %v", err)
		return false
	}
	if len(intel) < minHistorySamples || len(legacy) < minHistorySamples {
		return false
	}

	intelMean := meanQuality(intel)
	legacyMean := meanQuality(legacy)

	if intelMean-legacyMean > historyAdvantage {
		return true
	}
	if accuracyThreshold > 0 && legacyMean < accuracyThreshold && intelMean >= accuracyThreshold {
		logger.Debug("Strategy selection: legacy quality %.2f below threshold %.2f", legacyMean, accuracyThreshold)
		return true
	}
	return false
}

func meanQuality(records []domain.PerformanceRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	var sum float64
	for _, r := range records {
		sum += r.QualityScore
	}
	return sum / float64(len(records))
}

// EstimateComplexity computes a deterministic [0,1] complexity estimate
// from text length, medical keyword density, date/number density and
// structural character density.
func EstimateComplexity(text string) float64 {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return 0
	}

	length := clampUnit(float64(n) / float64(longDocRunes))

	hits := 0
	for _, kw := range medicalKeywords {
		hits += strings.Count(text, kw)
	}
	// Keyword hits per thousand runes; five per thousand saturates.
	keyword := clampUnit(float64(hits) * 1000 / float64(n) / 5)

	digits := 0
	structural := 0
	for _, r := range runes {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '\n' || r == '\t' || r == '|' || r == ':' || r == '-' || r == '*':
			structural++
		}
	}
	// Digit-heavy text (dates, dosages, lab values) and table-like
	// structure both indicate documents worth the richer pipeline.
	dateNumber := clampUnit(float64(digits) / float64(n) * 5)
	structure := clampUnit(float64(structural) / float64(n) * 10)

	return length*lengthWeight +
		keyword*keywordWeight +
		dateNumber*dateNumberWeight +
		structure*structuralWeight
}

func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}

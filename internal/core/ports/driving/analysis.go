package driving

import (
	"context"

	"github.com/vnexus-labs/chronicle/internal/core/domain"
)

// AnalysisService runs the adaptive document intelligence pipeline.
type AnalysisService interface {
	// Analyze processes one document end to end: strategy selection,
	// chunking, extraction, tagging, merging and temporal filtering.
	// Returns a StrategyResult or a *domain.ServiceError.
	Analyze(ctx context.Context, doc *domain.RawDocument, cfg domain.AnalysisConfig) (*domain.StrategyResult, error)

	// SelectStrategy reports the strategy Analyze would choose for the
	// document without running it.
	SelectStrategy(ctx context.Context, doc *domain.RawDocument, cfg domain.AnalysisConfig) (domain.Strategy, error)
}

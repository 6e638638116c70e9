package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vnexus-labs/chronicle/internal/chunker"
	"github.com/vnexus-labs/chronicle/internal/core/domain"
	"github.com/vnexus-labs/chronicle/internal/core/ports/driven"
	"github.com/vnexus-labs/chronicle/internal/core/ports/driving"
	"github.com/vnexus-labs/chronicle/internal/extractor"
	"github.com/vnexus-labs/chronicle/internal/logger"
	"github.com/vnexus-labs/chronicle/internal/metrics"
	"github.com/vnexus-labs/chronicle/internal/tagger"
	"github.com/vnexus-labs/chronicle/internal/timeline"
)

// DefaultMaxConcurrency bounds parallel chunk extraction when the
// configuration does not set a limit.
const DefaultMaxConcurrency = 4

// DefaultHybridTimeout bounds the hybrid fan-out join when the
// configuration does not set one.
const DefaultHybridTimeout = 2 * time.Minute

// AnalysisService orchestrates the document pipeline: strategy
// selection, chunking, extraction, tagging, merging and filtering.
type AnalysisService struct {
	chunks   *chunker.Builder
	extract  *extractor.Extractor
	tags     *tagger.Tagger
	selector *StrategySelector
	llm      driven.LLMService
	history  driven.PerformanceHistory
}

var _ driving.AnalysisService = (*AnalysisService)(nil)

// AnalysisOption configures the analysis service.
type AnalysisOption func(*AnalysisService)

// WithLLM attaches the language model collaborator. Without it the
// service runs the legacy strategy only.
func WithLLM(llm driven.LLMService) AnalysisOption {
	return func(s *AnalysisService) {
		s.llm = llm
	}
}

// WithHistory attaches the rolling performance history consulted by
// the strategy selector.
func WithHistory(history driven.PerformanceHistory) AnalysisOption {
	return func(s *AnalysisService) {
		s.history = history
	}
}

// NewAnalysisService creates the orchestrator over the three pipeline
// stages. Separate instances of the stages are safe to share across
// concurrent pipelines.
func NewAnalysisService(cb *chunker.Builder, ex *extractor.Extractor, tg *tagger.Tagger, opts ...AnalysisOption) *AnalysisService {
	s := &AnalysisService{
		chunks:  cb,
		extract: ex,
		tags:    tg,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.selector = NewStrategySelector(s.history, s.llm)
	return s
}

// Analyze processes one document end to end.
func (s *AnalysisService) Analyze(ctx context.Context, doc *domain.RawDocument, cfg domain.AnalysisConfig) (*domain.StrategyResult, error) {
	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	strategy := s.selector.Select(ctx, doc, cfg)
	metrics.RecordStrategySelected(string(strategy))
	logger.Section(fmt.Sprintf("Analysis (%s)", strategy))

	outcome, err := s.run(ctx, strategy, doc, cfg)
	if err != nil && strategy != domain.StrategyLegacy && cfg.FallbackToLegacy {
		logger.Warn("%s strategy failed: %v (reprocessing with legacy)", strategy, err)
		metrics.RecordFallback()
		strategy = domain.StrategyLegacy
		outcome, err = s.runLegacy(ctx, doc, cfg)
	}
	if err != nil {
		return nil, &domain.ServiceError{
			Code:    domain.CodeStrategy,
			Message: fmt.Sprintf("%s strategy failed", strategy),
			Err:     err,
		}
	}

	if err := outcome.timeline.Validate(); err != nil {
		return nil, &domain.ServiceError{
			Code:    domain.CodeSchema,
			Message: "assembled timeline failed validation",
			Err:     err,
		}
	}

	filtered := timeline.Filter(outcome.timeline, cfg.Filter, doc.ReferenceDate)

	s.recordHistory(ctx, &outcome.metrics)
	metrics.RecordAnalysis(string(outcome.metrics.Strategy), outcome.metrics.Duration, outcome.timeline.Len())
	metrics.RecordTokens(outcome.metrics.TokenCost)

	logger.Info("Analysis complete: %s (%d retained, %d excluded)",
		outcome.timeline.String(), len(filtered.Retained), len(filtered.Excluded))

	return &domain.StrategyResult{
		Strategy: outcome.metrics.Strategy,
		Timeline: *outcome.timeline,
		Filter:   *filtered,
		Metrics:  outcome.metrics,
		Audit:    outcome.audit,
	}, nil
}

// SelectStrategy reports the strategy Analyze would choose without
// running the pipeline.
func (s *AnalysisService) SelectStrategy(ctx context.Context, doc *domain.RawDocument, cfg domain.AnalysisConfig) (domain.Strategy, error) {
	if err := validateDocument(doc); err != nil {
		return "", err
	}
	return s.selector.Select(ctx, doc, cfg), nil
}

func validateDocument(doc *domain.RawDocument) error {
	if doc == nil || (strings.TrimSpace(doc.Text) == "" && len(doc.Blocks) == 0) {
		return &domain.ServiceError{
			Code:    domain.CodeValidation,
			Message: "document has no text or blocks",
			Err:     domain.ErrInvalidDocument,
		}
	}
	return nil
}

func (s *AnalysisService) recordHistory(ctx context.Context, m *domain.PerformanceMetrics) {
	if s.history == nil {
		return
	}
	rec := domain.PerformanceRecord{
		Strategy:     m.Strategy,
		Duration:     m.Duration,
		TokenCost:    m.TokenCost,
		QualityScore: m.QualityScore,
		RecordedAt:   time.Now(),
	}
	if err := s.history.Append(ctx, rec); err != nil {
		logger.Warn("Performance history append failed: %v", err)
	}
}

// pipelineOutcome is the pre-filter result of one pipeline run. events
// holds the tagged candidate events the timeline was built from, which
// hybrid fusion re-merges.
type pipelineOutcome struct {
	events   []domain.CandidateEvent
	timeline *domain.Timeline
	audit    []domain.CandidateEvent
	metrics  domain.PerformanceMetrics
}

func (s *AnalysisService) run(ctx context.Context, strategy domain.Strategy, doc *domain.RawDocument, cfg domain.AnalysisConfig) (*pipelineOutcome, error) {
	switch strategy {
	case domain.StrategyIntelligence:
		return s.runIntelligence(ctx, doc, cfg)
	case domain.StrategyHybrid:
		return s.runHybrid(ctx, doc, cfg)
	default:
		return s.runLegacy(ctx, doc, cfg)
	}
}

// runLegacy executes the local-heuristic pipeline.
func (s *AnalysisService) runLegacy(ctx context.Context, doc *domain.RawDocument, cfg domain.AnalysisConfig) (*pipelineOutcome, error) {
	start := time.Now()

	var events []domain.CandidateEvent
	var stats extractStats
	if len(doc.Blocks) > 0 {
		events = s.extract.ExtractBlocks(doc.Blocks)
		stats.processed = len(doc.Blocks)
	} else {
		chunks := s.chunks.Build(doc)
		events, stats = s.extractChunks(ctx, chunks, cfg, false)
	}
	if err := ctx.Err(); err != nil && len(events) == 0 {
		return nil, fmt.Errorf("legacy pipeline: %w", err)
	}

	s.tags.TagAll(ctx, events)
	tl, undated := timeline.Build(events)

	m := domain.PerformanceMetrics{
		Strategy:        domain.StrategyLegacy,
		Duration:        time.Since(start),
		QualityScore:    computeQuality(tl, events),
		ConfidenceAvg:   confidenceAvg(tl),
		ChunksProcessed: stats.processed,
		ChunksSkipped:   stats.skipped,
	}
	return &pipelineOutcome{events: events, timeline: tl, audit: undated, metrics: m}, nil
}

// runIntelligence executes the pipeline with per-chunk LLM delegation
// and per-stage metrics: raw text to chunks, chunks to tagged events,
// events to timeline.
func (s *AnalysisService) runIntelligence(ctx context.Context, doc *domain.RawDocument, cfg domain.AnalysisConfig) (*pipelineOutcome, error) {
	start := time.Now()
	var stages []domain.StageMetrics

	stageStart := time.Now()
	var chunks []domain.Chunk
	if len(doc.Blocks) == 0 {
		chunks = s.chunks.Build(doc)
	}
	stages = append(stages, domain.StageMetrics{
		Name: "chunk", Duration: time.Since(stageStart), Items: len(chunks),
	})

	stageStart = time.Now()
	var events []domain.CandidateEvent
	var stats extractStats
	if len(doc.Blocks) > 0 {
		events = s.extract.ExtractBlocks(doc.Blocks)
		stats.processed = len(doc.Blocks)
	} else {
		events, stats = s.extractChunks(ctx, chunks, cfg, true)
	}
	if err := ctx.Err(); err != nil && len(events) == 0 {
		return nil, fmt.Errorf("intelligence pipeline: %w", err)
	}
	s.tags.TagAll(ctx, events)
	stages = append(stages, domain.StageMetrics{
		Name: "extract", Duration: time.Since(stageStart), Items: len(events),
	})

	stageStart = time.Now()
	tl, undated := timeline.Build(events)
	stages = append(stages, domain.StageMetrics{
		Name: "timeline", Duration: time.Since(stageStart), Items: tl.Len(),
	})

	m := domain.PerformanceMetrics{
		Strategy:        domain.StrategyIntelligence,
		Duration:        time.Since(start),
		TokenCost:       stats.tokens,
		QualityScore:    computeQuality(tl, events),
		ConfidenceAvg:   confidenceAvg(tl),
		ChunksProcessed: stats.processed,
		ChunksSkipped:   stats.skipped,
		LLMCalls:        stats.llmCalls,
		LLMFailures:     stats.llmFailures,
		Stages:          stages,
	}
	return &pipelineOutcome{events: events, timeline: tl, audit: undated, metrics: m}, nil
}

// runHybrid runs the legacy and intelligence pipelines concurrently
// under a bounded timeout and fuses their results. A branch failure
// degrades to the surviving branch instead of failing the document.
func (s *AnalysisService) runHybrid(ctx context.Context, doc *domain.RawDocument, cfg domain.AnalysisConfig) (*pipelineOutcome, error) {
	timeout := cfg.HybridTimeout
	if timeout <= 0 {
		timeout = DefaultHybridTimeout
	}
	hctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logger.Debug("Hybrid: running legacy and intelligence pipelines in parallel")

	var legacyOut, intelOut *pipelineOutcome
	var legacyErr, intelErr error

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		legacyOut, legacyErr = s.runLegacy(hctx, doc, cfg)
	}()

	go func() {
		defer wg.Done()
		intelOut, intelErr = s.runIntelligence(hctx, doc, cfg)
	}()

	wg.Wait()

	if legacyErr != nil && intelErr != nil {
		logger.Warn("Hybrid: both pipelines failed")
		return nil, fmt.Errorf("hybrid: legacy=%v, intelligence=%v: %w",
			legacyErr, intelErr, domain.ErrStrategyFailed)
	}

	if intelErr != nil {
		logger.Warn("Hybrid: intelligence pipeline failed, using legacy result only: %v", intelErr)
		legacyOut.metrics.Strategy = domain.StrategyHybrid
		return legacyOut, nil
	}

	if legacyErr != nil {
		logger.Warn("Hybrid: legacy pipeline failed, using intelligence result only: %v", legacyErr)
		intelOut.metrics.Strategy = domain.StrategyHybrid
		return intelOut, nil
	}

	logger.Debug("Hybrid: fusing %d legacy + %d intelligence events",
		len(legacyOut.events), len(intelOut.events))
	return fuseOutcomes(legacyOut, intelOut), nil
}

// fuseOutcomes merges the two hybrid branches. Events are matched by
// their (date, institution) key: a match raises confidence to the max
// of the pair, unions tags and marks the event as enhanced; unmatched
// intelligence events are appended. Both branches arrive tagged. The
// timeline is rebuilt from the fused event set so ordering and dedup
// invariants hold.
func fuseOutcomes(legacyOut, intelOut *pipelineOutcome) *pipelineOutcome {
	fused := make([]domain.CandidateEvent, len(legacyOut.events))
	copy(fused, legacyOut.events)

	byKey := make(map[string]int, len(fused))
	for i := range fused {
		if fused[i].HasDate() {
			byKey[fused[i].MergeKey()] = i
		}
	}

	for i := range intelOut.events {
		ev := intelOut.events[i]
		idx, ok := byKey[ev.MergeKey()]
		if ev.HasDate() && ok {
			target := &fused[idx]
			if ev.Confidence > target.Confidence {
				target.Confidence = ev.Confidence
			}
			for tag := range ev.Tags {
				target.AddTag(tag)
			}
			target.Enhanced = true
			continue
		}
		fused = append(fused, ev)
	}

	tl, undated := timeline.Build(fused)

	lm, im := &legacyOut.metrics, &intelOut.metrics
	quality := im.QualityScore
	if lm.QualityScore > quality {
		quality = lm.QualityScore
	}
	duration := lm.Duration
	if im.Duration > duration {
		duration = im.Duration
	}

	m := domain.PerformanceMetrics{
		Strategy:           domain.StrategyHybrid,
		Duration:           duration,
		TokenCost:          lm.TokenCost + im.TokenCost,
		QualityScore:       quality,
		ConfidenceAvg:      confidenceAvg(tl),
		ChunksProcessed:    lm.ChunksProcessed + im.ChunksProcessed,
		ChunksSkipped:      lm.ChunksSkipped + im.ChunksSkipped,
		LLMCalls:           lm.LLMCalls + im.LLMCalls,
		LLMFailures:        lm.LLMFailures + im.LLMFailures,
		QualityImprovement: quality - lm.QualityScore,
		Stages:             im.Stages,
	}
	return &pipelineOutcome{events: fused, timeline: tl, audit: undated, metrics: m}
}

// extractStats aggregates chunk-level extraction accounting.
type extractStats struct {
	processed   int
	skipped     int
	llmCalls    int
	llmFailures int
	tokens      int
}

// extractChunks runs extraction over chunks with a bounded worker
// pool. Chunks arrive priority-sorted from the builder, so dispatch
// order spends the token budget on high-value chunks first. When the
// budget runs out, remaining chunks are not dispatched but in-flight
// work completes (soft cutoff).
func (s *AnalysisService) extractChunks(ctx context.Context, chunks []domain.Chunk, cfg domain.AnalysisConfig, delegate bool) ([]domain.CandidateEvent, extractStats) {
	limit := cfg.MaxConcurrency
	if limit <= 0 {
		limit = DefaultMaxConcurrency
	}

	results := make([][]domain.CandidateEvent, len(chunks))
	var spent atomic.Int64

	var mu sync.Mutex
	var stats extractStats

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup

	for i := range chunks {
		// Acquire the slot before the budget check so spend reported by
		// finished workers is visible when the pool is saturated.
		sem <- struct{}{}

		if ctx.Err() != nil {
			<-sem
			stats.skipped += len(chunks) - i
			break
		}
		if delegate && cfg.CostLimit > 0 && int(spent.Load()) >= cfg.CostLimit {
			<-sem
			logger.Warn("Token budget exhausted after %d tokens: skipping %d remaining chunks",
				spent.Load(), len(chunks)-i)
			stats.skipped += len(chunks) - i
			break
		}

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			chunk := &chunks[i]
			events := s.extract.ExtractChunk(chunk)

			if delegate && s.llm != nil && s.extract.NeedsDelegation(chunk, events) {
				llmEvents, usage, err := s.extract.Delegate(ctx, s.llm, chunk)
				spent.Add(int64(usage.TotalTokens))

				mu.Lock()
				stats.llmCalls++
				if err != nil {
					stats.llmFailures++
				}
				mu.Unlock()

				if err != nil {
					// Degrade to the local events already extracted.
					logger.Warn("Chunk %d delegation failed: %v", chunk.Index, err)
				} else {
					events = append(events, llmEvents...)
				}
			}

			mu.Lock()
			results[i] = events
			stats.processed++
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	stats.tokens = int(spent.Load())

	var events []domain.CandidateEvent
	for _, r := range results {
		events = append(events, r...)
	}
	return events, stats
}

// computeQuality estimates output quality from the share of events that
// resolved a date and the mean timeline confidence.
func computeQuality(tl *domain.Timeline, events []domain.CandidateEvent) float64 {
	if len(events) == 0 {
		return 0
	}
	dated := 0
	for i := range events {
		if events[i].HasDate() {
			dated++
		}
	}
	ratio := float64(dated) / float64(len(events))
	return clampUnit(0.5*ratio + 0.5*confidenceAvg(tl))
}

func confidenceAvg(tl *domain.Timeline) float64 {
	if tl.Len() == 0 {
		return 0
	}
	var sum float64
	for i := range tl.Entries {
		sum += tl.Entries[i].Confidence
	}
	return sum / float64(tl.Len())
}

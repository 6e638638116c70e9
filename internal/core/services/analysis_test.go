package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnexus-labs/chronicle/internal/chunker"
	"github.com/vnexus-labs/chronicle/internal/core/domain"
	"github.com/vnexus-labs/chronicle/internal/core/ports/driven"
	"github.com/vnexus-labs/chronicle/internal/extractor"
	"github.com/vnexus-labs/chronicle/internal/tagger"
	"github.com/vnexus-labs/chronicle/internal/timeline"
)

// fakeLLM implements driven.LLMService with a canned reply.
type fakeLLM struct {
	mu    sync.Mutex
	reply string
	usage driven.TokenUsage
	err   error
	calls int
}

func (f *fakeLLM) Chat(_ context.Context, _ []driven.ChatMessage, _ driven.ChatOptions) (*driven.ChatResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &driven.ChatResult{Content: f.reply, Model: "fake", Usage: f.usage}, nil
}

func (f *fakeLLM) ModelName() string            { return "fake" }
func (f *fakeLLM) Ping(_ context.Context) error { return nil }
func (f *fakeLLM) Close() error                 { return nil }

// fakeHistory implements driven.PerformanceHistory in memory.
type fakeHistory struct {
	mu      sync.Mutex
	records map[domain.Strategy][]domain.PerformanceRecord
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{records: make(map[domain.Strategy][]domain.PerformanceRecord)}
}

func (f *fakeHistory) add(s domain.Strategy, quality float64) {
	f.records[s] = append(f.records[s], domain.PerformanceRecord{Strategy: s, QualityScore: quality})
}

func (f *fakeHistory) Append(_ context.Context, r domain.PerformanceRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[r.Strategy] = append(f.records[r.Strategy], r)
	return nil
}

func (f *fakeHistory) Recent(_ context.Context, s domain.Strategy, limit int) ([]domain.PerformanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	recs := f.records[s]
	if len(recs) > limit {
		recs = recs[len(recs)-limit:]
	}
	return append([]domain.PerformanceRecord(nil), recs...), nil
}

func (f *fakeHistory) Count(_ context.Context, s domain.Strategy) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records[s]), nil
}

func newService(opts ...AnalysisOption) *AnalysisService {
	return NewAnalysisService(chunker.New(), extractor.New(), tagger.New(nil), opts...)
}

func TestAnalyze_RejectsEmptyDocument(t *testing.T) {
	svc := newService()

	_, err := svc.Analyze(context.Background(), &domain.RawDocument{}, domain.DefaultAnalysisConfig())
	require.Error(t, err)

	var serr *domain.ServiceError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, domain.CodeValidation, serr.Code)
	assert.ErrorIs(t, err, domain.ErrInvalidDocument)
}

func TestAnalyze_LegacyMergesSameDayEvents(t *testing.T) {
	svc := newService(WithHistory(newFakeHistory()))

	doc := &domain.RawDocument{
		Text: "2023-06-15 서울아산병원 X선 촬영\n2023-06-15 서울아산병원 추적 관찰",
	}

	res, err := svc.Analyze(context.Background(), doc, domain.DefaultAnalysisConfig())
	require.NoError(t, err)

	assert.Equal(t, domain.StrategyLegacy, res.Strategy)
	require.Equal(t, 1, res.Timeline.Len())

	entry := res.Timeline.Entries[0]
	assert.Equal(t, 2, entry.MergedCount)
	assert.Contains(t, entry.RawText, "X선 촬영")
	assert.Contains(t, entry.RawText, "추적 관찰")
	assert.Equal(t, "서울아산병원", entry.Institution)

	require.Len(t, res.Filter.Retained, 1)
	assert.Zero(t, res.Metrics.TokenCost)
}

func TestAnalyze_BlocksCarryPageIndices(t *testing.T) {
	svc := newService()

	doc := &domain.RawDocument{
		Blocks: []domain.TextBlock{
			{Text: "2023-06-15 삼성서울병원 입원", PageIndex: 2, Confidence: 0.9},
		},
	}

	res, err := svc.Analyze(context.Background(), doc, domain.DefaultAnalysisConfig())
	require.NoError(t, err)
	require.Equal(t, 1, res.Timeline.Len())
	assert.Equal(t, []int{2}, res.Timeline.Entries[0].PageIndices)
	assert.True(t, res.Timeline.Entries[0].HasTag("admission"))
}

func TestAnalyze_IntelligenceDelegatesAmbiguousChunks(t *testing.T) {
	llm := &fakeLLM{
		reply: `[{"date": "2023-05-10", "institution": "서울아산병원", "description": "위암 수술", "confidence": 0.9}]`,
		usage: driven.TokenUsage{PromptTokens: 150, CompletionTokens: 50, TotalTokens: 200},
	}
	svc := newService(WithLLM(llm))

	// High-relevance text (significant code, keyword hits) with no
	// parseable dates: local extraction is weak, so the chunk delegates.
	doc := &domain.RawDocument{Text: "위암 C16.9 진단 확진\n수술 예정 입원 안내"}

	cfg := domain.DefaultAnalysisConfig()
	cfg.ForceStrategy = domain.StrategyIntelligence

	res, err := svc.Analyze(context.Background(), doc, cfg)
	require.NoError(t, err)

	assert.Equal(t, domain.StrategyIntelligence, res.Strategy)
	assert.Equal(t, 1, res.Metrics.LLMCalls)
	assert.Zero(t, res.Metrics.LLMFailures)
	assert.Equal(t, 200, res.Metrics.TokenCost)
	require.Len(t, res.Metrics.Stages, 3)

	require.Equal(t, 1, res.Timeline.Len())
	entry := res.Timeline.Entries[0]
	assert.Equal(t, "2023-05-10", domain.FormatDate(entry.Date))
	assert.Equal(t, "llm", entry.Source)

	// The undated local event survives in the audit trail.
	assert.NotEmpty(t, res.Audit)
}

func TestAnalyze_DelegationFailureDegradesToLocal(t *testing.T) {
	llm := &fakeLLM{err: errors.New("boom")}
	svc := newService(WithLLM(llm))

	doc := &domain.RawDocument{Text: "위암 C16.9 진단 확진\n수술 예정 입원 안내"}
	cfg := domain.DefaultAnalysisConfig()
	cfg.ForceStrategy = domain.StrategyIntelligence

	res, err := svc.Analyze(context.Background(), doc, cfg)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Metrics.LLMCalls)
	assert.Equal(t, 1, res.Metrics.LLMFailures)
	// No dated events at all: everything lands in the audit trail.
	assert.Zero(t, res.Timeline.Len())
	assert.NotEmpty(t, res.Audit)
}

func TestAnalyze_CostBudgetSoftCutoff(t *testing.T) {
	llm := &fakeLLM{
		reply: `[]`,
		usage: driven.TokenUsage{TotalTokens: 100},
	}
	// Tiny chunks so the document splits into at least two.
	svc := NewAnalysisService(
		chunker.New(chunker.WithMaxTokens(8)),
		extractor.New(),
		tagger.New(nil),
		WithLLM(llm),
	)

	doc := &domain.RawDocument{
		Text: "위암 C16.9 진단 확진 수술 입원\n\n위암 C16.9 진단 확진 수술 입원",
	}

	cfg := domain.DefaultAnalysisConfig()
	cfg.ForceStrategy = domain.StrategyIntelligence
	cfg.CostLimit = 50
	cfg.MaxConcurrency = 1

	res, err := svc.Analyze(context.Background(), doc, cfg)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Metrics.LLMCalls)
	assert.Equal(t, 1, res.Metrics.ChunksProcessed)
	assert.Equal(t, 1, res.Metrics.ChunksSkipped)
	assert.Equal(t, 100, res.Metrics.TokenCost)
}

func TestAnalyze_RecordsHistory(t *testing.T) {
	hist := newFakeHistory()
	svc := newService(WithHistory(hist))

	doc := &domain.RawDocument{Text: "2023-06-15 서울아산병원 외래"}
	_, err := svc.Analyze(context.Background(), doc, domain.DefaultAnalysisConfig())
	require.NoError(t, err)

	n, err := hist.Count(context.Background(), domain.StrategyLegacy)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAnalyze_CancelledContextSurfacesStrategyError(t *testing.T) {
	svc := newService(WithLLM(&fakeLLM{reply: `[]`}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := domain.DefaultAnalysisConfig()
	cfg.ForceStrategy = domain.StrategyIntelligence
	cfg.FallbackToLegacy = false

	_, err := svc.Analyze(ctx, &domain.RawDocument{Text: "2023-06-15 외래"}, cfg)
	require.Error(t, err)

	var serr *domain.ServiceError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, domain.CodeStrategy, serr.Code)
}

func TestSelectStrategy_DoesNotRunPipeline(t *testing.T) {
	svc := newService()

	got, err := svc.SelectStrategy(context.Background(), &domain.RawDocument{Text: "2023-06-15 외래"}, domain.DefaultAnalysisConfig())
	require.NoError(t, err)
	assert.Equal(t, domain.StrategyLegacy, got)
}

func TestFuseOutcomes(t *testing.T) {
	d1 := time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC)

	lev := domain.CandidateEvent{ID: "l1", Date: d1, Institution: "서울아산병원", RawText: "외래", Confidence: 0.6, Source: "local"}
	lev.AddTag("follow_up")
	ltl, _ := timeline.Build([]domain.CandidateEvent{lev})
	legacyOut := &pipelineOutcome{
		events:   []domain.CandidateEvent{lev},
		timeline: ltl,
		metrics: domain.PerformanceMetrics{
			Strategy: domain.StrategyLegacy, Duration: 100 * time.Millisecond,
			QualityScore: 0.5, ChunksProcessed: 2,
		},
	}

	iev1 := domain.CandidateEvent{ID: "i1", Date: d1, Institution: "서울아산병원", RawText: "외래 상세", Confidence: 0.9, Source: "llm"}
	iev1.AddTag("surgery")
	iev2 := domain.CandidateEvent{ID: "i2", Date: d2, Institution: "세브란스병원", RawText: "검사", Confidence: 0.8, Source: "llm"}
	itl, _ := timeline.Build([]domain.CandidateEvent{iev1, iev2})
	intelOut := &pipelineOutcome{
		events:   []domain.CandidateEvent{iev1, iev2},
		timeline: itl,
		metrics: domain.PerformanceMetrics{
			Strategy: domain.StrategyIntelligence, Duration: 250 * time.Millisecond,
			QualityScore: 0.8, TokenCost: 300, LLMCalls: 2, ChunksProcessed: 2,
		},
	}

	fused := fuseOutcomes(legacyOut, intelOut)

	assert.Equal(t, domain.StrategyHybrid, fused.metrics.Strategy)
	assert.Equal(t, 300, fused.metrics.TokenCost)
	assert.Equal(t, 250*time.Millisecond, fused.metrics.Duration)
	assert.InDelta(t, 0.3, fused.metrics.QualityImprovement, 1e-9)

	require.Equal(t, 2, fused.timeline.Len())

	matched := fused.timeline.Entries[0]
	assert.Equal(t, 0.9, matched.Confidence)
	assert.True(t, matched.HasTag("follow_up"))
	assert.True(t, matched.HasTag("surgery"))
	assert.True(t, matched.Enhanced)

	appended := fused.timeline.Entries[1]
	assert.Equal(t, "세브란스병원", appended.Institution)
	require.NoError(t, fused.timeline.Validate())
}

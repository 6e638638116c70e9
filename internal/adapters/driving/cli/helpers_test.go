package cli

import (
	"context"
	"time"

	"github.com/vnexus-labs/chronicle/internal/core/domain"
)

// mockAnalysisService returns canned results.
type mockAnalysisService struct {
	result   *domain.StrategyResult
	strategy domain.Strategy
	err      error

	lastCfg domain.AnalysisConfig
}

func (m *mockAnalysisService) Analyze(_ context.Context, _ *domain.RawDocument, cfg domain.AnalysisConfig) (*domain.StrategyResult, error) {
	m.lastCfg = cfg
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockAnalysisService) SelectStrategy(_ context.Context, _ *domain.RawDocument, cfg domain.AnalysisConfig) (domain.Strategy, error) {
	m.lastCfg = cfg
	if m.err != nil {
		return "", m.err
	}
	return m.strategy, nil
}

// mockSource returns a canned document for any path.
type mockSource struct {
	doc *domain.RawDocument
	err error
}

func (m *mockSource) Load(_ context.Context, _ string) (*domain.RawDocument, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.doc, nil
}

// mockHistory serves canned performance records.
type mockHistory struct {
	records map[domain.Strategy][]domain.PerformanceRecord
}

func (m *mockHistory) Append(_ context.Context, r domain.PerformanceRecord) error {
	if m.records == nil {
		m.records = make(map[domain.Strategy][]domain.PerformanceRecord)
	}
	m.records[r.Strategy] = append(m.records[r.Strategy], r)
	return nil
}

func (m *mockHistory) Recent(_ context.Context, s domain.Strategy, limit int) ([]domain.PerformanceRecord, error) {
	recs := m.records[s]
	if len(recs) > limit {
		recs = recs[len(recs)-limit:]
	}
	return recs, nil
}

func (m *mockHistory) Count(_ context.Context, s domain.Strategy) (int, error) {
	return len(m.records[s]), nil
}

// mockCodeStore is an in-memory disease code index.
type mockCodeStore struct {
	codes map[string]domain.DiseaseCode
}

func newMockCodeStore() *mockCodeStore {
	return &mockCodeStore{codes: make(map[string]domain.DiseaseCode)}
}

func (m *mockCodeStore) Get(_ context.Context, code string) (*domain.DiseaseCode, error) {
	entry, ok := m.codes[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if entry.Deprecated && entry.ReplacedBy != "" {
		if repl, ok := m.codes[entry.ReplacedBy]; ok {
			return &repl, nil
		}
	}
	return &entry, nil
}

func (m *mockCodeStore) Put(_ context.Context, code domain.DiseaseCode) error {
	m.codes[code.Code] = code
	return nil
}

func (m *mockCodeStore) Count(_ context.Context) (int, error) {
	return len(m.codes), nil
}

// mockConfigStore is an in-memory config store.
type mockConfigStore struct {
	data map[string]any
}

func newMockConfigStore() *mockConfigStore {
	return &mockConfigStore{data: make(map[string]any)}
}

func (m *mockConfigStore) Get(key string) (any, bool) {
	v, ok := m.data[key]
	return v, ok
}

func (m *mockConfigStore) GetString(key string) string {
	s, _ := m.data[key].(string)
	return s
}

func (m *mockConfigStore) GetInt(key string) int {
	switch v := m.data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}

func (m *mockConfigStore) GetBool(key string) bool {
	b, _ := m.data[key].(bool)
	return b
}

func (m *mockConfigStore) GetFloat(key string) float64 {
	f, _ := m.data[key].(float64)
	return f
}

func (m *mockConfigStore) GetStringSlice(key string) []string {
	s, _ := m.data[key].([]string)
	return s
}

func (m *mockConfigStore) Set(key string, value any) error {
	m.data[key] = value
	return nil
}

func (m *mockConfigStore) Save() error { return nil }
func (m *mockConfigStore) Load() error { return nil }
func (m *mockConfigStore) Path() string {
	return "/tmp/chronicle-test/config.toml"
}

// sampleResult builds a small two-entry result for output tests.
func sampleResult() *domain.StrategyResult {
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	entry1 := domain.TimelineEntry{
		CandidateEvent: domain.CandidateEvent{
			Date:        day(2023, 6, 15),
			RawText:     "위내시경 검사 시행",
			Institution: "서울아산병원",
			Confidence:  0.8,
			Tags:        map[string]bool{"surgery": true},
		},
		MergedCount: 2,
		Sources:     make([]domain.CandidateEvent, 2),
	}
	entry2 := domain.TimelineEntry{
		CandidateEvent: domain.CandidateEvent{
			Date:        day(2023, 7, 1),
			RawText:     "추적 관찰",
			Institution: "서울아산병원",
			Confidence:  0.6,
		},
		MergedCount: 1,
		Sources:     make([]domain.CandidateEvent, 1),
	}

	tl := domain.Timeline{
		Entries:      []domain.TimelineEntry{entry1, entry2},
		StartDate:    entry1.Date,
		EndDate:      entry2.Date,
		Institutions: map[string]bool{"서울아산병원": true},
		Tags:         map[string]bool{"surgery": true},
	}

	return &domain.StrategyResult{
		Strategy: domain.StrategyLegacy,
		Timeline: tl,
		Filter: domain.FilterResult{
			Retained: tl.Entries,
		},
		Metrics: domain.PerformanceMetrics{
			Strategy: domain.StrategyLegacy,
			Duration: 120 * time.Millisecond,
		},
		Audit: []domain.CandidateEvent{
			{RawText: "경과 양호함", Source: "local"},
		},
	}
}

// setupTestServices swaps in mocks and returns a cleanup restoring the
// previous services.
func setupTestServices() func() {
	oldAnalysis := analysisService
	oldSource := documentSource
	oldHistory := historyStore
	oldConfig := configStore
	oldCodes := codeStore
	oldBase := baseConfig

	analysisService = &mockAnalysisService{
		result:   sampleResult(),
		strategy: domain.StrategyLegacy,
	}
	documentSource = &mockSource{doc: &domain.RawDocument{Text: "2023-06-15 검사"}}
	historyStore = &mockHistory{}
	configStore = newMockConfigStore()
	codeStore = newMockCodeStore()
	baseConfig = domain.DefaultAnalysisConfig()

	return func() {
		analysisService = oldAnalysis
		documentSource = oldSource
		historyStore = oldHistory
		configStore = oldConfig
		codeStore = oldCodes
		baseConfig = oldBase
	}
}

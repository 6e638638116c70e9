package extractor

import (
	"testing"
	"time"

	"github.com/vnexus-labs/chronicle/internal/core/domain"
)

var testNow = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

func TestExtractor_ExtractChunk_DateLines(t *testing.T) {
	e := New(WithClock(testClock))

	chunk := &domain.Chunk{
		Index: 0,
		Text: "2023-06-15 서울아산병원 외래\n" +
			"흉부 X선 촬영 시행\n" +
			"특이소견 없음\n" +
			"2023-07-01 추적 검사\n" +
			"혈액검사 정상",
	}

	events := e.ExtractChunk(chunk)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	first := events[0]
	if domain.FormatDate(first.Date) != "2023-06-15" {
		t.Errorf("expected date 2023-06-15, got %s", domain.FormatDate(first.Date))
	}
	if first.Institution != "서울아산병원" {
		t.Errorf("expected institution 서울아산병원, got %q", first.Institution)
	}
	// Subsequent lines until the next date line are appended.
	if want := "2023-06-15 서울아산병원 외래\n흉부 X선 촬영 시행\n특이소견 없음"; first.RawText != want {
		t.Errorf("unexpected raw text:\n%q", first.RawText)
	}

	second := events[1]
	if domain.FormatDate(second.Date) != "2023-07-01" {
		t.Errorf("expected date 2023-07-01, got %s", domain.FormatDate(second.Date))
	}
	if second.RawText != "2023-07-01 추적 검사\n혈액검사 정상" {
		t.Errorf("unexpected raw text: %q", second.RawText)
	}
}

func TestExtractor_ExtractChunk_InvalidDateKeptForAudit(t *testing.T) {
	e := New(WithClock(testClock))

	chunk := &domain.Chunk{Text: "2023-02-30 가공의 날짜 기록"}

	events := e.ExtractChunk(chunk)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].HasDate() {
		t.Error("expected undated event for a non-existent calendar date")
	}
	if events[0].RawText == "" {
		t.Error("expected raw text preserved for audit")
	}
}

func TestExtractor_ExtractChunk_NoDates(t *testing.T) {
	e := New(WithClock(testClock))

	chunk := &domain.Chunk{Text: "날짜가 전혀 없는 소견 기록"}

	events := e.ExtractChunk(chunk)
	if len(events) != 1 {
		t.Fatalf("expected 1 audit event, got %d", len(events))
	}
	if events[0].HasDate() {
		t.Error("expected undated audit event")
	}
}

func TestExtractor_ExtractChunk_InstitutionFallback(t *testing.T) {
	e := New(WithClock(testClock))

	chunk := &domain.Chunk{
		Text:         "2023-06-15 외래 진료 기록",
		Institutions: []string{"세브란스병원"},
	}

	events := e.ExtractChunk(chunk)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Institution != "세브란스병원" {
		t.Errorf("expected chunk-level institution fallback, got %q", events[0].Institution)
	}
}

func TestExtractor_ExtractBlocks(t *testing.T) {
	e := New(WithClock(testClock))

	blocks := []domain.TextBlock{
		{Text: "2023-06-15 삼성서울병원 입원", PageIndex: 3, Confidence: 0.8},
		{Text: "2023-06-20 퇴원", PageIndex: 4, Confidence: 1.0},
	}

	events := e.ExtractBlocks(blocks)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	if got := events[0].PageIndices; len(got) != 1 || got[0] != 3 {
		t.Errorf("expected page index [3], got %v", got)
	}

	// Confidence of the first event is scaled by OCR confidence 0.8,
	// so with identical content it must be lower than an unscaled one.
	full := baseConfidence + institutionConfidence + bodyConfidence
	if want := full * 0.8; events[0].Confidence != want {
		t.Errorf("expected scaled confidence %v, got %v", want, events[0].Confidence)
	}
}

func TestExtractor_NeedsDelegation(t *testing.T) {
	e := New(WithClock(testClock))

	high := &domain.Chunk{Priority: domain.PriorityHigh}
	low := &domain.Chunk{Priority: domain.PriorityLow}

	confident := []domain.CandidateEvent{{Date: testNow.AddDate(-1, 0, 0), Confidence: 0.9}}
	weak := []domain.CandidateEvent{{Date: testNow.AddDate(-1, 0, 0), Confidence: 0.3}}

	if !e.NeedsDelegation(high, nil) {
		t.Error("high chunk without events should be delegated")
	}
	if !e.NeedsDelegation(high, weak) {
		t.Error("high chunk with weak events should be delegated")
	}
	if e.NeedsDelegation(high, confident) {
		t.Error("high chunk with confident events should not be delegated")
	}
	if e.NeedsDelegation(low, nil) {
		t.Error("low chunk is never delegated")
	}
}

func TestMatchInstitution_Order(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"curated list wins", "서울대학교병원 내과 외래", "서울대학교병원"},
		{"hospital suffix", "한빛정형외과의원 방문", "한빛정형외과의원"},
		{"clinic suffix", "미래클리닉 상담", "미래클리닉"},
		{"insurer suffix", "현대해상 보험금 청구", "현대해상"},
		{"no match", "자택에서 요양", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchInstitution(tt.input); got != tt.want {
				t.Errorf("MatchInstitution(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFindInstitutions_Distinct(t *testing.T) {
	text := "서울아산병원 진료 후 서울아산병원 재방문, 이어서 KB손해보험 청구"
	got := FindInstitutions(text)
	if len(got) != 2 {
		t.Fatalf("expected 2 distinct institutions, got %v", got)
	}
	if got[0] != "서울아산병원" {
		t.Errorf("expected 서울아산병원 first, got %v", got)
	}
}

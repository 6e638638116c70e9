package extractor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnexus-labs/chronicle/internal/core/domain"
	"github.com/vnexus-labs/chronicle/internal/core/ports/driven"
)

// mockLLM implements driven.LLMService for delegation tests.
type mockLLM struct {
	reply string
	usage driven.TokenUsage
	err   error
	calls int
}

func (m *mockLLM) Chat(_ context.Context, _ []driven.ChatMessage, _ driven.ChatOptions) (*driven.ChatResult, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &driven.ChatResult{Content: m.reply, Model: "mock", Usage: m.usage}, nil
}

func (m *mockLLM) ModelName() string         { return "mock" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error              { return nil }

func TestExtractor_Delegate(t *testing.T) {
	e := New(WithClock(testClock))
	llm := &mockLLM{
		reply: `[
			{"date": "2023-06-15", "institution": "City Hospital", "description": "X-ray", "confidence": 0.85},
			{"date": "not-a-date", "institution": "", "description": "dropped", "confidence": 0.9},
			{"date": "2023-07-01", "institution": "", "description": "follow-up", "confidence": 0}
		]`,
		usage: driven.TokenUsage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150},
	}

	chunk := &domain.Chunk{Index: 1, Text: "some ambiguous text"}
	events, usage, err := e.Delegate(context.Background(), llm, chunk)
	require.NoError(t, err)
	assert.Equal(t, 150, usage.TotalTokens)
	require.Len(t, events, 2)

	assert.Equal(t, "2023-06-15", domain.FormatDate(events[0].Date))
	assert.Equal(t, "City Hospital", events[0].Institution)
	assert.Equal(t, 0.85, events[0].Confidence)
	assert.Equal(t, "llm", events[0].Source)

	// Out-of-range provider confidence falls back to 0.5.
	assert.Equal(t, 0.5, events[1].Confidence)
}

func TestExtractor_Delegate_CodeFencedReply(t *testing.T) {
	e := New(WithClock(testClock))
	llm := &mockLLM{
		reply: "```json\n[{\"date\": \"2023-06-15\", \"institution\": \"\", \"description\": \"visit\", \"confidence\": 0.7}]\n```",
	}

	events, _, err := e.Delegate(context.Background(), llm, &domain.Chunk{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "visit", events[0].RawText)
}

func TestExtractor_Delegate_MalformedReply(t *testing.T) {
	e := New(WithClock(testClock))
	llm := &mockLLM{
		reply: "I could not find any events in this text.",
		usage: driven.TokenUsage{TotalTokens: 42},
	}

	// A malformed reply is not an error: the chunk keeps its local
	// events, but the spent tokens are still accounted.
	events, usage, err := e.Delegate(context.Background(), llm, &domain.Chunk{})
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Equal(t, 42, usage.TotalTokens)
}

func TestExtractor_Delegate_ServiceError(t *testing.T) {
	e := New(WithClock(testClock))
	llm := &mockLLM{err: errors.New("connection refused")}

	_, _, err := e.Delegate(context.Background(), llm, &domain.Chunk{Index: 3})
	require.Error(t, err)
}

func TestExtractor_Delegate_NilService(t *testing.T) {
	e := New(WithClock(testClock))

	_, _, err := e.Delegate(context.Background(), nil, &domain.Chunk{})
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `[]`, stripCodeFence("```json\n[]\n```"))
	assert.Equal(t, `[]`, stripCodeFence("```\n[]\n```"))
	assert.Equal(t, `[]`, stripCodeFence("[]"))
}

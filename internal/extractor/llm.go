package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/vnexus-labs/chronicle/internal/core/domain"
	"github.com/vnexus-labs/chronicle/internal/core/ports/driven"
	"github.com/vnexus-labs/chronicle/internal/logger"
)

// extractionSystemPrompt instructs the model to return a bare JSON
// array of events.
const extractionSystemPrompt = `You are a medical records analyst. Extract every dated medical event from the text.
Return ONLY a JSON array, no prose. Each element:
{"date": "YYYY-MM-DD", "institution": "name or empty", "description": "what happened", "confidence": 0.0-1.0}
Skip events whose date cannot be determined.`

// llmEvent is the wire shape of one event in the model reply.
type llmEvent struct {
	Date        string  `json:"date"`
	Institution string  `json:"institution"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
}

// Delegate forwards a chunk to the LLM collaborator and merges its
// structured reply into candidate events with provider-reported
// confidence. The returned usage feeds the document cost budget.
func (e *Extractor) Delegate(
	ctx context.Context,
	llm driven.LLMService,
	chunk *domain.Chunk,
) ([]domain.CandidateEvent, driven.TokenUsage, error) {
	if llm == nil {
		return nil, driven.TokenUsage{}, domain.ErrLLMUnavailable
	}

	messages := []driven.ChatMessage{
		{Role: "system", Content: e.systemPrompt()},
		{Role: "user", Content: chunk.Text},
	}

	result, err := llm.Chat(ctx, messages, driven.ChatOptions{
		MaxTokens:   1024,
		Temperature: 0.1,
	})
	if err != nil {
		return nil, driven.TokenUsage{}, fmt.Errorf("delegate chunk %d: %w", chunk.Index, err)
	}

	events, err := e.parseReply(result.Content)
	if err != nil {
		// A malformed reply costs tokens but yields nothing; the chunk
		// keeps its local events.
		logger.Warn("Chunk %d: unparseable LLM reply: %v", chunk.Index, err)
		return nil, result.Usage, nil
	}

	logger.Debug("Chunk %d: LLM returned %d events (%d tokens)",
		chunk.Index, len(events), result.Usage.TotalTokens)

	return events, result.Usage, nil
}

// systemPrompt returns the extraction prompt, preferring a configured
// prompt store over the embedded default.
func (e *Extractor) systemPrompt() string {
	if e.prompts != nil {
		if p, err := e.prompts.Load(driven.PromptExtraction); err == nil && p != "" {
			return p
		}
	}
	return extractionSystemPrompt
}

// parseReply decodes the model's JSON array reply into candidate
// events. Events with unresolvable dates are dropped, matching the
// local extraction contract.
func (e *Extractor) parseReply(content string) ([]domain.CandidateEvent, error) {
	raw := stripCodeFence(content)

	var wire []llmEvent
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}

	now := e.now()
	events := make([]domain.CandidateEvent, 0, len(wire))
	for _, w := range wire {
		d, err := domain.ParseDateAt(w.Date, now)
		if err != nil {
			continue
		}

		conf := w.Confidence
		if conf <= 0 || conf > 1 {
			conf = 0.5
		}

		events = append(events, domain.CandidateEvent{
			ID:          uuid.New().String(),
			Date:        d,
			RawText:     w.Description,
			Institution: w.Institution,
			Confidence:  conf,
			Source:      "llm",
		})
	}

	return events, nil
}

// stripCodeFence removes a surrounding markdown code fence, which some
// models add despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

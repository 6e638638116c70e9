// Package extractor recognises dated medical events, institutions and
// diagnosis codes inside chunks and OCR text blocks.
package extractor

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vnexus-labs/chronicle/internal/core/domain"
	"github.com/vnexus-labs/chronicle/internal/core/ports/driven"
)

// Confidence heuristics for locally extracted events.
const (
	baseConfidence        = 0.5
	institutionConfidence = 0.2
	codeConfidence        = 0.15
	bodyConfidence        = 0.1
	maxLocalConfidence    = 0.95

	// delegationConfidence is the local confidence level below which a
	// high-relevance chunk is forwarded to the LLM collaborator.
	delegationConfidence = 0.6
)

// Extractor produces candidate events from chunks and text blocks
// using local heuristics only. LLM delegation is a separate path (see
// Delegate).
type Extractor struct {
	now     func() time.Time
	prompts driven.PromptStore
}

// Option configures the extractor.
type Option func(*Extractor)

// WithClock overrides the time source for date validation. Used in
// tests.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		if now != nil {
			e.now = now
		}
	}
}

// WithPromptStore sets the store for customisable extraction prompts.
// Without it the embedded default prompt is used.
func WithPromptStore(store driven.PromptStore) Option {
	return func(e *Extractor) {
		e.prompts = store
	}
}

// New creates an extractor with the given options.
func New(opts ...Option) *Extractor {
	e := &Extractor{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractChunk extracts candidate events from one chunk. A line
// matching a date pattern starts a new event; subsequent lines until
// the next date line are appended to its raw text. Undated events are
// returned too - the timeline builder diverts them to the audit trail.
func (e *Extractor) ExtractChunk(chunk *domain.Chunk) []domain.CandidateEvent {
	events := e.extractText(chunk.Text, -1, 0)

	// Fall back to chunk-level institutions for events whose own text
	// carries none.
	if len(chunk.Institutions) > 0 {
		for i := range events {
			if events[i].Institution == "" {
				events[i].Institution = chunk.Institutions[0]
			}
		}
	}
	return events
}

// ExtractBlocks extracts candidate events from structured OCR blocks.
// Event confidence is scaled by the block's OCR confidence, and page
// indices are preserved.
func (e *Extractor) ExtractBlocks(blocks []domain.TextBlock) []domain.CandidateEvent {
	var events []domain.CandidateEvent
	for i := range blocks {
		b := &blocks[i]
		scale := b.Confidence
		if scale <= 0 || scale > 1 {
			scale = 1
		}
		events = append(events, e.extractText(b.Text, b.PageIndex, scale)...)
	}
	return events
}

// NeedsDelegation reports whether a chunk's local extraction result is
// weak enough to justify forwarding the chunk to the LLM collaborator:
// high relevance paired with no events or low average confidence.
func (e *Extractor) NeedsDelegation(chunk *domain.Chunk, events []domain.CandidateEvent) bool {
	if chunk.Priority != domain.PriorityHigh {
		return false
	}
	dated := 0
	var sum float64
	for i := range events {
		if events[i].HasDate() {
			dated++
			sum += events[i].Confidence
		}
	}
	if dated == 0 {
		return true
	}
	return sum/float64(dated) < delegationConfidence
}

// extractText runs the line walk over one piece of text. pageIndex < 0
// means no page information; confScale of 0 means no OCR confidence
// scaling.
func (e *Extractor) extractText(text string, pageIndex int, confScale float64) []domain.CandidateEvent {
	now := e.now()

	var events []domain.CandidateEvent
	var current *domain.CandidateEvent

	flush := func() {
		if current == nil {
			return
		}
		e.finalise(current, confScale)
		events = append(events, *current)
		current = nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if domain.HasDate(line) {
			flush()

			ev := domain.CandidateEvent{
				ID:      uuid.New().String(),
				RawText: line,
				Source:  "local",
			}
			if pageIndex >= 0 {
				ev.PageIndices = []int{pageIndex}
			}

			d, err := domain.ParseDateAt(line, now)
			switch {
			case err == nil:
				ev.Date = d
			case errors.Is(err, domain.ErrInvalidDate):
				// Keep the event undated for the audit trail; the
				// original line is preserved.
			}
			current = &ev
			continue
		}

		if current != nil {
			current.RawText += "\n" + line
		}
	}
	flush()

	// A block with no date lines at all still yields one undated audit
	// event so its content is not silently lost.
	if len(events) == 0 && strings.TrimSpace(text) != "" {
		ev := domain.CandidateEvent{
			ID:      uuid.New().String(),
			RawText: strings.TrimSpace(text),
			Source:  "local",
		}
		if pageIndex >= 0 {
			ev.PageIndices = []int{pageIndex}
		}
		e.finalise(&ev, confScale)
		events = append(events, ev)
	}

	return events
}

// finalise fills institution and confidence for a completed event.
func (e *Extractor) finalise(ev *domain.CandidateEvent, confScale float64) {
	if ev.Institution == "" {
		ev.Institution = MatchInstitution(ev.RawText)
	}

	conf := baseConfidence
	if ev.Institution != "" {
		conf += institutionConfidence
	}
	if len(domain.FindDiseaseCodes(ev.RawText)) > 0 {
		conf += codeConfidence
	}
	if len([]rune(ev.RawText)) > 15 {
		conf += bodyConfidence
	}
	if conf > maxLocalConfidence {
		conf = maxLocalConfidence
	}
	if confScale > 0 {
		conf *= confScale
	}
	ev.Confidence = conf
}

// Package chunker splits recovered document text into token-bounded,
// overlapping chunks and scores each by domain relevance.
package chunker

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vnexus-labs/chronicle/internal/core/domain"
	"github.com/vnexus-labs/chronicle/internal/extractor"
)

// DefaultMaxTokens is the default estimated token budget per chunk.
const DefaultMaxTokens = 500

// DefaultOverlapSentences is how many trailing sentences carry forward
// into the next chunk to preserve cross-boundary context.
const DefaultOverlapSentences = 2

// Builder splits raw text into scored chunks.
type Builder struct {
	maxTokens        int
	overlapSentences int
	now              func() time.Time
}

// Option configures the chunk builder.
type Option func(*Builder)

// WithMaxTokens sets the estimated token budget per chunk.
func WithMaxTokens(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.maxTokens = n
		}
	}
}

// WithOverlapSentences sets how many trailing sentences overlap into
// the next chunk.
func WithOverlapSentences(n int) Option {
	return func(b *Builder) {
		if n >= 0 {
			b.overlapSentences = n
		}
	}
}

// WithClock overrides the time source for date validation. Used in
// tests.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}

// New creates a chunk builder with the given options.
func New(opts ...Option) *Builder {
	b := &Builder{
		maxTokens:        DefaultMaxTokens,
		overlapSentences: DefaultOverlapSentences,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// EstimateTokens estimates the token count of s (~ one token per four
// characters).
func EstimateTokens(s string) int {
	n := len([]rune(s))
	if n == 0 {
		return 0
	}
	return (n + 3) / 4
}

// Build splits the document text into chunks and scores each.
// The returned slice is sorted priority-desc then score-desc: under a
// constrained budget, callers spend it on high-value chunks first.
// Every paragraph of the input appears in exactly one chunk's own text;
// overlap text is additional.
func (b *Builder) Build(doc *domain.RawDocument) []domain.Chunk {
	if doc == nil || strings.TrimSpace(doc.Text) == "" {
		return nil
	}

	paragraphs := splitParagraphs(doc.Text)

	var chunks []domain.Chunk
	var buf strings.Builder
	var overlap string

	flush := func() {
		text := buf.String()
		if strings.TrimSpace(text) == "" {
			buf.Reset()
			return
		}
		chunks = append(chunks, b.newChunk(len(chunks), overlap, text, doc))
		overlap = lastSentences(text, b.overlapSentences)
		buf.Reset()
	}

	for _, para := range paragraphs {
		// A single oversized paragraph still becomes one chunk; it is
		// never split mid-paragraph, so no text is ever dropped.
		if buf.Len() > 0 && EstimateTokens(overlap)+EstimateTokens(buf.String())+EstimateTokens(para) > b.maxTokens {
			flush()
		}
		if buf.Len() > 0 {
			buf.WriteString("\n\n")
		}
		buf.WriteString(para)
	}
	flush()

	sortChunks(chunks)
	return chunks
}

// newChunk assembles and scores one chunk. The overlap prefix from the
// previous chunk is prepended to preserve context.
func (b *Builder) newChunk(index int, overlap, text string, doc *domain.RawDocument) domain.Chunk {
	full := text
	if overlap != "" {
		full = overlap + "\n" + text
	}

	now := b.now()
	dates := domain.ExtractDates(full, now)
	codes := domain.FindDiseaseCodes(full)
	institutions := extractor.FindInstitutions(full)

	score := b.score(full, dates, codes, doc.ReferenceDate)

	return domain.Chunk{
		ID:             uuid.New().String(),
		Index:          index,
		Text:           full,
		TokenCount:     EstimateTokens(full),
		RelevanceScore: score,
		Priority:       priorityFor(score),
		ExtractedDates: dates,
		Institutions:   institutions,
		DiagnosisCodes: codes,
	}
}

// priorityFor buckets a relevance score.
func priorityFor(score float64) domain.ChunkPriority {
	switch {
	case score >= 0.7:
		return domain.PriorityHigh
	case score >= 0.4:
		return domain.PriorityMedium
	default:
		return domain.PriorityLow
	}
}

// sortChunks orders chunks priority-desc, then score-desc. The sort is
// stable so equal chunks keep document order.
func sortChunks(chunks []domain.Chunk) {
	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].Priority.Rank() != chunks[j].Priority.Rank() {
			return chunks[i].Priority.Rank() > chunks[j].Priority.Rank()
		}
		return chunks[i].RelevanceScore > chunks[j].RelevanceScore
	})
}

// splitParagraphs splits text on blank lines. Windows line endings are
// normalised first.
func splitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var paragraphs []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimRight(p, "\n")
		if strings.TrimSpace(p) != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

// sentenceEnd reports whether r terminates a sentence.
func sentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '\n' || r == '。'
}

// lastSentences returns the last n sentences of text, used as the
// overlap carried into the next chunk.
func lastSentences(text string, n int) string {
	if n <= 0 {
		return ""
	}

	var sentences []string
	var current strings.Builder
	for _, r := range text {
		current.WriteRune(r)
		if sentenceEnd(r) {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	if len(sentences) > n {
		sentences = sentences[len(sentences)-n:]
	}
	return strings.Join(sentences, " ")
}

package domain

import "time"

// RawDocument is the immutable input to the analysis pipeline: the full
// recovered text of a scanned document set, plus an optional reference
// date (e.g. the insurance enrollment date) used for temporal
// partitioning and relevance scoring.
type RawDocument struct {
	// Text is the complete recovered text.
	Text string

	// ReferenceDate anchors before/after partitioning. Zero means no
	// reference date was supplied.
	ReferenceDate time.Time

	// Blocks holds structured OCR blocks when the text source provides
	// them. When non-empty, extraction prefers blocks over Text because
	// they carry page indices and per-block confidence.
	Blocks []TextBlock
}

// HasReferenceDate reports whether a reference date was supplied.
func (d *RawDocument) HasReferenceDate() bool {
	return !d.ReferenceDate.IsZero()
}

// TextBlock is a structured OCR block from the extraction collaborator.
type TextBlock struct {
	// Text is the recognised block text.
	Text string

	// PageIndex is the zero-based page the block was recognised on.
	PageIndex int

	// Confidence is the OCR engine's recognition confidence in [0,1].
	Confidence float64
}

// ChunkPriority buckets a chunk by its relevance score.
type ChunkPriority string

// Chunk priority levels, ordered HIGH > MEDIUM > LOW.
const (
	PriorityHigh   ChunkPriority = "high"
	PriorityMedium ChunkPriority = "medium"
	PriorityLow    ChunkPriority = "low"
)

// Rank returns a sortable weight for the priority (higher is better).
func (p ChunkPriority) Rank() int {
	switch p {
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

// Chunk is a token-bounded, possibly overlapping segment of source text
// with computed relevance metadata. Chunks are never mutated after the
// builder emits them.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// Index is the ordinal position within the document.
	Index int

	// Text is the segment content, including any overlap carried
	// forward from the previous chunk.
	Text string

	// TokenCount is the estimated token count (~ len/4).
	TokenCount int

	// RelevanceScore is the heuristic value estimate in [0,1].
	RelevanceScore float64

	// Priority is the bucket derived from RelevanceScore.
	Priority ChunkPriority

	// ExtractedDates are the valid dates found during scoring.
	ExtractedDates []time.Time

	// Institutions are institution names recognised during scoring.
	Institutions []string

	// DiagnosisCodes are KCD/ICD-style codes found in the text.
	DiagnosisCodes []string
}

package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// MergeSeparator joins raw text fragments when events are merged into a
// single timeline entry.
const MergeSeparator = "\n---\n"

// CandidateEvent is a single extracted, dated occurrence before
// timeline merging.
type CandidateEvent struct {
	// ID is the unique identifier for the event.
	ID string

	// Date is the resolved event date. Zero means the date could not be
	// resolved; such events are kept for audit but never enter the
	// timeline.
	Date time.Time

	// RawText is the source text the event was extracted from.
	RawText string

	// Institution is the recognised hospital/insurer name, empty if
	// none was found.
	Institution string

	// Confidence is the extraction confidence in [0,1].
	Confidence float64

	// Tags are semantic category tags assigned by the tagger.
	Tags map[string]bool

	// TagMatches records, per tag, the substrings that triggered it.
	// Kept for audit only.
	TagMatches map[string][]string

	// PageIndices are the source pages the event text came from.
	PageIndices []int

	// Source records which extraction path produced the event:
	// "local" or "llm".
	Source string

	// Enhanced marks an event that was enriched during hybrid fusion.
	Enhanced bool
}

// HasDate reports whether the event carries a resolved date.
func (e *CandidateEvent) HasDate() bool {
	return !e.Date.IsZero()
}

// HasTag reports whether the event carries the given tag.
func (e *CandidateEvent) HasTag(tag string) bool {
	return e.Tags[tag]
}

// AddTag assigns a tag, recording the substrings that matched.
func (e *CandidateEvent) AddTag(tag string, matches ...string) {
	if e.Tags == nil {
		e.Tags = make(map[string]bool)
	}
	e.Tags[tag] = true
	if len(matches) > 0 {
		if e.TagMatches == nil {
			e.TagMatches = make(map[string][]string)
		}
		e.TagMatches[tag] = append(e.TagMatches[tag], matches...)
	}
}

// MergeKey identifies events that belong to the same timeline entry:
// same calendar date and same institution.
func (e *CandidateEvent) MergeKey() string {
	return FormatDate(e.Date) + "|" + e.Institution
}

// SortedTags returns the event's tags in deterministic order.
func (e *CandidateEvent) SortedTags() []string {
	tags := make([]string, 0, len(e.Tags))
	for t := range e.Tags {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// TimelineEntry is a merged, canonical occurrence on the final
// timeline.
//
// Invariants: MergedCount == len(Sources), Confidence is the mean of
// the source confidences, Tags is the union of the source tags.
type TimelineEntry struct {
	CandidateEvent

	// MergedCount is the number of candidate events absorbed into this
	// entry. 1 for a pass-through entry.
	MergedCount int

	// Sources preserves the original candidate events (provenance).
	Sources []CandidateEvent
}

// Timeline is the ordered, deduplicated sequence of timeline entries.
type Timeline struct {
	// Entries are sorted ascending by date; no two entries share both
	// date and institution.
	Entries []TimelineEntry

	// StartDate and EndDate bound the timeline. Zero when empty.
	StartDate time.Time
	EndDate   time.Time

	// Institutions is the union of entry institutions.
	Institutions map[string]bool

	// Tags is the union of entry tags.
	Tags map[string]bool
}

// Len returns the number of timeline entries.
func (t *Timeline) Len() int {
	return len(t.Entries)
}

// Validate checks the timeline's structural invariants. It returns a
// *SchemaValidationError listing every offending field, or nil when the
// timeline is well formed. A timeline that fails validation must not be
// handed to the report renderer.
func (t *Timeline) Validate() error {
	var fields []string

	seen := make(map[string]int)
	for i := range t.Entries {
		e := &t.Entries[i]

		if !e.HasDate() {
			fields = append(fields, fmt.Sprintf("entries[%d].date: missing", i))
		}
		if i > 0 && e.Date.Before(t.Entries[i-1].Date) {
			fields = append(fields, fmt.Sprintf("entries[%d].date: out of order", i))
		}
		if e.MergedCount != len(e.Sources) {
			fields = append(fields, fmt.Sprintf("entries[%d].mergedCount: %d != %d sources", i, e.MergedCount, len(e.Sources)))
		}
		if e.Confidence < 0 || e.Confidence > 1 {
			fields = append(fields, fmt.Sprintf("entries[%d].confidence: %v out of range", i, e.Confidence))
		}

		key := e.MergeKey()
		if prev, dup := seen[key]; dup {
			fields = append(fields, fmt.Sprintf("entries[%d]: duplicate (date, institution) of entries[%d]", i, prev))
		} else {
			seen[key] = i
		}
	}

	if len(fields) > 0 {
		return &SchemaValidationError{Fields: fields}
	}
	return nil
}

// DateSet returns the canonical YYYY-MM-DD strings of every entry date.
func (t *Timeline) DateSet() map[string]bool {
	dates := make(map[string]bool, len(t.Entries))
	for i := range t.Entries {
		dates[FormatDate(t.Entries[i].Date)] = true
	}
	return dates
}

// String renders a short human-readable summary for logging.
func (t *Timeline) String() string {
	if t.Len() == 0 {
		return "timeline: empty"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "timeline: %d entries, %s .. %s, %d institutions",
		t.Len(), FormatDate(t.StartDate), FormatDate(t.EndDate), len(t.Institutions))
	return sb.String()
}

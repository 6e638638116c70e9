// Package timeline merges candidate events into an ordered,
// deduplicated timeline and applies the temporal filter.
package timeline

import (
	"sort"

	"github.com/vnexus-labs/chronicle/internal/core/domain"
	"github.com/vnexus-labs/chronicle/internal/logger"
)

// Build merges candidate events into a timeline. Events sharing the
// same calendar date and institution collapse into one entry; undated
// events never enter the timeline and are returned separately for the
// audit trail.
func Build(events []domain.CandidateEvent) (*domain.Timeline, []domain.CandidateEvent) {
	var dated []domain.CandidateEvent
	var undated []domain.CandidateEvent
	for i := range events {
		if events[i].HasDate() {
			dated = append(dated, events[i])
		} else {
			undated = append(undated, events[i])
		}
	}

	// Stable sort keeps extraction order among same-day events, so
	// merged text reads in document order.
	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].Date.Before(dated[j].Date)
	})

	tl := &domain.Timeline{
		Institutions: make(map[string]bool),
		Tags:         make(map[string]bool),
	}

	// Single forward pass: after sorting, events with the same merge key
	// are not necessarily adjacent (same date, different institutions
	// interleave), so entries are tracked by key.
	byKey := make(map[string]int)
	for i := range dated {
		ev := &dated[i]
		key := ev.MergeKey()
		if idx, ok := byKey[key]; ok {
			absorb(&tl.Entries[idx], ev)
			continue
		}
		byKey[key] = len(tl.Entries)
		tl.Entries = append(tl.Entries, newEntry(ev))
	}

	// Map iteration order is irrelevant here; entries were appended in
	// date order and absorbing never moves an entry.
	for i := range tl.Entries {
		e := &tl.Entries[i]
		if e.Institution != "" {
			tl.Institutions[e.Institution] = true
		}
		for tag := range e.Tags {
			tl.Tags[tag] = true
		}
	}

	if len(tl.Entries) > 0 {
		tl.StartDate = tl.Entries[0].Date
		tl.EndDate = tl.Entries[len(tl.Entries)-1].Date
	}

	logger.Debug("Timeline built: %d events -> %d entries, %d undated kept for audit",
		len(events), tl.Len(), len(undated))
	return tl, undated
}

// newEntry wraps a single candidate event as a pass-through entry.
func newEntry(ev *domain.CandidateEvent) domain.TimelineEntry {
	entry := domain.TimelineEntry{
		CandidateEvent: *ev,
		MergedCount:    1,
		Sources:        []domain.CandidateEvent{*ev},
	}
	// The entry owns its tag maps; sharing them with the source would
	// let later merges mutate provenance.
	entry.Tags = copySet(ev.Tags)
	entry.TagMatches = copyMatches(ev.TagMatches)
	entry.PageIndices = append([]int(nil), ev.PageIndices...)
	return entry
}

// absorb merges one more candidate event into an existing entry:
// text concatenates, tags and pages union, confidence re-averages.
func absorb(entry *domain.TimelineEntry, ev *domain.CandidateEvent) {
	entry.RawText += domain.MergeSeparator + ev.RawText

	for tag := range ev.Tags {
		if entry.Tags == nil {
			entry.Tags = make(map[string]bool)
		}
		entry.Tags[tag] = true
	}
	for tag, matches := range ev.TagMatches {
		if entry.TagMatches == nil {
			entry.TagMatches = make(map[string][]string)
		}
		entry.TagMatches[tag] = append(entry.TagMatches[tag], matches...)
	}
	entry.PageIndices = unionPages(entry.PageIndices, ev.PageIndices)
	if ev.Enhanced {
		entry.Enhanced = true
	}

	entry.Sources = append(entry.Sources, *ev)
	entry.MergedCount = len(entry.Sources)

	var sum float64
	for i := range entry.Sources {
		sum += entry.Sources[i].Confidence
	}
	entry.Confidence = sum / float64(len(entry.Sources))
}

func copySet(src map[string]bool) map[string]bool {
	if src == nil {
		return nil
	}
	dst := make(map[string]bool, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func copyMatches(src map[string][]string) map[string][]string {
	if src == nil {
		return nil
	}
	dst := make(map[string][]string, len(src))
	for k, v := range src {
		dst[k] = append([]string(nil), v...)
	}
	return dst
}

func unionPages(a, b []int) []int {
	seen := make(map[int]bool, len(a)+len(b))
	var out []int
	for _, p := range a {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, p := range b {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	sort.Ints(out)
	return out
}

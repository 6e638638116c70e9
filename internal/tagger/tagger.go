// Package tagger assigns semantic category tags to candidate events
// using ordered pattern tables and disease-code lookup.
package tagger

import (
	"context"
	"errors"
	"strings"

	"github.com/vnexus-labs/chronicle/internal/core/domain"
	"github.com/vnexus-labs/chronicle/internal/core/ports/driven"
	"github.com/vnexus-labs/chronicle/internal/logger"
)

// Tagger enriches candidate events with category tags. The disease
// code store is optional; without it, code detection relies on the
// code pattern alone.
type Tagger struct {
	codes driven.DiseaseCodeStore
}

// New creates a tagger. codeStore may be nil.
func New(codeStore driven.DiseaseCodeStore) *Tagger {
	return &Tagger{codes: codeStore}
}

// Tag assigns tags to the event in place.
//
// Order is fixed: disease-code detection first, then every category of
// the pattern table against the lowercased text, then the meta
// predicates. A single event may receive multiple tags.
func (t *Tagger) Tag(ctx context.Context, ev *domain.CandidateEvent) {
	t.tagDiseaseCodes(ctx, ev)

	lower := strings.ToLower(ev.RawText)
	for _, cat := range categories {
		for _, re := range cat.patterns {
			if m := re.FindString(lower); m != "" {
				ev.AddTag(cat.tag, m)
			}
		}
	}

	// Meta predicates run last and may coexist with category tags.
	if isImportant(ev) {
		ev.AddTag(TagImportant)
	}
	if isExcludable(ev) {
		ev.AddTag(TagExclude)
	}
}

// TagAll tags a batch of events.
func (t *Tagger) TagAll(ctx context.Context, events []domain.CandidateEvent) {
	for i := range events {
		t.Tag(ctx, &events[i])
	}
}

// tagDiseaseCodes adds dx_confirmed when the event text contains a
// disease code. When a code store is available, codes are verified
// against the index and deprecated codes resolve to their replacement;
// the resolved name is recorded for audit.
func (t *Tagger) tagDiseaseCodes(ctx context.Context, ev *domain.CandidateEvent) {
	codes := domain.FindDiseaseCodes(ev.RawText)
	if len(codes) == 0 {
		return
	}

	if t.codes == nil {
		ev.AddTag(TagDxConfirmed, codes...)
		return
	}

	var matches []string
	for _, code := range codes {
		entry, err := t.codes.Get(ctx, code)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				logger.Warn("Disease code lookup %s failed: %v", code, err)
			}
			continue
		}
		matches = append(matches, entry.Code+" "+entry.KorName)
	}

	if len(matches) > 0 {
		ev.AddTag(TagDxConfirmed, matches...)
	} else {
		// Pattern hit but nothing in the index: still a code mention.
		ev.AddTag(TagDxConfirmed, codes...)
	}
}

// isImportant reports whether the event is claim-relevant on its own:
// a confirmed diagnosis, surgery, or an admission stay.
func isImportant(ev *domain.CandidateEvent) bool {
	return ev.HasTag(TagDxConfirmed) || ev.HasTag(TagSurgery) || ev.HasTag(TagAdmission)
}

// isExcludable reports whether the event carries only routine content:
// nursing notes and routine medication refills with no important tag.
func isExcludable(ev *domain.CandidateEvent) bool {
	if isImportant(ev) {
		return false
	}
	return ev.HasTag(TagNursing) || ev.HasTag(TagRoutineMed)
}

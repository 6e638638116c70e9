package timeline

import (
	"time"

	"github.com/vnexus-labs/chronicle/internal/core/domain"
	"github.com/vnexus-labs/chronicle/internal/logger"
)

// Filter partitions timeline entries by the temporal rules. Rule order
// is fixed: reference-date bookkeeping, confidence floor, tag
// exclusion, tag inclusion, date range. The first rule that rejects an
// entry wins; later rules are not evaluated for it.
//
// reference may be zero, which disables the before-reference rules.
func Filter(tl *domain.Timeline, opts domain.FilterOptions, reference time.Time) *domain.FilterResult {
	res := &domain.FilterResult{}

	for i := range tl.Entries {
		e := tl.Entries[i]

		// Before-reference entries always land in the audit bucket,
		// regardless of whether they survive the remaining rules.
		before := !reference.IsZero() && e.Date.Before(reference)
		if before {
			res.BeforeReference = append(res.BeforeReference, e)
		}

		switch {
		case before && !opts.IncludeBeforeReference:
			res.Excluded = append(res.Excluded, e)
		case opts.MinConfidence > 0 && e.Confidence < opts.MinConfidence:
			res.Excluded = append(res.Excluded, e)
		case hasAnyTag(&e, opts.ExcludeTags):
			res.Excluded = append(res.Excluded, e)
		case len(opts.IncludeTags) > 0 && !hasAnyTag(&e, opts.IncludeTags):
			res.Excluded = append(res.Excluded, e)
		case !opts.StartDate.IsZero() && e.Date.Before(opts.StartDate):
			res.Excluded = append(res.Excluded, e)
		case !opts.EndDate.IsZero() && e.Date.After(opts.EndDate):
			res.Excluded = append(res.Excluded, e)
		default:
			res.Retained = append(res.Retained, e)
		}
	}

	logger.Debug("Temporal filter: %d retained, %d excluded, %d before reference",
		len(res.Retained), len(res.Excluded), len(res.BeforeReference))
	return res
}

func hasAnyTag(e *domain.TimelineEntry, tags []string) bool {
	for _, tag := range tags {
		if e.HasTag(tag) {
			return true
		}
	}
	return false
}

// DateCoverage reports how many of the distinct dates present in the
// source events survived into the timeline. Used by the validate
// command to catch silent date loss.
type DateCoverage struct {
	SourceDates   int
	TimelineDates int
	Missing       []string
}

// Coverage computes the date coverage of a timeline against the events
// it was built from. Undated events do not count as source dates.
func Coverage(tl *domain.Timeline, events []domain.CandidateEvent) DateCoverage {
	source := make(map[string]bool)
	for i := range events {
		if events[i].HasDate() {
			source[domain.FormatDate(events[i].Date)] = true
		}
	}
	have := tl.DateSet()

	cov := DateCoverage{SourceDates: len(source), TimelineDates: len(have)}
	for d := range source {
		if !have[d] {
			cov.Missing = append(cov.Missing, d)
		}
	}
	return cov
}

// Complete reports whether every source date is represented.
func (c DateCoverage) Complete() bool {
	return len(c.Missing) == 0
}

package domain

import "time"

// FilterOptions controls temporal partitioning of a timeline.
type FilterOptions struct {
	// IncludeBeforeReference keeps entries dated before the reference
	// date eligible for retention. When false, such entries are
	// excluded without further rule evaluation.
	IncludeBeforeReference bool

	// MinConfidence excludes entries below this confidence. Zero
	// disables the rule.
	MinConfidence float64

	// StartDate and EndDate bound the retained range. Zero values
	// disable the corresponding bound.
	StartDate time.Time
	EndDate   time.Time

	// IncludeTags, when non-empty, retains only entries carrying at
	// least one of these tags.
	IncludeTags []string

	// ExcludeTags excludes entries carrying any of these tags.
	ExcludeTags []string
}

// FilterResult partitions timeline entries by the temporal filter.
//
// BeforeReference is an independent audit bucket: an entry dated before
// the reference date always lands there, even when it also appears in
// Retained or Excluded. The three slices are not a strict partition.
type FilterResult struct {
	Retained        []TimelineEntry
	Excluded        []TimelineEntry
	BeforeReference []TimelineEntry
}

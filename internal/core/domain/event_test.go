package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCandidateEvent_AddTag(t *testing.T) {
	e := CandidateEvent{}
	e.AddTag("surgery", "절제술")
	e.AddTag("surgery", "수술")
	e.AddTag("admission")

	assert.True(t, e.HasTag("surgery"))
	assert.True(t, e.HasTag("admission"))
	assert.False(t, e.HasTag("medication"))
	assert.Equal(t, []string{"절제술", "수술"}, e.TagMatches["surgery"])
	assert.Empty(t, e.TagMatches["admission"])
}

func TestCandidateEvent_MergeKey(t *testing.T) {
	a := CandidateEvent{Date: day(2023, 6, 15), Institution: "City Hospital"}
	b := CandidateEvent{Date: day(2023, 6, 15), Institution: "City Hospital"}
	c := CandidateEvent{Date: day(2023, 6, 15), Institution: "서울대학교병원"}

	assert.Equal(t, a.MergeKey(), b.MergeKey())
	assert.NotEqual(t, a.MergeKey(), c.MergeKey())
}

func TestTimeline_Validate_WellFormed(t *testing.T) {
	tl := Timeline{
		Entries: []TimelineEntry{
			{
				CandidateEvent: CandidateEvent{Date: day(2023, 1, 1), Institution: "A", Confidence: 0.8},
				MergedCount:    1,
				Sources:        []CandidateEvent{{Date: day(2023, 1, 1)}},
			},
			{
				CandidateEvent: CandidateEvent{Date: day(2023, 1, 1), Institution: "B", Confidence: 0.9},
				MergedCount:    1,
				Sources:        []CandidateEvent{{Date: day(2023, 1, 1)}},
			},
			{
				CandidateEvent: CandidateEvent{Date: day(2023, 2, 1), Institution: "A", Confidence: 0.5},
				MergedCount:    2,
				Sources:        []CandidateEvent{{}, {}},
			},
		},
	}

	assert.NoError(t, tl.Validate())
}

func TestTimeline_Validate_Violations(t *testing.T) {
	tl := Timeline{
		Entries: []TimelineEntry{
			{
				CandidateEvent: CandidateEvent{Date: day(2023, 2, 1), Institution: "A", Confidence: 1.5},
				MergedCount:    2, // but only one source
				Sources:        []CandidateEvent{{}},
			},
			{
				CandidateEvent: CandidateEvent{Date: day(2023, 1, 1), Institution: "A", Confidence: 0.5},
				MergedCount:    1,
				Sources:        []CandidateEvent{{}},
			},
			{
				CandidateEvent: CandidateEvent{Date: day(2023, 1, 1), Institution: "A", Confidence: 0.5},
				MergedCount:    1,
				Sources:        []CandidateEvent{{}},
			},
		},
	}

	err := tl.Validate()
	require.Error(t, err)

	var schemaErr *SchemaValidationError
	require.ErrorAs(t, err, &schemaErr)

	// Out-of-order entry, bad confidence, bad merged count, duplicate key.
	assert.GreaterOrEqual(t, len(schemaErr.Fields), 4)
}

func TestTimeline_DateSet(t *testing.T) {
	tl := Timeline{
		Entries: []TimelineEntry{
			{CandidateEvent: CandidateEvent{Date: day(2023, 1, 1)}},
			{CandidateEvent: CandidateEvent{Date: day(2023, 6, 15)}},
		},
	}

	dates := tl.DateSet()
	assert.True(t, dates["2023-01-01"])
	assert.True(t, dates["2023-06-15"])
	assert.Len(t, dates, 2)
}

package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// MinYear is the earliest year accepted for an extracted date.
// Anything older is treated as an OCR artefact.
const MinYear = 1900

// datePattern pairs a regex with the capture order of its components.
// Patterns are tried in declaration order; the first match wins.
type datePattern struct {
	re *regexp.Regexp

	// yearIdx, monthIdx, dayIdx are 1-based capture group indexes.
	yearIdx, monthIdx, dayIdx int

	// shortYear marks 2-digit-year formats, assumed to be 2000s.
	shortYear bool
}

// datePatterns is the ordered date format table. ISO-style formats come
// first because they are unambiguous; US-style MM/DD/YYYY formats come
// last so a YYYY-first match always takes precedence.
var datePatterns = []datePattern{
	// YYYY-MM-DD, YYYY.MM.DD, YYYY/MM/DD
	{re: regexp.MustCompile(`(\d{4})[-./](\d{1,2})[-./](\d{1,2})`), yearIdx: 1, monthIdx: 2, dayIdx: 3},
	// YY-MM-DD, YY.MM.DD, YY/MM/DD (2-digit years are assumed to be 2000s)
	{re: regexp.MustCompile(`\b(\d{2})[-./](\d{1,2})[-./](\d{1,2})\b`), yearIdx: 1, monthIdx: 2, dayIdx: 3, shortYear: true},
	// Korean long form: YYYY년 MM월 DD일
	{re: regexp.MustCompile(`(\d{4})\s*년\s*(\d{1,2})\s*월\s*(\d{1,2})\s*일`), yearIdx: 1, monthIdx: 2, dayIdx: 3},
	// MM/DD/YYYY
	{re: regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4})`), yearIdx: 3, monthIdx: 1, dayIdx: 2},
	// MM-DD-YYYY
	{re: regexp.MustCompile(`(\d{1,2})-(\d{1,2})-(\d{4})`), yearIdx: 3, monthIdx: 1, dayIdx: 2},
}

// ParseDate extracts and validates the first date found in s.
// Returns ErrNoDate if no pattern matches, ErrInvalidDate if a matched
// date fails validation (year < 1900, in the future, or components that
// do not round-trip, e.g. February 30th).
func ParseDate(s string) (time.Time, error) {
	return ParseDateAt(s, time.Now())
}

// ParseDateAt is ParseDate with an explicit "now" for future-date
// rejection. Exposed for deterministic tests.
func ParseDateAt(s string, now time.Time) (time.Time, error) {
	matched := false
	for _, p := range datePatterns {
		m := p.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		matched = true

		d, err := buildDate(m[p.yearIdx], m[p.monthIdx], m[p.dayIdx], p.shortYear, now)
		if err != nil {
			// Try the remaining, less specific patterns before giving up.
			continue
		}
		return d, nil
	}

	if matched {
		return time.Time{}, ErrInvalidDate
	}
	return time.Time{}, ErrNoDate
}

// HasDate reports whether s contains any supported date pattern,
// without validating it.
func HasDate(s string) bool {
	for _, p := range datePatterns {
		if p.re.MatchString(s) {
			return true
		}
	}
	return false
}

// ExtractDates returns every distinct valid date found in text, in
// order of first appearance. Invalid matches are skipped silently.
func ExtractDates(text string, now time.Time) []time.Time {
	var dates []time.Time
	seen := make(map[string]bool)

	for _, p := range datePatterns {
		for _, m := range p.re.FindAllStringSubmatch(text, -1) {
			d, err := buildDate(m[p.yearIdx], m[p.monthIdx], m[p.dayIdx], p.shortYear, now)
			if err != nil {
				continue
			}
			key := FormatDate(d)
			if seen[key] {
				continue
			}
			seen[key] = true
			dates = append(dates, d)
		}
	}

	return dates
}

// FormatDate renders a date in the canonical YYYY-MM-DD form used
// throughout the timeline.
func FormatDate(d time.Time) string {
	return d.Format("2006-01-02")
}

// buildDate constructs and validates a UTC calendar date from string
// components.
func buildDate(yearStr, monthStr, dayStr string, shortYear bool, now time.Time) (time.Time, error) {
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: year %q", ErrInvalidDate, yearStr)
	}
	if shortYear {
		year += 2000
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: month %q", ErrInvalidDate, monthStr)
	}
	day, err := strconv.Atoi(dayStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: day %q", ErrInvalidDate, dayStr)
	}

	if year < MinYear {
		return time.Time{}, fmt.Errorf("%w: year %d before %d", ErrInvalidDate, year, MinYear)
	}

	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)

	// time.Date normalises out-of-range components (Feb 30 -> Mar 2).
	// Require an exact round-trip so such artefacts are rejected.
	if d.Year() != year || int(d.Month()) != month || d.Day() != day {
		return time.Time{}, fmt.Errorf("%w: %04d-%02d-%02d does not exist", ErrInvalidDate, year, month, day)
	}

	if d.After(now) {
		return time.Time{}, fmt.Errorf("%w: %s is in the future", ErrInvalidDate, FormatDate(d))
	}

	return d, nil
}

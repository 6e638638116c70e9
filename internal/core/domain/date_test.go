package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedNow keeps future-date rejection deterministic.
var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestParseDateAt_SupportedFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"iso dash", "2023-06-15 외래 진료", "2023-06-15"},
		{"iso dot", "2023.06.15 수술 시행", "2023-06-15"},
		{"iso slash", "2023/06/15", "2023-06-15"},
		{"single digit components", "2023-6-5", "2023-06-05"},
		{"short year", "23-06-15 입원", "2023-06-15"},
		{"short year dot", "23.1.2", "2023-01-02"},
		{"short year slash", "23/06/15 퇴원", "2023-06-15"},
		{"korean long form", "2023년 6월 15일 진단", "2023-06-15"},
		{"korean spaced", "2023 년 6 월 15 일", "2023-06-15"},
		{"us slash", "06/15/2023", "2023-06-15"},
		{"us dash", "06-15-2023", "2023-06-15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseDateAt(tt.input, fixedNow)
			require.NoError(t, err)
			assert.Equal(t, tt.want, FormatDate(d))
		})
	}
}

func TestParseDateAt_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"pre-1900", "1899-12-31", ErrInvalidDate},
		{"future date", "2031-01-01", ErrInvalidDate},
		{"nonexistent day", "2023-02-30", ErrInvalidDate},
		{"day 31 in 30-day month", "2023-04-31", ErrInvalidDate},
		{"no date at all", "외래 진료 기록", ErrNoDate},
		{"empty", "", ErrNoDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDateAt(tt.input, fixedNow)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseDateAt_RoundTrip(t *testing.T) {
	// Every accepted date must render back to canonical YYYY-MM-DD with
	// the original components intact.
	inputs := map[string]string{
		"2020-01-01":      "2020-01-01",
		"2019.12.31":      "2019-12-31",
		"2023년 2월 28일":    "2023-02-28",
		"01/02/2021 처방":   "2021-01-02",
		"진단일: 2022/07/09": "2022-07-09",
	}

	for input, want := range inputs {
		d, err := ParseDateAt(input, fixedNow)
		require.NoError(t, err, "input %q", input)
		assert.Equal(t, want, FormatDate(d), "input %q", input)
	}
}

func TestExtractDates(t *testing.T) {
	text := "2023-06-15 외래.\n같은 날 2023.06.15 재방문.\n2022년 1월 3일 입원.\n무효: 2023-02-30."

	dates := ExtractDates(text, fixedNow)

	got := make([]string, len(dates))
	for i, d := range dates {
		got[i] = FormatDate(d)
	}
	assert.ElementsMatch(t, []string{"2023-06-15", "2022-01-03"}, got)
}

func TestHasDate(t *testing.T) {
	assert.True(t, HasDate("진료일 2023-06-15"))
	// HasDate does not validate; it only detects a pattern.
	assert.True(t, HasDate("2023-02-30"))
	assert.False(t, HasDate("날짜 없음"))
}

package domain

import (
	"regexp"
	"strconv"
	"strings"
)

// DiseaseCode is one entry of the KCD/ICD-style disease code index.
type DiseaseCode struct {
	// Code is the normalised code, e.g. "C16.9" or "I21".
	Code string

	// KorName is the Korean disease name.
	KorName string

	// EngName is the English disease name, if known.
	EngName string

	// Category is the codebook chapter/category label.
	Category string

	// Deprecated marks codes retired by a codebook revision.
	Deprecated bool

	// ReplacedBy is the successor code for a deprecated entry.
	ReplacedBy string
}

// diseaseCodeRe matches KCD/ICD-style codes: a chapter letter, two
// digits, and an optional sub-classification.
var diseaseCodeRe = regexp.MustCompile(`\b([A-Z])(\d{2})(?:\.(\d{1,2}))?\b`)

// FindDiseaseCodes returns every distinct disease-code-shaped token in
// text, in order of first appearance.
func FindDiseaseCodes(text string) []string {
	var codes []string
	seen := make(map[string]bool)
	for _, m := range diseaseCodeRe.FindAllString(text, -1) {
		code := strings.ToUpper(m)
		if seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, code)
	}
	return codes
}

// significantRange is a clinically significant code interval, inclusive
// on both ends of the numeric part.
type significantRange struct {
	letter   byte
	low, high int
}

// significantRanges lists the code intervals that mark a chunk as
// clinically significant for relevance scoring: malignancy,
// cardiovascular and endocrine disease.
var significantRanges = []significantRange{
	{'C', 0, 97},  // malignant neoplasms
	{'D', 0, 48},  // in-situ / benign neoplasms
	{'I', 20, 25}, // ischaemic heart disease
	{'I', 60, 69}, // cerebrovascular disease
	{'E', 10, 14}, // diabetes mellitus
}

// IsSignificantCode reports whether code falls in a clinically
// significant range.
func IsSignificantCode(code string) bool {
	m := diseaseCodeRe.FindStringSubmatch(strings.ToUpper(code))
	if m == nil {
		return false
	}
	num, err := strconv.Atoi(m[2])
	if err != nil {
		return false
	}
	for _, r := range significantRanges {
		if m[1][0] == r.letter && num >= r.low && num <= r.high {
			return true
		}
	}
	return false
}

package chunker

import (
	"strings"
	"time"

	"github.com/vnexus-labs/chronicle/internal/core/domain"
)

// Score weights. Each component is clamped before summation and the
// total is clamped to [0,1].
const (
	maxDateScore      = 0.3
	recentDateBonus   = 0.2
	codeScore         = 0.4
	maxKeywordScore   = 0.3
	insuranceKeyScore = 0.2

	perDateScore    = 0.1
	perKeywordScore = 0.1

	// dateRelevanceWindow is how far from the reference date a date
	// still counts as relevant.
	dateRelevanceWindow = 5 * 365 * 24 * time.Hour

	// recentWindow marks the preferred most-recent period around the
	// reference date.
	recentWindow = 90 * 24 * time.Hour
)

// highPriorityKeywords are domain terms that mark a chunk as likely to
// contain extractable events.
var highPriorityKeywords = []string{
	"진단", "수술", "입원", "퇴원", "처방", "검사", "소견", "치료",
	"diagnosis", "surgery", "admission", "discharge", "operation", "biopsy",
}

// insuranceKeywords are terms specific to claim assessment.
var insuranceKeywords = []string{
	"보험", "청구", "가입", "고지", "특약", "보장", "면책",
	"claim", "policy", "coverage",
}

// score computes the chunk relevance score in [0,1].
func (b *Builder) score(text string, dates []time.Time, codes []string, referenceDate time.Time) float64 {
	var score float64

	// Date relevance: dates near the reference date add up to 0.3, and
	// dates within the most recent three months add a further 0.2.
	if !referenceDate.IsZero() && len(dates) > 0 {
		var dateScore float64
		recent := false
		for _, d := range dates {
			delta := referenceDate.Sub(d)
			if delta < 0 {
				delta = -delta
			}
			if delta <= dateRelevanceWindow {
				dateScore += perDateScore
			}
			if delta <= recentWindow {
				recent = true
			}
		}
		score += clamp(dateScore, maxDateScore)
		if recent {
			score += recentDateBonus
		}
	}

	// Diagnostic-code relevance: any code in a clinically significant
	// range adds 0.4.
	for _, code := range codes {
		if domain.IsSignificantCode(code) {
			score += codeScore
			break
		}
	}

	lower := strings.ToLower(text)

	// Keyword relevance.
	var keyScore float64
	for _, kw := range highPriorityKeywords {
		if strings.Contains(lower, kw) {
			keyScore += perKeywordScore
		}
	}
	score += clamp(keyScore, maxKeywordScore)

	for _, kw := range insuranceKeywords {
		if strings.Contains(lower, kw) {
			score += insuranceKeyScore
			break
		}
	}

	return clamp(score, 1.0)
}

// clamp limits v to [0, max].
func clamp(v, max float64) float64 {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

package extractor

import (
	"regexp"
	"strings"
)

// knownInstitutions is the curated institution list, checked before any
// suffix heuristic. Exact substring match wins over regex matches.
var knownInstitutions = []string{
	"서울대학교병원",
	"분당서울대학교병원",
	"삼성서울병원",
	"서울아산병원",
	"세브란스병원",
	"강남세브란스병원",
	"서울성모병원",
	"고려대학교병원",
	"국립암센터",
	"국민건강보험공단",
	"건강보험심사평가원",
}

// hospitalSuffixRe matches names ending in a Korean medical facility
// suffix. The name part allows hangul, latin and digits so OCR-mixed
// names like "21세기병원" still match.
var hospitalSuffixRe = regexp.MustCompile(`[가-힣A-Za-z0-9]{2,20}(?:병원|의원|클리닉|센터)`)

// insurerSuffixRe matches Korean insurer names.
var insurerSuffixRe = regexp.MustCompile(`[가-힣A-Za-z0-9]{2,20}(?:손해보험|화재해상보험|해상|화재|생명|보험)`)

// MatchInstitution returns the first institution found in text.
// Resolution order: curated list, hospital suffix, insurer suffix.
// Returns "" when nothing matches.
func MatchInstitution(text string) string {
	for _, name := range knownInstitutions {
		if strings.Contains(text, name) {
			return name
		}
	}
	if m := hospitalSuffixRe.FindString(text); m != "" {
		return m
	}
	if m := insurerSuffixRe.FindString(text); m != "" {
		return m
	}
	return ""
}

// FindInstitutions returns every distinct institution found in text,
// in order of first appearance.
func FindInstitutions(text string) []string {
	var found []string
	seen := make(map[string]bool)

	add := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		found = append(found, name)
	}

	for _, name := range knownInstitutions {
		if strings.Contains(text, name) {
			add(name)
		}
	}
	for _, m := range hospitalSuffixRe.FindAllString(text, -1) {
		add(m)
	}
	for _, m := range insurerSuffixRe.FindAllString(text, -1) {
		add(m)
	}

	return found
}

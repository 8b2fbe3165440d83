package iban

import (
	"regexp"
	"strings"

	"github.com/agext/levenshtein"
)

// candidatePattern scans free OCR text for IBAN-shaped substrings (§4.4.4
// step 3): two letters, optional whitespace, two digits, then 18-26
// further characters, each a digit or whitespace.
var candidatePattern = regexp.MustCompile(`\b[A-Z]{2}\s*\d{2}[\s\d]{18,26}\b`)

// CandidatesFromText extracts every structurally-plausible, MOD-97-valid
// IBAN candidate appearing in ocrText.
func CandidatesFromText(ocrText string) []string {
	upper := strings.ToUpper(ocrText)
	matches := candidatePattern.FindAllString(upper, -1)

	var candidates []string
	seen := make(map[string]bool)
	for _, m := range matches {
		normalized := Normalize(m)
		if seen[normalized] {
			continue
		}
		seen[normalized] = true
		if d := Validate(normalized); d.Valid {
			candidates = append(candidates, normalized)
		}
	}
	return candidates
}

// Repair attempts to replace an invalid IBAN with the closest valid
// candidate sharing its country code, accepting the match only when the
// Levenshtein distance is ≤ 3 (§4.4.4 step 3 / §9: threshold not scaled by
// length).
func Repair(invalid string, candidates []string) (repaired string, ok bool) {
	normalizedInvalid := Normalize(invalid)
	if len(normalizedInvalid) < 2 {
		return "", false
	}
	country := normalizedInvalid[:2]

	bestDist := -1
	var best string
	for _, c := range candidates {
		if len(c) < 2 || c[:2] != country {
			continue
		}
		d := levenshtein.Distance(normalizedInvalid, c, nil)
		if bestDist == -1 || d < bestDist {
			bestDist = d
			best = c
		}
	}

	if bestDist >= 0 && bestDist <= 3 {
		return best, true
	}
	return "", false
}

// CharSimilarity returns the position-wise character-match fraction between
// two equal-or-near-equal-length strings, used by the drawdown dedup
// tiebreak (§4.7 step 2) to decide whether two IBANs are "the same account,
// noisily transcribed".
func CharSimilarity(a, b string) float64 {
	a, b = Normalize(a), Normalize(b)
	if a == "" || b == "" {
		return 0
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}
	matches := 0
	for i := 0; i < n; i++ {
		if a[i] == b[i] {
			matches++
		}
	}
	longer := len(a)
	if len(b) > longer {
		longer = len(b)
	}
	return float64(matches) / float64(longer)
}

// Package iban implements IBAN validation via MOD-97 with diagnostics
// (§4.8), plus the OCR-assisted repair pass used by the default validator
// and the OCR-verified branch (§4.4.4 step 3).
package iban

import (
	"math/big"
	"regexp"
	"strings"
)

// Issue classifies why a candidate failed validation.
type Issue string

const (
	IssueNone           Issue = ""
	IssueInvalid        Issue = "invalid"
	IssueTooShort       Issue = "too_short"
	IssueTooLong        Issue = "too_long"
	IssueChecksumFailed Issue = "checksum_failed"
	IssueMissing        Issue = "missing"
)

// Diagnosis is the result of validating one candidate IBAN string.
type Diagnosis struct {
	Normalized string
	Valid      bool
	Issue      Issue
	Expected   int // expected length, for too_short/too_long
	Actual     int
}

var structuralPattern = regexp.MustCompile(`^[A-Z]{2}[0-9]{2}[A-Z0-9]{11,30}$`)

// fixedLength maps the countries with a fixed expected length (SK and CZ:
// 24) (§4.8 step 3).
var fixedLength = map[string]int{
	"SK": 24,
	"CZ": 24,
}

// Normalize removes whitespace and upper-cases, the same way under
// whitespace insertion and case change the MOD-97 check must remain stable
// (§8 round-trip property).
func Normalize(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

// Validate runs the full MOD-97-with-diagnostics algorithm (§4.8) on a
// candidate string.
func Validate(candidate string) Diagnosis {
	if strings.TrimSpace(candidate) == "" {
		return Diagnosis{Issue: IssueMissing}
	}

	s := Normalize(candidate)

	if !structuralPattern.MatchString(s) {
		return Diagnosis{Normalized: s, Issue: IssueInvalid}
	}

	country := s[:2]
	if expected, ok := fixedLength[country]; ok && len(s) != expected {
		issue := IssueTooShort
		if len(s) > expected {
			issue = IssueTooLong
		}
		return Diagnosis{Normalized: s, Issue: issue, Expected: expected, Actual: len(s)}
	}

	if !checksumOK(s) {
		return Diagnosis{Normalized: s, Issue: IssueChecksumFailed}
	}

	return Diagnosis{Normalized: s, Valid: true}
}

// checksumOK implements step 4-5 of §4.8: rotate the first four characters
// to the end, substitute letters with their numeric codes (A=10..Z=35),
// and check the resulting big integer is congruent to 1 mod 97.
func checksumOK(s string) bool {
	rotated := s[4:] + s[:4]

	var sb strings.Builder
	for _, r := range rotated {
		switch {
		case r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			sb.WriteString(itoa(int(r-'A') + 10))
		default:
			return false
		}
	}

	n, ok := new(big.Int).SetString(sb.String(), 10)
	if !ok {
		return false
	}

	mod := new(big.Int).Mod(n, big.NewInt(97))
	return mod.Cmp(big.NewInt(1)) == 0
}

func itoa(n int) string {
	if n < 10 {
		return string(rune('0' + n))
	}
	return string(rune('0'+n/10)) + string(rune('0'+n%10))
}

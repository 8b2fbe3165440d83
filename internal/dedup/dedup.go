// Package dedup implements the deduplicating aggregation described in §4.7:
// a composite-key walk over rows with a drawdown-specific IBAN-similarity
// tiebreak.
package dedup

import (
	"fmt"
	"strings"

	"github.com/natthapon/docflow/internal/iban"
)

// KeyFields returns the composite-key fields for a doc-type, and false if
// the doc-type has no defined dedup key (§3).
func KeyFields(docType string) ([]string, bool) {
	switch docType {
	case "drawdown":
		return []string{"variableSymbol", "invoiceNumber"}, true
	case "invoice":
		return []string{"invoiceNumber"}, true
	case "bankStatement":
		return []string{"date", "description", "amount"}, true
	default:
		return nil, false
	}
}

// BuildKey builds the composite key for one row: trim, lower-case, join
// with "|" (§4.7 step 1).
func BuildKey(row map[string]interface{}, fields []string) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = strings.ToLower(strings.TrimSpace(fmt.Sprint(row[f])))
	}
	return strings.Join(parts, "|")
}

func allEmpty(row map[string]interface{}, fields []string) bool {
	for _, f := range fields {
		v, ok := row[f]
		if ok && v != nil && strings.TrimSpace(fmt.Sprint(v)) != "" {
			return false
		}
	}
	return true
}

// Dedupe applies §4.7 to an ordered row slice: first occurrence of a key
// wins, except for drawdown rows whose IBANs are >80% similar and where
// the later row's IBAN validates and the earlier one's doesn't (or vice
// versa) — in that case the MOD-97-valid IBAN wins. All-empty-key rows
// have no dedup identity and pass through individually. Rows are emitted
// in original first-seen order (§4.7 step 3), keyed and empty-key rows
// interleaved exactly as they appeared in the input. Dedupe is
// idempotent: Dedupe(Dedupe(rows, t), t) == Dedupe(rows, t).
func Dedupe(rows []map[string]interface{}, docType string) []map[string]interface{} {
	fields, ok := KeyFields(docType)
	if !ok {
		return rows
	}

	out := make([]map[string]interface{}, 0, len(rows))
	firstIndex := make(map[string]int, len(rows))

	for _, row := range rows {
		if allEmpty(row, fields) {
			out = append(out, row)
			continue
		}

		key := BuildKey(row, fields)
		idx, present := firstIndex[key]
		if !present {
			firstIndex[key] = len(out)
			out = append(out, row)
			continue
		}

		if docType == "drawdown" {
			if winner, replaced := drawdownTiebreak(out[idx], row); replaced {
				out[idx] = winner
			}
		}
		// Otherwise: first occurrence wins, nothing to do.
	}

	return out
}

// drawdownTiebreak implements §4.7 step 2's exception: if both rows carry
// IBANs that are >80% character-similar, promote whichever one passes
// MOD-97 (preferring the new row over an invalid old one).
func drawdownTiebreak(oldRow, newRow map[string]interface{}) (winner map[string]interface{}, replaced bool) {
	oldIBAN, _ := oldRow["iban"].(string)
	newIBAN, _ := newRow["iban"].(string)
	if oldIBAN == "" || newIBAN == "" {
		return oldRow, false
	}

	if iban.CharSimilarity(oldIBAN, newIBAN) <= 0.8 {
		return oldRow, false
	}

	oldValid := iban.Validate(oldIBAN).Valid
	newValid := iban.Validate(newIBAN).Valid

	if !oldValid && newValid {
		return newRow, true
	}
	return oldRow, false
}

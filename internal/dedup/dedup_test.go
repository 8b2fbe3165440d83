package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func row(variableSymbol, invoiceNumber, ibanValue string) map[string]interface{} {
	return map[string]interface{}{
		"variableSymbol": variableSymbol,
		"invoiceNumber":  invoiceNumber,
		"iban":           ibanValue,
	}
}

func TestDedupe_FirstOccurrenceWins(t *testing.T) {
	rows := []map[string]interface{}{
		row("100", "FV1", "SK00"),
		row("100", "FV1", "SK99"), // same key, no IBAN-similarity exception applies
	}
	out := Dedupe(rows, "drawdown")
	assert.Len(t, out, 1)
	assert.Equal(t, "SK00", out[0]["iban"])
}

func TestDedupe_DrawdownTiebreakPromotesValidIBAN(t *testing.T) {
	// Earlier row: single-char-flipped IBAN that fails MOD-97. Later row:
	// same invoice, valid IBAN — similarity must exceed 0.8 for the
	// tiebreak to fire, so keep the flip to one character in a 24-char string.
	valid := "SK8975000000000012345671"
	invalidFlip := "SK8975000000000012345672"

	rows := []map[string]interface{}{
		row("200", "FV2311102553", invalidFlip),
		row("200", "FV2311102553", valid),
	}
	out := Dedupe(rows, "drawdown")
	assert.Len(t, out, 1)
	assert.Equal(t, valid, out[0]["iban"])
}

func TestDedupe_EmptyKeyRowsPassThrough(t *testing.T) {
	rows := []map[string]interface{}{
		row("", "", ""),
		row("", "", ""),
	}
	out := Dedupe(rows, "drawdown")
	assert.Len(t, out, 2)
}

func TestDedupe_PreservesFirstSeenOrder(t *testing.T) {
	rows := []map[string]interface{}{
		row("1", "A", ""),
		row("2", "B", ""),
		row("3", "C", ""),
	}
	out := Dedupe(rows, "drawdown")
	assert.Equal(t, []string{"A", "B", "C"}, []string{
		out[0]["invoiceNumber"].(string),
		out[1]["invoiceNumber"].(string),
		out[2]["invoiceNumber"].(string),
	})
}

func TestDedupe_IsIdempotent(t *testing.T) {
	rows := []map[string]interface{}{
		row("200", "FV2311102553", "SK8975000000000012345672"),
		row("200", "FV2311102553", "SK8975000000000012345671"),
		row("300", "FV9999", "SK0000000000000000000000"),
	}
	once := Dedupe(rows, "drawdown")
	twice := Dedupe(once, "drawdown")
	assert.Equal(t, once, twice)
}

func TestDedupe_UnknownDocTypePassesThroughUnchanged(t *testing.T) {
	rows := []map[string]interface{}{row("1", "A", "")}
	out := Dedupe(rows, "loanContract")
	assert.Equal(t, rows, out)
}

func TestDedupe_InterleavesEmptyAndKeyedRowsInOriginalOrder(t *testing.T) {
	rows := []map[string]interface{}{
		row("", "", ""),   // passthrough, position 0
		row("1", "A", ""), // keyed, first seen at position 1
		row("", "", ""),   // passthrough, position 2
		row("1", "A", ""), // duplicate of position-1 key, dropped
		row("2", "B", ""), // keyed, first seen at position 3 (of output)
	}
	out := Dedupe(rows, "drawdown")
	assert.Len(t, out, 4)
	assert.Equal(t, "", out[0]["invoiceNumber"])
	assert.Equal(t, "A", out[1]["invoiceNumber"])
	assert.Equal(t, "", out[2]["invoiceNumber"])
	assert.Equal(t, "B", out[3]["invoiceNumber"])
}

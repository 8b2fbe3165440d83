package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/natthapon/docflow/internal/docmodel"
)

func TestCleanup_StripsUnderscoreKeysFromRowsAndTopLevel(t *testing.T) {
	req := docmodel.Request{DocType: docmodel.DocTypeDrawdown}
	ctx := docmodel.NewProcessingContext(req)
	ctx.Result = map[string]interface{}{
		"_requestMeta": "debug",
		"totalSum":     12.5,
		"drawdowns": []map[string]interface{}{
			{"invoiceNumber": "FV1", "iban": "SK00", "_tileIndex": 0, "_validationIssue": "checksum_failed"},
			{"invoiceNumber": "FV2", "iban": "SK01", "_tileIndex": 1},
		},
	}

	Cleanup(ctx)

	_, hasMeta := ctx.Result["_requestMeta"]
	assert.False(t, hasMeta)
	assert.Equal(t, 12.5, ctx.Result["totalSum"])

	rows := ctx.Result["drawdowns"].([]map[string]interface{})
	for _, row := range rows {
		for k := range row {
			assert.NotEqual(t, byte('_'), k[0])
		}
	}
	assert.Equal(t, "FV1", rows[0]["invoiceNumber"])
}

func TestCleanup_NilResultIsNoop(t *testing.T) {
	req := docmodel.Request{DocType: docmodel.DocTypeInvoice}
	ctx := docmodel.NewProcessingContext(req)
	assert.NotPanics(t, func() { Cleanup(ctx) })
}

package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/natthapon/docflow/internal/docmodel"
	"github.com/natthapon/docflow/internal/pipectx"
)

func drawdownContext(rows []map[string]interface{}, ocrText string) *docmodel.ProcessingContext {
	req := docmodel.Request{DocType: docmodel.DocTypeDrawdown}
	ctx := docmodel.NewProcessingContext(req)
	ctx.Result = map[string]interface{}{"drawdowns": rows, "totalSum": 0.0}
	ctx.OCRText = ocrText
	return ctx
}

func TestRun_AnnotatesResidualInvalidIBAN(t *testing.T) {
	rows := []map[string]interface{}{
		{"invoiceNumber": "FV1", "iban": "SK0000000000000000000000"}, // checksum_failed, no repair candidate
	}
	ctx := drawdownContext(rows, "")
	rc := pipectx.New()

	Run(ctx, rc)

	out := ctx.Result["drawdowns"].([]map[string]interface{})
	require.Len(t, out, 1)
	assert.Equal(t, "checksum_failed", out[0]["_validationIssue"])
	assert.NotEmpty(t, ctx.Warnings)
}

func TestRun_RepairsFromOCRTextAndClearsAnnotation(t *testing.T) {
	rows := []map[string]interface{}{
		{"invoiceNumber": "FV1", "iban": "SK2002000000001470737253"}, // checksum_failed
	}
	ctx := drawdownContext(rows, "Valid account on file: SK2002000000041470737253")
	rc := pipectx.New()

	Run(ctx, rc)

	out := ctx.Result["drawdowns"].([]map[string]interface{})
	require.Len(t, out, 1)
	assert.Equal(t, "SK2002000000041470737253", out[0]["iban"])
	assert.True(t, ctx.Metadata.ReVerificationRan)
	_, stillFlagged := out[0]["_validationIssue"]
	assert.False(t, stillFlagged)
}

func TestRun_SkipsWhenNoValidatorsConfigured(t *testing.T) {
	req := docmodel.Request{DocType: docmodel.DocTypeInvoice}
	ctx := docmodel.NewProcessingContext(req)
	ctx.Result = map[string]interface{}{"invoiceRows": []map[string]interface{}{{"invoiceNumber": "X"}}}
	rc := pipectx.New()

	Run(ctx, rc)

	assert.Empty(t, ctx.Warnings)
}

func TestRun_IsIdempotentOnResidualInvalidSet(t *testing.T) {
	rows := []map[string]interface{}{
		{"invoiceNumber": "FV1", "iban": "SK0000000000000000000000"},
	}
	ctx := drawdownContext(rows, "")
	rc := pipectx.New()
	Run(ctx, rc)
	firstIssue := ctx.Result["drawdowns"].([]map[string]interface{})[0]["_validationIssue"]

	rc2 := pipectx.New()
	Run(ctx, rc2)
	secondIssue := ctx.Result["drawdowns"].([]map[string]interface{})[0]["_validationIssue"]

	assert.Equal(t, firstIssue, secondIssue)
}

package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/natthapon/docflow/internal/docmodel"
	"github.com/natthapon/docflow/internal/pipectx"
)

func newCtx(docType docmodel.DocType, extractions []docmodel.ExtractionResult) *docmodel.ProcessingContext {
	ctx := docmodel.NewProcessingContext(docmodel.Request{DocType: docType})
	ctx.Extractions = extractions
	return ctx
}

func TestRun_SingleResultPassesThrough(t *testing.T) {
	data := map[string]interface{}{"invoiceRows": []map[string]interface{}{{"invoiceNumber": "FV1"}}}
	ctx := newCtx(docmodel.DocTypeInvoice, []docmodel.ExtractionResult{{Data: data}})
	rc := pipectx.New()

	Run(ctx, rc)

	require.NotNil(t, ctx.Result)
	rows := ctx.Result["invoiceRows"].([]map[string]interface{})
	assert.Len(t, rows, 1)
}

func TestRun_ConcatenatesAcrossTilesAndRecomputesTotalSum(t *testing.T) {
	tile1 := map[string]interface{}{
		"drawdowns": []interface{}{
			map[string]interface{}{"variableSymbol": "1", "invoiceNumber": "A", "iban": "SK8975000000000012345671", "amount": 100.0},
		},
	}
	tile2 := map[string]interface{}{
		"drawdowns": []interface{}{
			map[string]interface{}{"variableSymbol": "2", "invoiceNumber": "B", "iban": "SK8975000000000012345671", "amount": 50.555},
		},
	}
	ctx := newCtx(docmodel.DocTypeDrawdown, []docmodel.ExtractionResult{
		{Data: tile1, TileIndex: 0, HasTile: true},
		{Data: tile2, TileIndex: 1, HasTile: true},
	})
	rc := pipectx.New()

	Run(ctx, rc)

	rows := ctx.Result["drawdowns"].([]map[string]interface{})
	require.Len(t, rows, 2)
	assert.InDelta(t, 150.56, ctx.Result["totalSum"].(float64), 0.001)
}

func TestRun_DrawdownTotalTreatsInvalidAmountAsZero(t *testing.T) {
	tile := map[string]interface{}{
		"drawdowns": []interface{}{
			map[string]interface{}{"variableSymbol": "1", "invoiceNumber": "A", "iban": "SK8975000000000012345671", "amount": "not-a-number"},
			map[string]interface{}{"variableSymbol": "2", "invoiceNumber": "B", "iban": "SK8975000000000012345672", "amount": 25.0},
		},
	}
	ctx := newCtx(docmodel.DocTypeDrawdown, []docmodel.ExtractionResult{{Data: tile}})
	rc := pipectx.New()

	Run(ctx, rc)

	assert.Equal(t, 25.0, ctx.Result["totalSum"])
}

func TestRun_NoExtractionsIsFatal(t *testing.T) {
	ctx := newCtx(docmodel.DocTypeInvoice, nil)
	rc := pipectx.New()

	Run(ctx, rc)

	assert.True(t, ctx.Failed())
}

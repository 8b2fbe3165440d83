// Package aggregate implements the Aggregate stage (§4.5): merging however
// many ExtractionResults the Extract stage produced into the one result
// object the Validate and Cleanup stages operate on.
package aggregate

import (
	"math"

	"github.com/natthapon/docflow/internal/dedup"
	"github.com/natthapon/docflow/internal/docmodel"
	"github.com/natthapon/docflow/internal/pipectx"
)

// Run implements §4.5: pass a single result through as-is (apart from the
// drawdown totalSum recompute); otherwise concatenate the array field
// across results in globalIndex/TileIndex order (§5 ordering guarantee),
// preserving first-seen order, dedup, and for drawdown recompute totalSum.
func Run(ctx *docmodel.ProcessingContext, rc *pipectx.RequestContext) {
	rc.StartStage("aggregate")

	if len(ctx.Extractions) == 0 {
		ctx.Fail(docmodel.NewError(docmodel.KindBackendTransport, "no extraction results to aggregate", nil))
		rc.EndStage("failed", nil, ctx.Error)
		return
	}

	if len(ctx.Extractions) == 1 {
		ctx.Result = ctx.Extractions[0].Data
		finishDrawdownTotal(ctx)
		rc.EndStage("success", nil, nil)
		return
	}

	arrayField, hasArray := ctx.Request.DocType.ArrayField()
	merged := make(map[string]interface{})

	// Non-array top-level fields merge left-to-right, later overrides earlier.
	for _, ext := range ctx.Extractions {
		for k, v := range ext.Data {
			if hasArray && k == arrayField {
				continue
			}
			merged[k] = v
		}
	}

	if hasArray {
		var rows []map[string]interface{}
		for _, ext := range ctx.Extractions {
			raw, ok := ext.Data[arrayField]
			if !ok {
				continue
			}
			rows = append(rows, coerceRows(raw)...)
		}
		merged[arrayField] = dedup.Dedupe(rows, string(ctx.Request.DocType))
	}

	ctx.Result = merged
	finishDrawdownTotal(ctx)
	rc.EndStage("success", nil, nil)
}

func coerceRows(raw interface{}) []map[string]interface{} {
	switch v := raw.(type) {
	case []map[string]interface{}:
		return v
	case []interface{}:
		out := make([]map[string]interface{}, 0, len(v))
		for _, item := range v {
			if row, ok := item.(map[string]interface{}); ok {
				out = append(out, row)
			}
		}
		return out
	default:
		return nil
	}
}

// finishDrawdownTotal overwrites totalSum with the rounded sum of every
// drawdown row's amount (§4.5), treating invalid/missing amounts as zero.
func finishDrawdownTotal(ctx *docmodel.ProcessingContext) {
	if ctx.Request.DocType != docmodel.DocTypeDrawdown || ctx.Result == nil {
		return
	}
	rows := coerceRows(ctx.Result["drawdowns"])

	var sum float64
	for _, row := range rows {
		sum += amountOf(row["amount"])
	}
	ctx.Result["totalSum"] = math.Round(sum*100) / 100
}

func amountOf(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

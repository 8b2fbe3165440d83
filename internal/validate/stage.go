package validate

import (
	"fmt"

	"github.com/natthapon/docflow/internal/docmodel"
	"github.com/natthapon/docflow/internal/pipectx"
)

// Run executes the Validate stage (§4.6, §4.11): for each configured
// validator, find invalid rows, log them, attempt OCR-based repair, apply
// repairs, re-scan, and annotate any row still invalid with
// _validationIssue/_validationDetails.
func Run(ctx *docmodel.ProcessingContext, rc *pipectx.RequestContext) {
	rc.StartStage("validate")

	validators := Registry[string(ctx.Request.DocType)]
	if len(validators) == 0 {
		rc.EndStage("skipped", nil, nil)
		return
	}

	arrayField, hasArray := ctx.Request.DocType.ArrayField()
	if !hasArray || ctx.Result == nil {
		rc.EndStage("skipped", nil, nil)
		return
	}

	var rows []map[string]interface{}
	switch raw := ctx.Result[arrayField].(type) {
	case []map[string]interface{}:
		rows = raw
	case []interface{}:
		for _, item := range raw {
			if row, ok := item.(map[string]interface{}); ok {
				rows = append(rows, row)
			}
		}
	}
	ctx.Result[arrayField] = rows

	for _, v := range validators {
		invalid := v.FindInvalid(rows)
		if len(invalid) > 0 {
			rc.LogInfo("validator found %d invalid row(s)", len(invalid))
		}

		repaired := v.Repair(invalid, ctx.OCRText)
		if len(repaired) > 0 {
			v.ApplyRepairs(ctx.Result, repaired, arrayField)
			rows, _ = ctx.Result[arrayField].([]map[string]interface{})
			ctx.Metadata.ReVerificationRan = true
		}

		stillInvalid := v.FindInvalid(rows)
		for _, row := range stillInvalid {
			v.Annotate(row)
			ctx.Warn(fmt.Sprintf("residual validation issue on row: %v", row["_validationIssue"]))
		}
	}

	ctx.Result[arrayField] = rows
	rc.EndStage("success", nil, nil)
}

package extract

import (
	"context"

	"github.com/natthapon/docflow/internal/docmodel"
	"github.com/natthapon/docflow/internal/model"
	"github.com/natthapon/docflow/internal/pipectx"
)

// runNativePDF implements §4.4.1: skip Tiling entirely, send the original
// file bytes plus MIME plus schema-in-prompt in one call, returning a
// single ExtractionResult untagged — there is nothing to correlate.
func runNativePDF(ctx context.Context, pctx *docmodel.ProcessingContext, rc *pipectx.RequestContext, backend model.Backend) {
	req := pctx.Request
	instructions := buildInstructions(req)

	callCtx, cancel := context.WithTimeout(ctx, wholeDocTimeout())
	defer cancel()

	s, enforce := schemaFor(req)
	res, err := backend.ExtractNative(callCtx, req.File, req.MimeType, instructions, req.DocType, s, enforce)
	if err != nil {
		pctx.Fail(err)
		return
	}

	pctx.Extractions = []docmodel.ExtractionResult{{Data: res.Data, ResponseID: res.ResponseID}}
}

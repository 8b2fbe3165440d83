package extract

import (
	"context"

	"github.com/natthapon/docflow/internal/docmodel"
	"github.com/natthapon/docflow/internal/model"
	"github.com/natthapon/docflow/internal/pipectx"
)

// runOCROnly implements §4.4.3: a single call carrying the full OCR text
// and no image, using the whole-document timeout.
func runOCROnly(ctx context.Context, pctx *docmodel.ProcessingContext, rc *pipectx.RequestContext, backend model.Backend) {
	req := pctx.Request
	instructions := ocrOnlyInstructions(req, pctx.OCRText)

	callCtx, cancel := context.WithTimeout(ctx, wholeDocTimeout())
	defer cancel()

	s, enforce := schemaFor(req)
	res, err := backend.Extract(callCtx, []model.ContentPart{model.TextPart(instructions)}, instructions, req.DocType, s, enforce, model.ExtractOptions{})
	if err != nil {
		pctx.Fail(err)
		return
	}

	pctx.Extractions = []docmodel.ExtractionResult{{Data: res.Data, ResponseID: res.ResponseID}}
}

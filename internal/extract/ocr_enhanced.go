package extract

import (
	"context"
	"strconv"

	"github.com/natthapon/docflow/internal/docmodel"
	"github.com/natthapon/docflow/internal/model"
	"github.com/natthapon/docflow/internal/pipectx"
)

// runOCREnhanced implements §4.4.2: one call per page, combining that
// page's OCR text with its image; rows are stamped with _pageIndex only
// (there is no tile concept in this branch).
func runOCREnhanced(ctx context.Context, pctx *docmodel.ProcessingContext, rc *pipectx.RequestContext, backend model.Backend) {
	req := pctx.Request
	arrayField := arrayFieldOf(req.DocType)

	results := make([]docmodel.ExtractionResult, 0, len(pctx.Images))
	for pageIdx, page := range pctx.Images {
		ocrText := ""
		if pageIdx < len(pctx.OCRResults) {
			ocrText = pctx.OCRResults[pageIdx].Text
		}

		instructions := ocrEnhancedInstructions(req, pageIdx, ocrText)
		parts := []model.ContentPart{
			model.TextPart(instructions),
			model.ImagePart(page, "image/jpeg"),
		}

		s, enforce := schemaFor(req)
		callCtx, cancel := context.WithTimeout(ctx, tileTimeout())
		res, err := backend.Extract(callCtx, parts, instructions, req.DocType, s, enforce, model.ExtractOptions{})
		cancel()
		if err != nil {
			pctx.Warn("page " + strconv.Itoa(pageIdx) + " extraction dropped: " + err.Error())
			continue
		}

		tagRows(res.Data, arrayField, tagInfo{pageIndex: pageIdx, hasPage: true})
		results = append(results, docmodel.ExtractionResult{Data: res.Data, ResponseID: res.ResponseID, TileIndex: pageIdx, HasTile: true})
	}

	pctx.Extractions = results
}

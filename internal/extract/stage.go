// Package extract implements the Extract stage (§4.4): four branches
// sharing one ModelBackend contract, and three dispatch modes for the
// tile-based image branch (single, sequential, parallel with retry and
// rate limiting).
package extract

import (
	"context"

	"github.com/natthapon/docflow/internal/docmodel"
	"github.com/natthapon/docflow/internal/model"
	"github.com/natthapon/docflow/internal/pipectx"
)

// Run dispatches to the branch selected by the request's pipeline mode and
// document type, then writes ctx.Extractions (or ctx.Error on fatal
// failure).
func Run(ctx context.Context, pctx *docmodel.ProcessingContext, rc *pipectx.RequestContext, backend model.Backend) {
	rc.StartStage("extract")

	switch pctx.Request.Options.PipelineMode {
	case docmodel.ModeOCROnly:
		if pctx.OCRText == "" {
			pctx.Fail(docmodel.NewError(docmodel.KindOCRUnavailable, "ocr-only mode requires OCR text but none was captured", nil))
			rc.EndStage("failed", nil, pctx.Error)
			return
		}
		runOCROnly(ctx, pctx, rc, backend)

	case docmodel.ModeOCREnhanced:
		if !pctx.Metadata.OCRAvailable {
			pctx.Fail(docmodel.NewError(docmodel.KindBackendUnconfigured, "ocr-enhanced mode requires an OCR collaborator but none is configured", nil))
			rc.EndStage("failed", nil, pctx.Error)
			return
		}
		runOCREnhanced(ctx, pctx, rc, backend)

	case docmodel.ModeOCRVerified:
		if pctx.Request.DocType != docmodel.DocTypeDrawdown {
			pctx.Fail(docmodel.NewError(docmodel.KindBadRequest, "ocr-verified mode only applies to drawdown documents", nil))
			rc.EndStage("failed", nil, pctx.Error)
			return
		}
		runOCRVerified(ctx, pctx, rc, backend)

	default:
		runImageBranch(ctx, pctx, rc, backend)
	}

	if pctx.Failed() {
		rc.EndStage("failed", nil, pctx.Error)
		return
	}
	rc.EndStage("success", nil, nil)
}

// runImageBranch picks native-PDF (§4.4.1) when the backend can take the
// file directly and the source is a PDF; otherwise dispatches over the
// tiles the Tiling stage produced, per §4.4's three dispatch modes.
func runImageBranch(ctx context.Context, pctx *docmodel.ProcessingContext, rc *pipectx.RequestContext, backend model.Backend) {
	req := pctx.Request

	if backend.SupportsNativeFile() && req.MimeType == "application/pdf" {
		runNativePDF(ctx, pctx, rc, backend)
		return
	}

	instructions := buildInstructions(req)

	var results []docmodel.ExtractionResult
	switch {
	case len(pctx.Tiles) == 0:
		pctx.Warn("no tiles produced; nothing to extract")
	case len(pctx.Tiles) == 1:
		results = dispatchSingle(ctx, backend, req, instructions, pctx.Tiles, rc)
	case req.Options.ParallelMode:
		results = dispatchParallel(ctx, backend, req, instructions, pctx.Tiles, pctx, rc)
	default:
		results = dispatchSequential(ctx, backend, req, instructions, pctx.Tiles, pctx, rc)
	}

	if len(results) == 0 && len(pctx.Tiles) > 0 {
		pctx.Fail(docmodel.NewError(docmodel.KindBackendTransport, "every tile failed extraction", nil))
		return
	}
	pctx.Extractions = results
}

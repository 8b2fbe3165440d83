// Package pipeline wires the individual stage packages into the linear
// state machine described in §4.11:
//
//	created → preprocess → [ocr] → [tiling] → extract → aggregate →
//	validate → cleanup → emitted
//
// Setting context.error at any stage short-circuits straight to failed;
// Run still returns a structured error payload rather than panicking.
package pipeline

import (
	"context"

	"github.com/natthapon/docflow/internal/aggregate"
	"github.com/natthapon/docflow/internal/docmodel"
	"github.com/natthapon/docflow/internal/extract"
	"github.com/natthapon/docflow/internal/model"
	"github.com/natthapon/docflow/internal/ocr"
	"github.com/natthapon/docflow/internal/pipectx"
	"github.com/natthapon/docflow/internal/preprocess"
	"github.com/natthapon/docflow/internal/tiling"
	"github.com/natthapon/docflow/internal/validate"
)

// Response is what Run returns to its caller: either a populated result or
// a structured error (§6.3, §7).
type Response struct {
	RequestID string
	Result    map[string]interface{}
	Warnings  []string
	Summary   map[string]interface{}
	Error     *docmodel.PipelineError
}

// Deps are the pipeline's external collaborators, injected so callers (the
// HTTP server, the CLI) can construct them once and reuse across requests.
type Deps struct {
	Backend     model.Backend
	OCRProvider ocr.Provider
}

// Run executes one request end to end. It never panics on a stage
// failure — ctx.Error is checked after every stage and short-circuits the
// remaining ones.
func Run(runCtx context.Context, req docmodel.Request, deps Deps) Response {
	req.Options = req.Options.Defaults(req.DocType)

	rc := pipectx.New()
	ctx := docmodel.NewProcessingContext(req)

	preprocess.Run(ctx, rc)
	if !shortCircuit(ctx, rc) {
		runOCRIfNeeded(runCtx, ctx, rc, deps.OCRProvider)
	}
	if !shortCircuit(ctx, rc) {
		runTilingUnlessNative(ctx, rc, deps.Backend)
	}
	if !shortCircuit(ctx, rc) {
		extract.Run(runCtx, ctx, rc, deps.Backend)
	}
	if !shortCircuit(ctx, rc) {
		aggregate.Run(ctx, rc)
	}
	if !shortCircuit(ctx, rc) {
		validate.Run(ctx, rc)
	}
	if !shortCircuit(ctx, rc) {
		validate.Cleanup(ctx)
	}

	return buildResponse(ctx, rc)
}

func shortCircuit(ctx *docmodel.ProcessingContext, rc *pipectx.RequestContext) bool {
	return ctx.Failed()
}

func runOCRIfNeeded(runCtx context.Context, ctx *docmodel.ProcessingContext, rc *pipectx.RequestContext, provider ocr.Provider) {
	if !ocr.ShouldRun(ctx) {
		return
	}
	ocr.Run(runCtx, ctx, rc, provider)
}

// runTilingUnlessNative skips the Tiling stage for the native-PDF branch
// (§4.4.1: "skips Tiling entirely"), which is selected whenever the
// backend can take the file directly and the source is a PDF.
func runTilingUnlessNative(ctx *docmodel.ProcessingContext, rc *pipectx.RequestContext, backend model.Backend) {
	if backend != nil && backend.SupportsNativeFile() && ctx.Request.MimeType == "application/pdf" {
		return
	}
	if ctx.Request.Options.PipelineMode == docmodel.ModeOCROnly || ctx.Request.Options.PipelineMode == docmodel.ModeOCRVerified {
		// OCR-only has no image payload; OCR-verified sends whole pages, not tiles.
		return
	}
	tiling.Run(ctx, rc)
}

func buildResponse(ctx *docmodel.ProcessingContext, rc *pipectx.RequestContext) Response {
	resp := Response{
		RequestID: rc.RequestID,
		Summary:   rc.Summary(),
	}
	// Warnings are diagnostic detail: only surface them when the caller
	// asked for verbose debug output.
	if ctx.Request.Options.VerboseDebug {
		resp.Warnings = ctx.Warnings
	}

	if ctx.Failed() {
		if pe, ok := ctx.Error.(*docmodel.PipelineError); ok {
			resp.Error = pe
		} else {
			resp.Error = docmodel.NewError(docmodel.KindBackendTransport, ctx.Error.Error(), ctx.Error)
		}
		return resp
	}

	resp.Result = ctx.Result
	return resp
}

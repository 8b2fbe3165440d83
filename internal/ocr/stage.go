package ocr

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/natthapon/docflow/internal/docmodel"
	"github.com/natthapon/docflow/internal/pipectx"
)

// pageSeparator joins per-page OCR text into the context's ocrText (§3).
const pageSeparator = "\n\n---\n\n"

type ocrJob struct {
	index int
	image []byte
}

type ocrOutcome struct {
	index  int
	result docmodel.OCRResult
	err    error
}

// ShouldRun reports whether the OCR pre-pass is requested for this run,
// either explicitly (Options.UseOCR) or implied by pipeline mode.
func ShouldRun(ctx *docmodel.ProcessingContext) bool {
	opts := ctx.Request.Options
	if opts.UseOCR {
		return true
	}
	switch opts.PipelineMode {
	case docmodel.ModeOCREnhanced, docmodel.ModeOCROnly, docmodel.ModeOCRVerified:
		return true
	default:
		return false
	}
}

// Run executes the OCR pre-pass with bounded concurrency (default 3),
// grounded on the teacher's AnalyzeReceiptHandler image-download worker
// pool (jobsChan/resultsChan, numWorkers). Failure is non-fatal (§4.2):
// with no provider it records a warning and leaves OCRAvailable false, so
// the OCR-dependent Extract branches stop with a structured error; when
// the provider fails on some pages it records one warning, keeps empty
// text for those pages, and still marks OCR available.
func Run(runCtx context.Context, ctx *docmodel.ProcessingContext, rc *pipectx.RequestContext, provider Provider) {
	rc.StartStage("ocr")

	if provider == nil {
		ctx.Warn("OCR requested but no provider configured")
		ctx.Metadata.OCRAvailable = false
		rc.EndStage("skipped", nil, nil)
		return
	}

	concurrency := ctx.Request.Options.OCRConcurrency
	if concurrency <= 0 {
		concurrency = 3
	}
	language := ctx.Request.Options.OCRLanguage

	jobs := make(chan ocrJob)
	results := make(chan ocrOutcome, len(ctx.Images))

	var wg sync.WaitGroup
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				text, confidence, wordCount, err := provider.ProcessImage(runCtx, job.image, language)
				results <- ocrOutcome{
					index: job.index,
					result: docmodel.OCRResult{
						Text:       text,
						Confidence: confidence,
						WordCount:  wordCount,
					},
					err: err,
				}
			}
		}()
	}

	go func() {
		for i, img := range ctx.Images {
			jobs <- ocrJob{index: i, image: img}
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	ordered := make([]docmodel.OCRResult, len(ctx.Images))
	var firstErr error
	for outcome := range results {
		if outcome.err != nil {
			if firstErr == nil {
				firstErr = outcome.err
			}
			continue
		}
		ordered[outcome.index] = outcome.result
	}

	if firstErr != nil {
		ctx.Warn(fmt.Sprintf("OCR pre-pass encountered errors: %v", firstErr))
	}

	ctx.OCRResults = ordered
	ctx.OCRText = joinOCRText(ordered)
	ctx.Metadata.OCRAvailable = true

	rc.EndStage("success", nil, nil)
}

func joinOCRText(results []docmodel.OCRResult) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, r.Text)
	}
	return strings.Join(parts, pageSeparator)
}

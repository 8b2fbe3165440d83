package ocr

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/natthapon/docflow/internal/docmodel"
	"github.com/natthapon/docflow/internal/pipectx"
)

type fakeProvider struct {
	inFlight  int32
	maxInFlight int32
	fail      map[int]bool
	callIndex int32
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) ProcessImage(ctx context.Context, image []byte, language string) (string, float64, int, error) {
	n := atomic.AddInt32(&p.inFlight, 1)
	for {
		max := atomic.LoadInt32(&p.maxInFlight)
		if n <= max || atomic.CompareAndSwapInt32(&p.maxInFlight, max, n) {
			break
		}
	}
	defer atomic.AddInt32(&p.inFlight, -1)

	idx := int(atomic.AddInt32(&p.callIndex, 1)) - 1
	if p.fail != nil && p.fail[idx] {
		return "", 0, 0, errors.New("ocr backend unavailable")
	}
	return fmt.Sprintf("page%d", image[0]), 0.9, 1, nil
}

func newImageContext(docType docmodel.DocType, n int, concurrency int) *docmodel.ProcessingContext {
	req := docmodel.Request{DocType: docType, Options: docmodel.Options{OCRConcurrency: concurrency}}
	ctx := docmodel.NewProcessingContext(req)
	ctx.Images = make([][]byte, n)
	for i := range ctx.Images {
		ctx.Images[i] = []byte{byte(i)}
	}
	return ctx
}

func TestShouldRun_TrueWhenOptionsRequestIt(t *testing.T) {
	req := docmodel.Request{Options: docmodel.Options{UseOCR: true}}
	ctx := docmodel.NewProcessingContext(req)
	assert.True(t, ShouldRun(ctx))
}

func TestShouldRun_TrueForOCRDependentModes(t *testing.T) {
	for _, mode := range []docmodel.PipelineMode{docmodel.ModeOCREnhanced, docmodel.ModeOCROnly, docmodel.ModeOCRVerified} {
		req := docmodel.Request{Options: docmodel.Options{PipelineMode: mode}}
		ctx := docmodel.NewProcessingContext(req)
		assert.True(t, ShouldRun(ctx), "mode %s should require OCR", mode)
	}
}

func TestShouldRun_FalseByDefault(t *testing.T) {
	req := docmodel.Request{Options: docmodel.Options{PipelineMode: docmodel.ModeDefault}}
	ctx := docmodel.NewProcessingContext(req)
	assert.False(t, ShouldRun(ctx))
}

func TestRun_NilProviderIsNonFatalAndMarksOCRUnavailable(t *testing.T) {
	ctx := newImageContext(docmodel.DocTypeInvoice, 2, 3)
	rc := pipectx.New()

	Run(context.Background(), ctx, rc, nil)

	assert.False(t, ctx.Failed())
	assert.False(t, ctx.Metadata.OCRAvailable)
	assert.NotEmpty(t, ctx.Warnings)
}

func TestRun_BoundsConcurrencyToConfiguredLimit(t *testing.T) {
	provider := &fakeProvider{}
	ctx := newImageContext(docmodel.DocTypeInvoice, 9, 2)
	rc := pipectx.New()

	Run(context.Background(), ctx, rc, provider)

	require.True(t, ctx.Metadata.OCRAvailable)
	assert.LessOrEqual(t, atomic.LoadInt32(&provider.maxInFlight), int32(2))
}

func TestRun_PreservesPageOrderInJoinedText(t *testing.T) {
	provider := &fakeProvider{}
	ctx := newImageContext(docmodel.DocTypeInvoice, 3, 3)
	rc := pipectx.New()

	Run(context.Background(), ctx, rc, provider)

	require.Len(t, ctx.OCRResults, 3)
	for i, r := range ctx.OCRResults {
		assert.Equal(t, fmt.Sprintf("page%d", i), r.Text)
	}
	assert.Equal(t, "page0\n\n---\n\npage1\n\n---\n\npage2", ctx.OCRText)
}

func TestRun_PartialFailureIsNonFatalAndWarns(t *testing.T) {
	provider := &fakeProvider{fail: map[int]bool{1: true}}
	ctx := newImageContext(docmodel.DocTypeInvoice, 3, 3)
	rc := pipectx.New()

	Run(context.Background(), ctx, rc, provider)

	assert.False(t, ctx.Failed())
	assert.True(t, ctx.Metadata.OCRAvailable)
	assert.NotEmpty(t, ctx.Warnings)
}

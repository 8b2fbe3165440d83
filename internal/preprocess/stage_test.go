package preprocess

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/natthapon/docflow/internal/docmodel"
	"github.com/natthapon/docflow/internal/pipectx"
)

func solidJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}))
	return buf.Bytes()
}

func TestNormalizeAndEncode_ResizesOnlyWhenWiderThanMaxWidth(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2000, 1000))
	encoded, err := NormalizeAndEncode(img, NormalizeParams{MaxWidth: 1000})
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(encoded))
	require.NoError(t, err)
	assert.Equal(t, 1000, decoded.Bounds().Dx())
}

func TestNormalizeAndEncode_LeavesNarrowImageUntouched(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 500, 400))
	encoded, err := NormalizeAndEncode(img, NormalizeParams{MaxWidth: 1000})
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(encoded))
	require.NoError(t, err)
	assert.Equal(t, 500, decoded.Bounds().Dx())
}

func TestNormalizeAndEncode_DefaultsQualityWhenUnset(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	_, err := NormalizeAndEncode(img, NormalizeParams{})
	require.NoError(t, err)
}

func TestRun_ImageMimeTypePassesFileThroughUnchanged(t *testing.T) {
	data := solidJPEG(t, 100, 100)
	req := docmodel.Request{File: data, MimeType: "image/jpeg"}
	ctx := docmodel.NewProcessingContext(req)
	rc := pipectx.New()

	Run(ctx, rc)

	require.False(t, ctx.Failed())
	require.Len(t, ctx.Images, 1)
	assert.Equal(t, data, ctx.Images[0])
}

func TestRun_UnsupportedMimeTypeIsFatalBadRequest(t *testing.T) {
	req := docmodel.Request{File: []byte("not an image"), MimeType: "application/zip"}
	ctx := docmodel.NewProcessingContext(req)
	rc := pipectx.New()

	Run(ctx, rc)

	require.True(t, ctx.Failed())
	pe, ok := ctx.Error.(*docmodel.PipelineError)
	require.True(t, ok)
	assert.Equal(t, docmodel.KindBadRequest, pe.Kind)
}

// Package preprocess implements the Preprocess stage (§4.1): PDF
// rasterisation plus image normalisation, or pass-through for images.
package preprocess

import (
	"github.com/natthapon/docflow/configs"
	"github.com/natthapon/docflow/internal/docmodel"
	"github.com/natthapon/docflow/internal/pipectx"
)

var imageMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Run executes the Preprocess stage in place on ctx (§4.1, §4.11).
func Run(ctx *docmodel.ProcessingContext, rc *pipectx.RequestContext) {
	rc.StartStage("preprocess")
	defer func() { rc.EndStage(status(ctx), nil, ctx.Error) }()

	switch {
	case ctx.Request.MimeType == "application/pdf":
		runPDF(ctx)
	case imageMimeTypes[ctx.Request.MimeType]:
		ctx.Images = [][]byte{ctx.Request.File}
	default:
		ctx.Fail(docmodel.NewError(docmodel.KindBadRequest, "unsupported media type: "+ctx.Request.MimeType, nil))
	}
}

func runPDF(ctx *docmodel.ProcessingContext) {
	pages, err := RasterizePDF(ctx.Request.File, RasterParams{
		DPI:      configs.PDF_RENDER_DPI,
		MaxPages: configs.PDF_MAX_PAGES,
	})
	if err != nil {
		ctx.Fail(docmodel.NewError(docmodel.KindBadRequest, "pdf rasterisation failed", err))
		return
	}

	images := make([][]byte, 0, len(pages))
	for _, page := range pages {
		encoded, err := NormalizeAndEncode(page, NormalizeParams{
			MaxWidth:    configs.PDF_MAX_WIDTH,
			JPEGQuality: configs.PDF_JPEG_QUALITY,
			Grayscale:   configs.PDF_GRAYSCALE,
			Normalise:   configs.PDF_NORMALISE,
		})
		if err != nil {
			ctx.Fail(docmodel.NewError(docmodel.KindBadRequest, "page normalisation failed", err))
			return
		}
		images = append(images, encoded)
	}
	ctx.Images = images
}

func status(ctx *docmodel.ProcessingContext) string {
	if ctx.Failed() {
		return "failed"
	}
	return "success"
}

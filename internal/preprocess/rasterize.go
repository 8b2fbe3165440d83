package preprocess

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/gen2brain/go-fitz"
)

// RasterParams controls PDF→image rasterisation (§4.1).
type RasterParams struct {
	DPI      int
	MaxPages int
}

// defaultRasterDPI matches go-fitz's own Image(n) default (72dpi is the PDF
// point-to-pixel unit, so a bare 0 means "don't rescale").
const defaultRasterDPI = 72.0

// RasterizePDF renders each page of a PDF to an image.Image at params.DPI,
// grounded on _examples/other_examples's gen2brain/go-fitz usage
// (fitz.NewFromMemory, doc.ImagePNG, doc.NumPage) — the DPI-aware sibling
// of doc.Image(n) that that example's SafeDocument.ImagePNG wraps. fitz
// documents are not safe for concurrent page access (see that same
// SafeDocument-with-mutex pattern); this function only reads pages
// sequentially, so no locking is needed here.
func RasterizePDF(data []byte, params RasterParams) ([]image.Image, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	if params.MaxPages > 0 && pageCount > params.MaxPages {
		pageCount = params.MaxPages
	}

	dpi := float64(params.DPI)
	if dpi <= 0 {
		dpi = defaultRasterDPI
	}

	pages := make([]image.Image, 0, pageCount)
	for n := 0; n < pageCount; n++ {
		raw, err := doc.ImagePNG(n, dpi)
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w", n, err)
		}
		img, err := png.Decode(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("decode rendered page %d: %w", n, err)
		}
		pages = append(pages, img)
	}
	return pages, nil
}

package preprocess

import (
	"bytes"
	"image"
	"image/jpeg"

	"github.com/disintegration/imaging"
)

// NormalizeParams controls the resize/grayscale/contrast chain applied to
// each rasterised page before JPEG encoding (§4.1).
type NormalizeParams struct {
	MaxWidth     int
	JPEGQuality  int
	Grayscale    bool
	Normalise    bool
}

// NormalizeAndEncode resizes (preserving aspect ratio, only when the image
// is wider than MaxWidth), optionally grayscales and histogram-normalises,
// then JPEG-encodes. This is the same disintegration/imaging call chain the
// teacher uses in internal/processor/imageprocessor.go, generalized from a
// fixed set of enhancement presets to the three independent knobs the
// pipeline's rasteriser options expose.
func NormalizeAndEncode(img image.Image, params NormalizeParams) ([]byte, error) {
	bounds := img.Bounds()
	width := bounds.Dx()

	if params.MaxWidth > 0 && width > params.MaxWidth {
		img = imaging.Resize(img, params.MaxWidth, 0, imaging.Lanczos)
	}

	if params.Grayscale {
		img = imaging.Grayscale(img)
	}

	if params.Normalise {
		img = imaging.AdjustContrast(img, 20)
		img = imaging.AdjustGamma(img, 1.05)
	}

	quality := params.JPEGQuality
	if quality <= 0 {
		quality = 90
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

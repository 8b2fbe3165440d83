// Package tiling implements the Tiling stage (§4.3): deciding whether a
// page needs spatial tiling, and if so, producing a shared header strip
// plus overlapping horizontal slices.
package tiling

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"

	"github.com/natthapon/docflow/internal/docmodel"
)

// Geometry holds the pixel parameters that control tiling (§4.3).
type Geometry struct {
	HeaderHeight int
	SliceHeight  int
	Overlap      int
}

// DefaultGeometry matches the documented defaults.
func DefaultGeometry() Geometry {
	return Geometry{HeaderHeight: 300, SliceHeight: 700, Overlap: 100}
}

// ShouldTile reports whether a page needs tiling: height > 1.5 ×
// configured slice height (§4.3 and the boundary test in §8 — exactly
// 1.5× is NOT tiled).
func ShouldTile(pageHeight int, g Geometry) bool {
	return float64(pageHeight) > 1.5*float64(g.SliceHeight)
}

// BuildTiles decodes each page, decides tile-or-not, and emits Tiles in
// (pageIndex, sliceIndex) order with monotonically increasing GlobalIndex
// (§3 invariant 2).
func BuildTiles(pages [][]byte, g Geometry) ([]docmodel.Tile, error) {
	var tiles []docmodel.Tile
	globalIndex := 0

	for pageIdx, page := range pages {
		img, _, err := image.Decode(bytes.NewReader(page))
		if err != nil {
			return nil, fmt.Errorf("decode page %d: %w", pageIdx, err)
		}
		height := img.Bounds().Dy()

		if !ShouldTile(height, g) {
			tiles = append(tiles, docmodel.Tile{
				PageIndex:   pageIdx,
				SliceIndex:  0,
				GlobalIndex: globalIndex,
				Images:      [][]byte{page},
				IsTiled:     false,
				RawSlice:    page,
			})
			globalIndex++
			continue
		}

		headerImg := imaging.Crop(img, image.Rect(0, 0, img.Bounds().Dx(), g.HeaderHeight))
		headerJPEG, err := encodeJPEG(headerImg)
		if err != nil {
			return nil, fmt.Errorf("encode header for page %d: %w", pageIdx, err)
		}

		sliceIdx := 0
		step := g.SliceHeight - g.Overlap
		if step <= 0 {
			step = g.SliceHeight
		}
		for y := g.HeaderHeight; y < height; y += step {
			remaining := height - y
			if remaining <= g.Overlap {
				break
			}
			sliceEnd := y + g.SliceHeight
			if sliceEnd > height {
				sliceEnd = height
			}
			sliceImg := imaging.Crop(img, image.Rect(0, y, img.Bounds().Dx(), sliceEnd))
			sliceJPEG, err := encodeJPEG(sliceImg)
			if err != nil {
				return nil, fmt.Errorf("encode slice %d of page %d: %w", sliceIdx, pageIdx, err)
			}

			tiles = append(tiles, docmodel.Tile{
				PageIndex:   pageIdx,
				SliceIndex:  sliceIdx,
				GlobalIndex: globalIndex,
				Images:      [][]byte{headerJPEG, sliceJPEG},
				IsTiled:     true,
				RawSlice:    sliceJPEG,
				RawHeader:   headerJPEG,
			})
			globalIndex++
			sliceIdx++

			if sliceEnd >= height {
				break
			}
		}
	}

	return tiles, nil
}

// encodeJPEG re-encodes a strip at quality 95 per §4.3.
func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

package tiling

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeBlankJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func TestShouldTile_BoundaryExactlyOneAndHalfIsNotTiled(t *testing.T) {
	g := Geometry{HeaderHeight: 300, SliceHeight: 700, Overlap: 100}
	assert.False(t, ShouldTile(1050, g)) // exactly 1.5x
	assert.True(t, ShouldTile(1051, g))  // one px over
}

func TestBuildTiles_UntiledPageIsSingleTile(t *testing.T) {
	page := encodeBlankJPEG(t, 800, 900) // below the 1.5x threshold
	g := DefaultGeometry()

	tiles, err := BuildTiles([][]byte{page}, g)
	require.NoError(t, err)
	require.Len(t, tiles, 1)
	assert.False(t, tiles[0].IsTiled)
	assert.Equal(t, 0, tiles[0].GlobalIndex)
	assert.Len(t, tiles[0].Images, 1)
}

func TestBuildTiles_TallPageProducesHeaderPlusSlices(t *testing.T) {
	page := encodeBlankJPEG(t, 800, 3000)
	g := DefaultGeometry() // header=300 slice=700 overlap=100

	tiles, err := BuildTiles([][]byte{page}, g)
	require.NoError(t, err)
	require.NotEmpty(t, tiles)

	for i, tile := range tiles {
		assert.True(t, tile.IsTiled)
		assert.Equal(t, i, tile.GlobalIndex)
		assert.Len(t, tile.Images, 2) // header + slice
		assert.NotNil(t, tile.RawHeader)
	}
}

func TestBuildTiles_GlobalIndexMonotonicAcrossPages(t *testing.T) {
	tall := encodeBlankJPEG(t, 800, 3000)
	short := encodeBlankJPEG(t, 800, 900)
	g := DefaultGeometry()

	tiles, err := BuildTiles([][]byte{tall, short}, g)
	require.NoError(t, err)
	require.True(t, len(tiles) >= 2)

	for i, tile := range tiles {
		assert.Equal(t, i, tile.GlobalIndex)
	}
	// the short page's tile must come after every tall-page slice.
	assert.Equal(t, 1, tiles[len(tiles)-1].PageIndex)
}

package tiling

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/natthapon/docflow/internal/docmodel"
	"github.com/natthapon/docflow/internal/pipectx"
)

// Run executes the Tiling stage in place on ctx (§4.3, §4.11). It is
// skipped entirely for the native-PDF branch, whose caller never invokes
// this stage.
func Run(ctx *docmodel.ProcessingContext, rc *pipectx.RequestContext) {
	rc.StartStage("tiling")

	opts := ctx.Request.Options
	geometry := Geometry{
		HeaderHeight: opts.HeaderHeight,
		SliceHeight:  opts.SliceHeight,
		Overlap:      opts.Overlap,
	}
	if geometry.HeaderHeight <= 0 || geometry.SliceHeight <= 0 {
		geometry = DefaultGeometry()
	}

	enableTiling := opts.EnableTiling == nil || *opts.EnableTiling
	if !enableTiling {
		geometry.SliceHeight = 1 << 30 // effectively disables ShouldTile
	}

	tiles, err := BuildTiles(ctx.Images, geometry)
	if err != nil {
		ctx.Fail(docmodel.NewError(docmodel.KindBadRequest, "tiling failed", err))
		rc.EndStage("failed", nil, ctx.Error)
		return
	}

	ctx.Tiles = tiles
	dumpDebug(ctx)
	rc.EndStage("success", nil, nil)
}

func dumpDebug(ctx *docmodel.ProcessingContext) {
	dir := ctx.Request.Options.DebugOutputDir
	if dir == "" {
		return
	}
	for _, t := range ctx.Tiles {
		if t.RawHeader != nil {
			p := filepath.Join(dir, fmt.Sprintf("page%d_header.jpg", t.PageIndex))
			_ = os.WriteFile(p, t.RawHeader, 0o644)
		}
		name := fmt.Sprintf("page%d_slice%d.jpg", t.PageIndex, t.SliceIndex)
		_ = os.WriteFile(filepath.Join(dir, name), t.RawSlice, 0o644)
	}
}

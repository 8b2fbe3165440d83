package extract

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/natthapon/docflow/configs"
	"github.com/natthapon/docflow/internal/docmodel"
	"github.com/natthapon/docflow/internal/model"
	"github.com/natthapon/docflow/internal/pipectx"
	"github.com/natthapon/docflow/internal/ratelimit"
	"github.com/natthapon/docflow/internal/retry"
	"github.com/natthapon/docflow/internal/schema"
)

func tileTimeout() time.Duration {
	return time.Duration(configs.TILE_TIMEOUT_SECONDS) * time.Second
}

func wholeDocTimeout() time.Duration {
	return time.Duration(configs.WHOLE_DOC_TIMEOUT_SECONDS) * time.Second
}

// schemaFor returns the schema to send with a model call: the strict
// derivation (§4.9) when enforcement is requested, otherwise the original.
func schemaFor(req docmodel.Request) (map[string]interface{}, bool) {
	if !req.Options.EnforceJSONSchema {
		return req.Schema, false
	}
	return schema.Strict(req.Schema), true
}

// callTile issues one model call carrying a tile's images (§4.4 "Per-tile
// call").
func callTile(ctx context.Context, backend model.Backend, req docmodel.Request, instructions string, tile docmodel.Tile, timeout time.Duration) (model.Result, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	parts := make([]model.ContentPart, 0, len(tile.Images)+1)
	parts = append(parts, model.TextPart("Extract data from this document section:"))
	for _, img := range tile.Images {
		parts = append(parts, model.ImagePart(img, "image/jpeg"))
	}

	s, enforce := schemaFor(req)
	return backend.Extract(callCtx, parts, instructions, req.DocType, s, enforce, model.ExtractOptions{UseTileTimeout: true})
}

func tileTag(tile docmodel.Tile) tagInfo {
	return tagInfo{
		tileIndex: tile.GlobalIndex, hasTile: true,
		pageIndex: tile.PageIndex, hasPage: true,
		sliceIndex: tile.SliceIndex, hasSlice: tile.IsTiled,
	}
}

// dispatchSingle sends the one tile present directly, with the whole-
// document timeout (§4.4 dispatch mode "single tile").
func dispatchSingle(ctx context.Context, backend model.Backend, req docmodel.Request, instructions string, tiles []docmodel.Tile, rc *pipectx.RequestContext) []docmodel.ExtractionResult {
	if len(tiles) == 0 {
		return nil
	}
	tile := tiles[0]
	res, err := callTile(ctx, backend, req, instructions, tile, wholeDocTimeout())
	if err != nil {
		rc.LogError("extraction failed: %v", err)
		return nil
	}
	tagRows(res.Data, arrayFieldOf(req.DocType), tileTag(tile))
	return []docmodel.ExtractionResult{{Data: res.Data, ResponseID: res.ResponseID, TileIndex: tile.GlobalIndex, HasTile: true}}
}

// dispatchSequential sends tiles one at a time with the short per-tile
// timeout; a failing tile is dropped with a warning, best-effort (§4.4
// dispatch mode "sequential").
func dispatchSequential(ctx context.Context, backend model.Backend, req docmodel.Request, instructions string, tiles []docmodel.Tile, pctx *docmodel.ProcessingContext, rc *pipectx.RequestContext) []docmodel.ExtractionResult {
	results := make([]docmodel.ExtractionResult, 0, len(tiles))
	for _, tile := range tiles {
		res, err := callTile(ctx, backend, req, instructions, tile, tileTimeout())
		if err != nil {
			pctx.Warn("tile " + strconv.Itoa(tile.GlobalIndex) + " dropped: " + err.Error())
			continue
		}
		tagRows(res.Data, arrayFieldOf(req.DocType), tileTag(tile))
		results = append(results, docmodel.ExtractionResult{Data: res.Data, ResponseID: res.ResponseID, TileIndex: tile.GlobalIndex, HasTile: true})
	}
	return results
}

// dispatchParallel processes tiles in batches of maxConcurrency, retrying
// each up to retryAttempts times with the documented 2^attempt-second
// backoff, and separating batches by at least the inter-batch pause
// (§4.4 dispatch mode "parallel", §5).
func dispatchParallel(ctx context.Context, backend model.Backend, req docmodel.Request, instructions string, tiles []docmodel.Tile, pctx *docmodel.ProcessingContext, rc *pipectx.RequestContext) []docmodel.ExtractionResult {
	maxConcurrency := req.Options.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = 3
	}
	limiter := ratelimit.ForConcurrency(maxConcurrency)
	cfg := retry.Config{
		MaxAttempts:     req.Options.RetryAttempts + 1,
		InitialDelay:    0, // backoff below uses the literal 2^attempt formula
		BackoffMultiple: 1,
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}

	type outcome struct {
		result docmodel.ExtractionResult
		ok     bool
	}
	outcomes := make([]outcome, len(tiles))

	for start := 0; start < len(tiles); start += maxConcurrency {
		end := start + maxConcurrency
		if end > len(tiles) {
			end = len(tiles)
		}
		batch := tiles[start:end]

		var wg sync.WaitGroup
		for i, tile := range batch {
			idx := start + i
			t := tile
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := limiter.Wait(ctx); err != nil {
					return
				}
				res, err := runWithSpecBackoff(ctx, cfg.MaxAttempts, func(callCtx context.Context) (model.Result, error) {
					return callTile(callCtx, backend, req, instructions, t, tileTimeout())
				})
				if err != nil {
					pctx.Warn("tile " + strconv.Itoa(t.GlobalIndex) + " dropped after retries: " + err.Error())
					return
				}
				tagRows(res.Data, arrayFieldOf(req.DocType), tileTag(t))
				outcomes[idx] = outcome{
					result: docmodel.ExtractionResult{Data: res.Data, ResponseID: res.ResponseID, TileIndex: t.GlobalIndex, HasTile: true},
					ok:     true,
				}
			}()
		}
		wg.Wait()

		if end < len(tiles) {
			select {
			case <-ctx.Done():
				goto done
			case <-time.After(ratelimit.InterBatchPause):
			}
		}
	}

done:
	results := make([]docmodel.ExtractionResult, 0, len(tiles))
	for _, o := range outcomes {
		if o.ok {
			results = append(results, o.result)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].TileIndex < results[j].TileIndex })
	return results
}

// runWithSpecBackoff calls fn up to maxAttempts times in total using the literal
// "k-th retry waits 2^k seconds" schedule (§5), rather than the generic
// jittered helper — this dispatch path must match the documented formula
// exactly since it governs upstream rate-limit behaviour.
func runWithSpecBackoff(ctx context.Context, maxAttempts int, fn func(context.Context) (model.Result, error)) (model.Result, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		res, err := fn(ctx)
		if err == nil {
			return res, nil
		}
		lastErr = err

		if r, ok := err.(retry.Retryable); ok && !r.IsRetryable() {
			return model.Result{}, err
		}
		if attempt == maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return model.Result{}, ctx.Err()
		case <-time.After(retry.BackoffSeconds(attempt)):
		}
	}
	return model.Result{}, lastErr
}


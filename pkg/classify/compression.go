package classify

import (
	"context"
	"math"
	"path"

	"golang.org/x/sync/errgroup"

	zerrors "github.com/zarrlens/zarrlens/pkg/errors"
	"github.com/zarrlens/zarrlens/pkg/zarr"
)

// SizeProber answers the stored (compressed) size of a key without
// fetching its content.
type SizeProber interface {
	Size(ctx context.Context, key string) (int64, error)
}

// CompressionRatio samples random chunks of the array rooted at arrayPath
// and returns the minimum uncompressed/compressed size ratio.
//
// Size probes run concurrently. A failed probe is logged and dropped; if all
// probes fail the error has code CLASSIFICATION_INCONCLUSIVE.
func CompressionRatio(ctx context.Context, prober SizeProber, arrayPath string, arr *zarr.ArrayDescriptor, opts Options) (float64, error) {
	opts.ValidateAndSetDefaults()

	byteWidth := zarr.InspectDtype(arr.Dtype, opts.Logger).ByteWidth
	uncompressed := float64(arr.ChunkElements() * byteWidth)

	keys := make([]string, 0, opts.ChunkSamples)
	for range opts.ChunkSamples {
		coords := arr.RandomChunk(opts.Rand)
		if coords == nil {
			break
		}
		keys = append(keys, path.Join(arrayPath, arr.ChunkKey(coords)))
	}

	ratios := make([]float64, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	for i, key := range keys {
		ratios[i] = math.NaN()
		g.Go(func() error {
			size, err := prober.Size(gctx, key)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				opts.Logger.Debug("chunk probe failed", "key", key, "err", err)
				return nil
			}
			if size <= 0 {
				opts.Logger.Debug("chunk probe returned empty size", "key", key, "size", size)
				return nil
			}
			ratios[i] = uncompressed / float64(size)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	best := math.Inf(1)
	for _, r := range ratios {
		if !math.IsNaN(r) && r < best {
			best = r
		}
	}
	if math.IsInf(best, 1) {
		return 0, zerrors.New(zerrors.ErrCodeClassificationInconcl,
			"all %d chunk probes failed", len(keys))
	}
	return best, nil
}

// ClassifyCompression applies the compression threshold.
func ClassifyCompression(ctx context.Context, prober SizeProber, arrayPath string, arr *zarr.ArrayDescriptor, opts Options) (LayerType, float64, error) {
	opts.ValidateAndSetDefaults()
	ratio, err := CompressionRatio(ctx, prober, arrayPath, arr, opts)
	if err != nil {
		return LayerImage, 0, err
	}
	if ratio > opts.CompressionThreshold {
		return LayerSegmentation, ratio, nil
	}
	return LayerImage, ratio, nil
}

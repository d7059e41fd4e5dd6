package classify

import (
	"context"

	zerrors "github.com/zarrlens/zarrlens/pkg/errors"
	"github.com/zarrlens/zarrlens/pkg/observability"
	"github.com/zarrlens/zarrlens/pkg/zarr"
)

// Method names the heuristic that produced a classification.
type Method string

const (
	MethodThumbnail   Method = "thumbnail"
	MethodCompression Method = "compression"
	MethodDefault     Method = "default"
)

// Input is what a classification may look at. Every field is optional.
type Input struct {
	// Thumbnail is a base64 bitmap or data URL.
	Thumbnail string

	// Prober, ArrayPath and Array enable the compression heuristic.
	Prober    SizeProber
	ArrayPath string
	Array     *zarr.ArrayDescriptor
}

// Result is a classification outcome.
type Result struct {
	Type   LayerType `json:"type"`
	Method Method    `json:"method"`
	Ratio  float64   `json:"ratio,omitempty"`
}

// Classifier applies the heuristics in priority order.
type Classifier struct {
	opts Options
}

// New creates a Classifier.
func New(opts Options) *Classifier {
	opts.ValidateAndSetDefaults()
	return &Classifier{opts: opts}
}

// Classify decides the layer type of a dataset.
//
// A decodable thumbnail is authoritative. Without one the result is
// LayerImage, unless the compression fallback is enabled and an array is
// given, in which case chunk sizes are sampled. An inconclusive compression
// analysis also yields LayerImage. Only context cancellation is returned as
// an error.
func (c *Classifier) Classify(ctx context.Context, in Input) (Result, error) {
	res, err := c.classify(ctx, in)
	if err == nil {
		observability.Classify().OnClassified(ctx, res.Type.String(), string(res.Method), res.Ratio)
	}
	return res, err
}

func (c *Classifier) classify(ctx context.Context, in Input) (Result, error) {
	logger := c.opts.Logger

	if in.Thumbnail != "" {
		img, err := DecodeImage(in.Thumbnail)
		if err == nil {
			t, ratio := ClassifyThumbnail(img, c.opts)
			logger.Debug("classified from thumbnail", "type", t, "uniqueness", ratio)
			return Result{Type: t, Method: MethodThumbnail, Ratio: ratio}, nil
		}
		logger.Warn("thumbnail not decodable", "err", err)
	}

	if !c.opts.CompressionFallback || in.Prober == nil || in.Array == nil {
		return Result{Type: LayerImage, Method: MethodDefault}, nil
	}

	t, ratio, err := ClassifyCompression(ctx, in.Prober, in.ArrayPath, in.Array, c.opts)
	switch {
	case err == nil:
		logger.Debug("classified from compression", "type", t, "ratio", ratio)
		return Result{Type: t, Method: MethodCompression, Ratio: ratio}, nil
	case zerrors.Is(err, zerrors.ErrCodeClassificationInconcl):
		logger.Warn("compression analysis inconclusive", "err", err)
		return Result{Type: LayerImage, Method: MethodDefault}, nil
	default:
		return Result{Type: LayerImage, Method: MethodDefault}, err
	}
}

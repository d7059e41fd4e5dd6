package classify

import (
	"io"
	"math/rand/v2"

	"github.com/charmbracelet/log"
)

// Default heuristic parameters. They are empirically tuned and can be
// overridden through Options.
const (
	DefaultThumbnailSamples     = 20
	DefaultCropSize             = 5
	DefaultUniquenessThreshold  = 0.2
	DefaultChunkSamples         = 5
	DefaultCompressionThreshold = 10.0
)

// Options tunes the heuristics. Zero values are replaced by defaults.
type Options struct {
	// ThumbnailSamples is the number of random crops analyzed.
	ThumbnailSamples int

	// CropSize is the side of each square crop, in pixels.
	CropSize int

	// UniquenessThreshold: a maximum uniqueness ratio below it means
	// segmentation.
	UniquenessThreshold float64

	// ChunkSamples is the number of random chunks probed.
	ChunkSamples int

	// CompressionThreshold: a minimum compression ratio above it means
	// segmentation.
	CompressionThreshold float64

	// CompressionFallback enables the compression heuristic when no
	// thumbnail is available.
	CompressionFallback bool

	// Rand is the sampling source. Nil uses a randomly seeded source.
	Rand *rand.Rand

	// Logger receives probe failures and decisions.
	Logger *log.Logger
}

// ValidateAndSetDefaults fills zero fields with defaults.
func (o *Options) ValidateAndSetDefaults() {
	if o.ThumbnailSamples <= 0 {
		o.ThumbnailSamples = DefaultThumbnailSamples
	}
	if o.CropSize <= 0 {
		o.CropSize = DefaultCropSize
	}
	if o.UniquenessThreshold <= 0 {
		o.UniquenessThreshold = DefaultUniquenessThreshold
	}
	if o.ChunkSamples <= 0 {
		o.ChunkSamples = DefaultChunkSamples
	}
	if o.CompressionThreshold <= 0 {
		o.CompressionThreshold = DefaultCompressionThreshold
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

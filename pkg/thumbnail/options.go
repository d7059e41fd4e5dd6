package thumbnail

import (
	"io"

	"github.com/charmbracelet/log"

	zerrors "github.com/zarrlens/zarrlens/pkg/errors"
)

// Default render options.
const (
	DefaultSize    = 300
	DefaultMaxSize = 2048

	// maxChannels bounds how many channels are composited.
	maxChannels = 7

	// readConcurrency bounds concurrent chunk reads per plane.
	readConcurrency = 8
)

// Options configures a render.
type Options struct {
	// Size is the length of the longer thumbnail side in pixels.
	Size int

	// AutoBoost stretches each channel between its 0.5th and 99.5th
	// percentile instead of its display window.
	AutoBoost bool

	// MaxSize is the largest plane side the renderer will read. Images whose
	// smallest level exceeds it are refused.
	MaxSize int

	Logger *log.Logger
}

// ValidateAndSetDefaults fills zero fields and rejects inconsistent ones.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Size == 0 {
		o.Size = DefaultSize
	}
	if o.MaxSize == 0 {
		o.MaxSize = DefaultMaxSize
	}
	if o.Size < 0 || o.MaxSize < 0 {
		return zerrors.New(zerrors.ErrCodeInvalidConfig, "thumbnail sizes must be positive")
	}
	if o.Size > o.MaxSize {
		return zerrors.New(zerrors.ErrCodeInvalidConfig, "thumbnail size %d exceeds max size %d", o.Size, o.MaxSize)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

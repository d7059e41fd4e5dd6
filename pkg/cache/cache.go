// Package cache provides byte caches for fetched metadata documents and
// rendered thumbnails.
//
// Three backends implement [Cache]:
//
//   - [FileCache]: entries as JSON files under the user cache directory, for
//     the CLI.
//   - [RedisCache]: a shared Redis instance, for several API servers behind
//     one load balancer.
//   - [NullCache]: stores nothing, used with --no-cache.
//
// Keys are produced by a [Keyer] so that every backend sees the same key for
// the same dataset document.
package cache

import (
	"context"
	"time"
)

// Default entry lifetimes.
const (
	// MetadataTTL bounds how long fetched metadata documents are reused.
	MetadataTTL = 10 * time.Minute

	// ThumbnailTTL bounds how long rendered thumbnails are reused.
	ThumbnailTTL = 24 * time.Hour
)

// Cache stores opaque byte values by key.
type Cache interface {
	// Get returns the value for key. The boolean is false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer generates cache keys.
type Keyer interface {
	// HTTPKey keys a raw HTTP response body.
	HTTPKey(namespace, key string) string

	// MetadataKey keys a metadata document (".zattrs", "0/zarr.json", ...)
	// below a dataset URL.
	MetadataKey(datasetURL, key string) string

	// ThumbnailKey keys a rendered thumbnail.
	ThumbnailKey(datasetURL string, opts ThumbnailKeyOpts) string
}

// ThumbnailKeyOpts are the render options that change a thumbnail.
type ThumbnailKeyOpts struct {
	Size      int  `json:"size"`
	AutoBoost bool `json:"auto_boost"`
	MaxSize   int  `json:"max_size"`
}

// DefaultKeyer is the standard Keyer.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard Keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// MetadataKey hashes the dataset URL and document key.
func (DefaultKeyer) MetadataKey(datasetURL, key string) string {
	return hashKey("meta", datasetURL, key)
}

// ThumbnailKey hashes the dataset URL and render options.
func (DefaultKeyer) ThumbnailKey(datasetURL string, opts ThumbnailKeyOpts) string {
	return hashKey("thumb", datasetURL, opts)
}

package store

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/zarrlens/zarrlens/pkg/cache"
	zerrors "github.com/zarrlens/zarrlens/pkg/errors"
	"github.com/zarrlens/zarrlens/pkg/httputil"
)

const httpTimeout = 30 * time.Second

var (
	// ErrNotFound is returned when a key does not exist below the dataset.
	ErrNotFound = errors.New("key not found")

	// ErrNetwork is returned for transport failures (timeouts, connection
	// errors, unexpected status codes).
	ErrNetwork = errors.New("network error")
)

// Store reads keys below a dataset root.
type Store interface {
	// Get returns the full content of key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Size returns the stored size of key in bytes without reading it.
	Size(ctx context.Context, key string) (int64, error)

	// List returns the names of the immediate child folders of prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// URL returns the dataset root URL, without a trailing slash.
	URL() string
}

// Options configures a store opened with [Open].
type Options struct {
	// HTTPClient is used by HTTPStore. Defaults to a client with a 30s timeout.
	HTTPClient *http.Client

	// Headers are sent with every HTTP request.
	Headers map[string]string

	// Retry bounds retries of transient HTTP failures.
	// Defaults to httputil.DefaultPolicy.
	Retry *httputil.Policy

	// Cache stores metadata documents. Defaults to a NullCache.
	Cache cache.Cache

	// Keyer generates cache keys. Defaults to cache.NewDefaultKeyer().
	Keyer cache.Keyer

	// TTL is the metadata cache lifetime. Defaults to cache.MetadataTTL.
	TTL time.Duration

	// Refresh bypasses cached metadata documents and overwrites them.
	Refresh bool

	Logger *log.Logger
}

// ValidateAndSetDefaults fills zero fields with defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: httpTimeout}
	}
	if o.Retry == nil {
		p := httputil.DefaultPolicy
		o.Retry = &p
	}
	if o.Retry.Attempts < 0 || o.Retry.Delay < 0 {
		return zerrors.New(zerrors.ErrCodeInvalidConfig, "retry policy must not be negative")
	}
	if o.Cache == nil {
		o.Cache = cache.NewNullCache()
	}
	if o.Keyer == nil {
		o.Keyer = cache.NewDefaultKeyer()
	}
	if o.TTL <= 0 {
		o.TTL = cache.MetadataTTL
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// Open returns a Store rooted at rawURL.
func Open(ctx context.Context, rawURL string, opts Options) (Store, error) {
	if err := zerrors.ValidateDatasetURL(rawURL); err != nil {
		return nil, err
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if strings.HasPrefix(rawURL, "http://") || strings.HasPrefix(rawURL, "https://") {
		return NewHTTPStore(rawURL, opts), nil
	}
	return OpenBlobStore(ctx, rawURL, opts.Logger)
}

// IsMetadataKey reports whether key names a Zarr metadata document rather
// than a chunk.
func IsMetadataKey(key string) bool {
	switch path.Base(key) {
	case ".zarray", ".zattrs", ".zgroup", ".zmetadata", "zarr.json":
		return true
	}
	return false
}

func checkKey(key string) error {
	return zerrors.ValidateKey(key)
}

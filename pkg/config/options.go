package config

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/zarrlens/zarrlens/pkg/cache"
	zerrors "github.com/zarrlens/zarrlens/pkg/errors"
	"github.com/zarrlens/zarrlens/pkg/resolver"
	"github.com/zarrlens/zarrlens/pkg/store"
)

// OpenCache builds the cache selected by [cache]. disabled forces a
// NullCache regardless of the file.
func (c Config) OpenCache(ctx context.Context, disabled bool) (cache.Cache, error) {
	if disabled {
		return cache.NewNullCache(), nil
	}
	switch c.Cache.Backend {
	case BackendNone:
		return cache.NewNullCache(), nil
	case BackendRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     c.Cache.RedisAddr,
			Password: c.Cache.RedisPassword,
			DB:       c.Cache.RedisDB,
			Prefix:   c.Cache.Prefix,
		})
		if err != nil {
			return nil, zerrors.Wrap(zerrors.ErrCodeInvalidConfig, err, "connect to redis at %s", c.Cache.RedisAddr)
		}
		return rc, nil
	}
	dir, err := c.CacheDir()
	if err != nil {
		return nil, err
	}
	return cache.NewFileCache(dir)
}

// CacheDir returns cache.dir, or the XDG default when unset.
func (c Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	return CacheDir()
}

// Keyer returns the cache keyer, scoped by cache.prefix for file caches.
// Redis applies the prefix itself.
func (c Config) Keyer() cache.Keyer {
	if c.Cache.Prefix != "" && c.Cache.Backend != BackendRedis {
		return cache.NewScopedKeyer(nil, c.Cache.Prefix)
	}
	return cache.NewDefaultKeyer()
}

// StoreOptions maps [http] and [cache] onto store options.
func (c Config) StoreOptions(ch cache.Cache, logger *log.Logger) store.Options {
	policy := c.RetryPolicy()
	return store.Options{
		HTTPClient: &http.Client{Timeout: c.HTTP.Timeout.Duration},
		Headers:    c.HTTP.Headers,
		Retry:      &policy,
		Cache:      ch,
		Keyer:      c.Keyer(),
		TTL:        c.Cache.MetadataTTL.Duration,
		Logger:     logger,
	}
}

// ResolverOptions assembles resolver options from every section.
func (c Config) ResolverOptions(ch cache.Cache, refresh bool, logger *log.Logger) resolver.Options {
	return resolver.Options{
		Store:         c.StoreOptions(ch, logger),
		Thumbnail:     c.ThumbnailOptions(),
		SkipThumbnail: c.Thumbnail.Disabled,
		Classify:      c.ClassifyOptions(),
		Viewer:        c.ViewerOptions(),
		Refresh:       refresh,
		Logger:        logger,
	}
}

package cache

import (
	"context"
	"time"

	"github.com/zarrlens/zarrlens/pkg/observability"
)

// GetOrFetch returns the cached value for key, or calls fetch and caches its
// result. With refresh set the cached value is ignored and overwritten.
// keyType labels the key in cache hooks ("metadata", "thumbnail").
//
// Cache failures never fail the call; fetch errors are returned as is and
// nothing is stored.
func GetOrFetch(ctx context.Context, c Cache, keyType, key string, ttl time.Duration, refresh bool, fetch func() ([]byte, error)) ([]byte, error) {
	if !refresh {
		if data, ok, err := c.Get(ctx, key); err == nil && ok {
			observability.Cache().OnCacheHit(ctx, keyType)
			return data, nil
		}
		observability.Cache().OnCacheMiss(ctx, keyType)
	}

	data, err := fetch()
	if err != nil {
		return nil, err
	}
	if err := c.Set(ctx, key, data, ttl); err == nil {
		observability.Cache().OnCacheSet(ctx, keyType, len(data))
	}
	return data, nil
}

// Lookup returns the cached value for key or ErrCacheMiss.
func Lookup(ctx context.Context, c Cache, key string) ([]byte, error) {
	data, ok, err := c.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCacheMiss
	}
	return data, nil
}

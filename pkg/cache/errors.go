package cache

import "errors"

// ErrCacheMiss is returned by Lookup when a key is not cached.
var ErrCacheMiss = errors.New("cache miss")

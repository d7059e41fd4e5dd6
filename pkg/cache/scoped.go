package cache

// ScopedKeyer wraps a Keyer with a prefix, isolating deployments that share
// one Redis instance.
//
//	staging := NewScopedKeyer(NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// HTTPKey generates a prefixed key for HTTP response caching.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

// MetadataKey generates a prefixed metadata document key.
func (k *ScopedKeyer) MetadataKey(datasetURL, key string) string {
	return k.prefix + k.inner.MetadataKey(datasetURL, key)
}

// ThumbnailKey generates a prefixed thumbnail key.
func (k *ScopedKeyer) ThumbnailKey(datasetURL string, opts ThumbnailKeyOpts) string {
	return k.prefix + k.inner.ThumbnailKey(datasetURL, opts)
}

package resolver

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/zarrlens/zarrlens/pkg/cache"
	"github.com/zarrlens/zarrlens/pkg/classify"
	"github.com/zarrlens/zarrlens/pkg/neuroglancer"
	"github.com/zarrlens/zarrlens/pkg/store"
	"github.com/zarrlens/zarrlens/pkg/thumbnail"
)

// Opener opens the store rooted at a dataset URL.
type Opener func(ctx context.Context, url string) (store.Store, error)

// Options configures a Resolver.
type Options struct {
	// Open opens dataset stores. Defaults to store.Open with Store.
	Open Opener

	// Store configures stores opened by the default Opener.
	Store store.Options

	// Renderer draws thumbnails. Defaults to thumbnail.NewRenderer().
	Renderer      thumbnail.Renderer
	Thumbnail     thumbnail.Options
	SkipThumbnail bool

	// Classify configures the classifier built for each resolution. A fixed
	// Rand is never used directly; each resolution draws its own seed from it
	// under a lock.
	Classify classify.Options
	Viewer   neuroglancer.Options

	// Cache holds rendered thumbnails. Defaults to Store.Cache, or a
	// NullCache.
	Cache cache.Cache
	Keyer cache.Keyer

	// Refresh bypasses cached documents, thumbnails and resolutions.
	Refresh bool

	Logger *log.Logger
}

// ValidateAndSetDefaults fills zero fields with defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if o.Store.Logger == nil {
		o.Store.Logger = o.Logger
	}
	o.Store.Refresh = o.Store.Refresh || o.Refresh
	if err := o.Store.ValidateAndSetDefaults(); err != nil {
		return err
	}
	if o.Open == nil {
		storeOpts := o.Store
		o.Open = func(ctx context.Context, url string) (store.Store, error) {
			return store.Open(ctx, url, storeOpts)
		}
	}
	if o.Renderer == nil {
		o.Renderer = thumbnail.NewRenderer()
	}
	if o.Thumbnail.Logger == nil {
		o.Thumbnail.Logger = o.Logger
	}
	if err := o.Thumbnail.ValidateAndSetDefaults(); err != nil {
		return err
	}
	if o.Classify.Logger == nil {
		o.Classify.Logger = o.Logger
	}
	if o.Viewer.Logger == nil {
		o.Viewer.Logger = o.Logger
	}
	o.Viewer.ValidateAndSetDefaults()
	if o.Cache == nil {
		o.Cache = o.Store.Cache
	}
	if o.Keyer == nil {
		o.Keyer = o.Store.Keyer
	}
	return nil
}

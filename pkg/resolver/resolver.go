package resolver

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/zarrlens/zarrlens/pkg/cache"
	"github.com/zarrlens/zarrlens/pkg/classify"
	zerrors "github.com/zarrlens/zarrlens/pkg/errors"
	"github.com/zarrlens/zarrlens/pkg/neuroglancer"
	"github.com/zarrlens/zarrlens/pkg/observability"
	"github.com/zarrlens/zarrlens/pkg/store"
	"github.com/zarrlens/zarrlens/pkg/zarr"
)

// Resolver resolves datasets as the user navigates between them.
// It is safe for concurrent use; the most recent Navigate call wins.
type Resolver struct {
	opts Options

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	state      State
	committed  *Resolution

	randMu sync.Mutex
}

// New creates a Resolver.
func New(opts Options) (*Resolver, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return &Resolver{opts: opts, state: StateIdle}, nil
}

// Snapshot returns the current state and the committed resolution, which is
// nil while probing or before the first navigation.
func (r *Resolver) Snapshot() (State, *Resolution) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state, r.committed
}

// Navigate resolves the dataset at url and commits the result.
//
// Navigating to the committed URL again returns the committed resolution
// without fetching, unless Options.Refresh is set. Otherwise the committed
// snapshot is cleared and any in-flight resolution is cancelled before the
// first fetch. If another Navigate starts before this one commits, the
// result is discarded and ErrStale is returned.
func (r *Resolver) Navigate(ctx context.Context, url string) (*Resolution, error) {
	r.mu.Lock()
	if c := r.committed; c != nil && c.URL == url && !r.opts.Refresh {
		r.mu.Unlock()
		return c, nil
	}
	rc := r.begin(ctx, url)
	r.mu.Unlock()

	res, err := r.resolve(rc, url)

	r.mu.Lock()
	defer r.mu.Unlock()
	if rc.Generation != r.generation {
		observability.Resolver().OnStale(ctx, rc.ID, url)
		r.opts.Logger.Debug("discarding stale resolution", "id", rc.ID, "url", url)
		return nil, ErrStale
	}
	r.cancel()
	r.cancel = nil
	if err != nil {
		r.state = StateNoMetadata
		return nil, err
	}
	r.state = res.State
	r.committed = res
	return res, nil
}

// Reset cancels any in-flight resolution and returns to Idle.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation++
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.state = StateIdle
	r.committed = nil
}

// begin clears the snapshot and supersedes the in-flight resolution.
// r.mu must be held.
func (r *Resolver) begin(ctx context.Context, url string) *ResolutionContext {
	r.committed = nil
	r.state = StateProbing
	r.generation++
	if r.cancel != nil {
		r.cancel()
	}
	cctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	return &ResolutionContext{
		ID:         uuid.NewString(),
		Generation: r.generation,
		URL:        url,
		ctx:        cctx,
		current: func(gen uint64) bool {
			r.mu.Lock()
			defer r.mu.Unlock()
			return gen == r.generation
		},
	}
}

// Resolve resolves url once, outside navigation tracking. The committed
// snapshot is left untouched.
func (r *Resolver) Resolve(ctx context.Context, url string) (*Resolution, error) {
	rc := &ResolutionContext{ID: uuid.NewString(), URL: url, ctx: ctx}
	return r.resolve(rc, url)
}

func (r *Resolver) resolve(rc *ResolutionContext, url string) (res *Resolution, err error) {
	ctx := rc.ctx
	start := time.Now()
	observability.Resolver().OnResolveStart(ctx, rc.ID, url)
	defer func() {
		kind := "error"
		if res != nil {
			kind = res.Metadata.Kind()
		}
		observability.Resolver().OnResolveComplete(ctx, rc.ID, url, kind, time.Since(start), err)
	}()

	logger := r.opts.Logger.With("id", rc.ID)
	logger.Debug("resolving", "url", url)

	st, err := r.opts.Open(ctx, url)
	if err != nil {
		return nil, err
	}
	if c, ok := st.(io.Closer); ok {
		defer c.Close()
	}

	res = &Resolution{ID: rc.ID, URL: url}
	md, err := r.probe(ctx, rc, st)
	switch {
	case err == nil:
	case errors.Is(err, ErrStale):
		return nil, err
	case ctx.Err() != nil:
		if !rc.Current() {
			return nil, ErrStale
		}
		return nil, ctx.Err()
	case zerrors.Degradable(err):
		logger.Warn("metadata unusable, treating as absent", "url", url, "err", err)
		res.MetadataError = zerrors.UserMessage(err)
		md = zarr.Absent{}
	default:
		return nil, err
	}
	res.Metadata = md
	res.State = stateOf(md)

	var arrayPath string
	switch m := md.(type) {
	case zarr.RawArray:
		res.Array = m.Array
	case zarr.OmeZarrImage:
		res.Array = m.Array
		res.Axes = m.Multiscale.Axes
		res.Scale = m.ResolvedScale()
		res.Channels = m.Channels(logger)
		arrayPath = m.Levels[0].Path
		if !r.opts.SkipThumbnail {
			res.Thumbnail, res.ThumbnailError = r.thumbnail(ctx, st, &m)
			if err := rc.check(); err != nil {
				return nil, err
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
	default:
		return res, rc.check()
	}
	dt := zarr.InspectDtype(res.Array.Dtype, logger)
	res.Dtype = &dt

	classifier := classify.New(r.classifyOptions())
	res.Classification, err = classifier.Classify(ctx, classify.Input{
		Thumbnail: res.Thumbnail,
		Prober:    st,
		ArrayPath: arrayPath,
		Array:     res.Array,
	})
	if err != nil {
		if !rc.Current() {
			return nil, ErrStale
		}
		return nil, err
	}
	if err := rc.check(); err != nil {
		return nil, err
	}

	res.ViewerState = r.viewerState(st.URL(), md, res, logger)
	logger.Debug("resolved", "url", url, "kind", md.Kind(), "layer", res.LayerType(), "elapsed", time.Since(start))
	return res, nil
}

// thumbnail renders (or loads from cache) the image preview. Failures are
// returned as a message, never as an error.
func (r *Resolver) thumbnail(ctx context.Context, st store.Store, img *zarr.OmeZarrImage) (string, string) {
	opts := r.opts.Thumbnail
	key := r.opts.Keyer.ThumbnailKey(st.URL(), cache.ThumbnailKeyOpts{
		Size:      opts.Size,
		AutoBoost: opts.AutoBoost,
		MaxSize:   opts.MaxSize,
	})
	data, err := cache.GetOrFetch(ctx, r.opts.Cache, "thumbnail", key, cache.ThumbnailTTL, r.opts.Refresh, func() ([]byte, error) {
		s, err := r.opts.Renderer.Render(ctx, st, img, opts)
		return []byte(s), err
	})
	if err != nil {
		if ctx.Err() == nil {
			r.opts.Logger.Warn("thumbnail failed", "url", st.URL(), "err", err)
		}
		return "", zerrors.UserMessage(err)
	}
	return string(data), ""
}

// viewerState builds the Neuroglancer state for the store's own URL,
// falling back to raw-array mode when OME-Zarr construction fails.
func (r *Resolver) viewerState(dataURL string, md zarr.Metadata, res *Resolution, logger *log.Logger) *neuroglancer.State {
	switch m := md.(type) {
	case zarr.RawArray:
		s, err := neuroglancer.RawArrayState(dataURL, m.Array, neuroglancer.RawArrayLayerType)
		if err != nil {
			logger.Warn("raw array viewer state failed", "err", err)
			return nil
		}
		return s
	case zarr.OmeZarrImage:
		s, err := neuroglancer.OmeZarrState(dataURL, &m, res.Channels, res.LayerType(), r.opts.Viewer)
		if err == nil {
			return s
		}
		logger.Warn("falling back to raw array viewer state", "err", err)
		s, err = neuroglancer.RawArrayState(dataURL, m.Array, res.LayerType())
		if err != nil {
			return nil
		}
		return s
	}
	return nil
}

// classifyOptions returns the classifier options for one resolution. A
// configured Rand only seeds a private source per resolution.
func (r *Resolver) classifyOptions() classify.Options {
	opts := r.opts.Classify
	if opts.Rand != nil {
		r.randMu.Lock()
		opts.Rand = rand.New(rand.NewPCG(opts.Rand.Uint64(), opts.Rand.Uint64()))
		r.randMu.Unlock()
	}
	return opts
}

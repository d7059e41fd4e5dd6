package resolver

import (
	"context"
	"errors"
	"path"

	"golang.org/x/sync/errgroup"

	zerrors "github.com/zarrlens/zarrlens/pkg/errors"
	"github.com/zarrlens/zarrlens/pkg/store"
	"github.com/zarrlens/zarrlens/pkg/zarr"
)

// probe reads the dataset's metadata documents in order: a v3 zarr.json,
// then a v2 .zarray, then v2 .zattrs. Missing documents yield zarr.Absent;
// malformed ones are returned as METADATA_MALFORMED errors.
func (r *Resolver) probe(ctx context.Context, rc *ResolutionContext, st store.Store) (zarr.Metadata, error) {
	data, err := st.Get(ctx, zarr.KeyNodeV3)
	switch {
	case err == nil:
		if err := rc.check(); err != nil {
			return nil, err
		}
		node, err := zarr.ParseNode(data)
		if err != nil {
			return nil, err
		}
		if node.Array != nil {
			return zarr.RawArray{Array: node.Array}, nil
		}
		if node.Attributes == nil || !node.Attributes.HasMultiscales() {
			return zarr.Absent{}, nil
		}
		return r.fetchImage(ctx, rc, st, node.Attributes, 3)
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	data, err = st.Get(ctx, zarr.KeyArrayV2)
	switch {
	case err == nil:
		if err := rc.check(); err != nil {
			return nil, err
		}
		arr, err := zarr.ParseArrayV2(data)
		if err != nil {
			return nil, err
		}
		return zarr.RawArray{Array: arr}, nil
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	data, err = st.Get(ctx, zarr.KeyAttributesV2)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return zarr.Absent{}, rc.check()
	case err != nil:
		return nil, err
	}
	if err := rc.check(); err != nil {
		return nil, err
	}
	attrs, err := zarr.ParseAttributes(data)
	if err != nil {
		return nil, err
	}
	if !attrs.HasMultiscales() {
		return zarr.Absent{}, nil
	}
	return r.fetchImage(ctx, rc, st, attrs, 2)
}

// fetchImage reads the array descriptor of every pyramid level of the first
// multiscale concurrently. The full resolution level is required; other
// levels that cannot be read are dropped.
func (r *Resolver) fetchImage(ctx context.Context, rc *ResolutionContext, st store.Store, attrs *zarr.Attributes, version int) (zarr.Metadata, error) {
	ms := attrs.Multiscales[0]
	arrays := make([]*zarr.ArrayDescriptor, len(ms.Datasets))
	errs := make([]error, len(ms.Datasets))

	g, gctx := errgroup.WithContext(ctx)
	for i, ds := range ms.Datasets {
		g.Go(func() error {
			arr, err := readArray(gctx, st, ds.Path, version)
			if err != nil && gctx.Err() != nil {
				return gctx.Err()
			}
			arrays[i], errs[i] = arr, err
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := rc.check(); err != nil {
		return nil, err
	}

	if errs[0] != nil {
		if errors.Is(errs[0], store.ErrNotFound) {
			return nil, zerrors.Wrap(zerrors.ErrCodeMetadataMalformed, errs[0], "full resolution level %q", ms.Datasets[0].Path)
		}
		return nil, errs[0]
	}

	img := zarr.OmeZarrImage{
		Array:       arrays[0],
		Multiscale:  ms,
		Omero:       attrs.Omero,
		ZarrVersion: version,
	}
	for i, ds := range ms.Datasets {
		if errs[i] != nil {
			r.opts.Logger.Warn("dropping pyramid level", "path", ds.Path, "err", errs[i])
			continue
		}
		img.Levels = append(img.Levels, zarr.Level{Path: ds.Path, Array: arrays[i]})
	}
	return img, nil
}

func readArray(ctx context.Context, st store.Store, dir string, version int) (*zarr.ArrayDescriptor, error) {
	if version == 3 {
		data, err := st.Get(ctx, path.Join(dir, zarr.KeyNodeV3))
		if err != nil {
			return nil, err
		}
		node, err := zarr.ParseNode(data)
		if err != nil {
			return nil, err
		}
		if node.Array == nil {
			return nil, zerrors.New(zerrors.ErrCodeMetadataMalformed, "level %q is a group", dir)
		}
		return node.Array, nil
	}
	data, err := st.Get(ctx, path.Join(dir, zarr.KeyArrayV2))
	if err != nil {
		return nil, err
	}
	return zarr.ParseArrayV2(data)
}

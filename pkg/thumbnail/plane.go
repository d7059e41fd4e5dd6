package thumbnail

import (
	"context"
	"errors"
	"path"

	"golang.org/x/sync/errgroup"

	zerrors "github.com/zarrlens/zarrlens/pkg/errors"
	"github.com/zarrlens/zarrlens/pkg/store"
	"github.com/zarrlens/zarrlens/pkg/zarr"
)

// plane is a 2D slice of an array in row-major order.
type plane struct {
	width, height int
	values        []float64
}

// planeSpec selects a YX plane: index holds the fixed coordinate of every
// dimension other than y and x.
type planeSpec struct {
	arrayPath string
	array     *zarr.ArrayDescriptor
	index     []int
	y, x      int
}

// readPlane assembles the plane from every chunk intersecting it. Missing
// chunks take the array's fill value.
func readPlane(ctx context.Context, st store.Store, spec planeSpec) (*plane, error) {
	arr := spec.array
	elem, err := arr.ElementType()
	if err != nil {
		return nil, err
	}

	p := &plane{
		width:  arr.Shape[spec.x],
		height: arr.Shape[spec.y],
	}
	p.values = make([]float64, p.width*p.height)

	grid := arr.GridShape()
	base := make([]int, len(arr.Shape))
	for d, i := range spec.index {
		base[d] = i / arr.Chunks[d]
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(readConcurrency)
	for cy := 0; cy < grid[spec.y]; cy++ {
		for cx := 0; cx < grid[spec.x]; cx++ {
			coords := append([]int(nil), base...)
			coords[spec.y], coords[spec.x] = cy, cx
			g.Go(func() error {
				return readChunkInto(ctx, st, spec, elem, coords, p)
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return p, nil
}

func readChunkInto(ctx context.Context, st store.Store, spec planeSpec, elem zarr.Typestr, coords []int, p *plane) error {
	arr := spec.array
	key := path.Join(spec.arrayPath, arr.ChunkKey(coords))

	y0 := coords[spec.y] * arr.Chunks[spec.y]
	x0 := coords[spec.x] * arr.Chunks[spec.x]
	y1 := min(y0+arr.Chunks[spec.y], p.height)
	x1 := min(x0+arr.Chunks[spec.x], p.width)

	data, err := st.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				p.values[y*p.width+x] = arr.FillValue
			}
		}
		return nil
	}
	if err != nil {
		return err
	}
	raw, err := decodeChunk(data, arr.Codecs)
	if err != nil {
		return err
	}
	if want := arr.ChunkElements() * elem.Size; len(raw) < want {
		return zerrors.New(zerrors.ErrCodeThumbnailFailure,
			"chunk %s has %d bytes, want %d", key, len(raw), want)
	}

	strides := chunkStrides(arr.Chunks, arr.Order == "F")
	offset := 0
	for d, i := range spec.index {
		if d != spec.y && d != spec.x {
			offset += (i % arr.Chunks[d]) * strides[d]
		}
	}
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			n := offset + (y-y0)*strides[spec.y] + (x-x0)*strides[spec.x]
			p.values[y*p.width+x] = elem.Value(raw[n*elem.Size:])
		}
	}
	return nil
}

// chunkStrides returns element strides for a chunk in C (row-major) or
// F (column-major) order.
func chunkStrides(chunks []int, fortran bool) []int {
	strides := make([]int, len(chunks))
	n := 1
	if fortran {
		for d := range chunks {
			strides[d] = n
			n *= chunks[d]
		}
		return strides
	}
	for d := len(chunks) - 1; d >= 0; d-- {
		strides[d] = n
		n *= chunks[d]
	}
	return strides
}

package zarr

import (
	"math/rand/v2"
	"strconv"
	"strings"
)

// GridShape returns the number of chunks along each dimension.
func (a *ArrayDescriptor) GridShape() []int {
	grid := make([]int, len(a.Shape))
	for i, n := range a.Shape {
		grid[i] = (n + a.Chunks[i] - 1) / a.Chunks[i]
	}
	return grid
}

// ChunkElements returns the number of elements in one (full) chunk.
func (a *ArrayDescriptor) ChunkElements() int {
	n := 1
	for _, c := range a.Chunks {
		n *= c
	}
	return n
}

// ChunkKey returns the store key of the chunk at grid coordinates coords,
// relative to the array node.
//
//	v2, "." separator:      0.1.2
//	v2, "/" separator:      0/1/2
//	v3, default encoding:   c/0/1/2
func (a *ArrayDescriptor) ChunkKey(coords []int) string {
	enc := a.KeyEncoding
	sep := enc.Separator
	if sep == "" {
		sep = "."
	}

	var sb strings.Builder
	if enc.Prefix != "" {
		sb.WriteString(enc.Prefix)
		if len(coords) > 0 {
			sb.WriteString(sep)
		}
	}
	if len(coords) == 0 && enc.Prefix == "" {
		return "0"
	}
	for i, c := range coords {
		if i > 0 {
			sb.WriteString(sep)
		}
		sb.WriteString(strconv.Itoa(c))
	}
	return sb.String()
}

// RandomChunk picks uniformly random grid coordinates of one chunk.
// It returns nil when the array has an empty dimension.
func (a *ArrayDescriptor) RandomChunk(r *rand.Rand) []int {
	grid := a.GridShape()
	coords := make([]int, len(grid))
	for i, n := range grid {
		if n <= 0 {
			return nil
		}
		coords[i] = r.IntN(n)
	}
	return coords
}

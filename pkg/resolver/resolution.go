package resolver

import (
	"context"

	"github.com/zarrlens/zarrlens/pkg/classify"
	zerrors "github.com/zarrlens/zarrlens/pkg/errors"
	"github.com/zarrlens/zarrlens/pkg/neuroglancer"
	"github.com/zarrlens/zarrlens/pkg/zarr"
)

// ErrStale is returned by Navigate when a newer navigation superseded the
// resolution before it could commit.
var ErrStale = zerrors.New(zerrors.ErrCodeStale, "resolution superseded by a newer navigation")

// State is the resolver's position in its navigation state machine.
type State int

const (
	StateIdle State = iota
	StateProbing
	StateRawArray
	StateOmeZarrImage
	StateNoMetadata
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateProbing:
		return "probing"
	case StateRawArray:
		return "raw_array"
	case StateOmeZarrImage:
		return "ome_zarr"
	case StateNoMetadata:
		return "no_metadata"
	}
	return "unknown"
}

// MarshalText encodes the state name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func stateOf(md zarr.Metadata) State {
	switch md.(type) {
	case zarr.RawArray:
		return StateRawArray
	case zarr.OmeZarrImage:
		return StateOmeZarrImage
	}
	return StateNoMetadata
}

// Resolution is the committed result of resolving one dataset.
type Resolution struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	State State  `json:"state"`

	// Metadata is zarr.Absent, zarr.RawArray or zarr.OmeZarrImage.
	Metadata zarr.Metadata `json:"-"`

	// Array is the full resolution array, nil without metadata.
	Array    *zarr.ArrayDescriptor `json:"array,omitempty"`
	Axes     []zarr.Axis           `json:"axes,omitempty"`
	Scale    []float64             `json:"scale,omitempty"`
	Dtype    *zarr.DtypeInfo       `json:"dtype,omitempty"`
	Channels []zarr.Channel        `json:"channels,omitempty"`

	Thumbnail      string `json:"thumbnail,omitempty"`
	ThumbnailError string `json:"thumbnail_error,omitempty"`

	Classification classify.Result     `json:"classification"`
	ViewerState    *neuroglancer.State `json:"viewer_state,omitempty"`

	// MetadataError describes malformed metadata that was treated as absent.
	MetadataError string `json:"metadata_error,omitempty"`
}

// LayerType is the classified layer type.
func (r *Resolution) LayerType() classify.LayerType {
	return r.Classification.Type
}

// ResolutionContext tracks one in-flight resolution. It is current until a
// newer navigation starts.
type ResolutionContext struct {
	ID         string
	Generation uint64
	URL        string

	ctx     context.Context
	current func(uint64) bool
}

// Context returns the resolution's context, cancelled once superseded.
func (rc *ResolutionContext) Context() context.Context { return rc.ctx }

// Current reports whether no newer navigation has started.
func (rc *ResolutionContext) Current() bool {
	return rc.current == nil || rc.current(rc.Generation)
}

// check returns ErrStale once the resolution is superseded.
func (rc *ResolutionContext) check() error {
	if !rc.Current() {
		return ErrStale
	}
	return nil
}

// DefaultToolOptions returns link options with the default Neuroglancer base.
func DefaultToolOptions() neuroglancer.ToolOptions {
	return neuroglancer.ToolOptions{NeuroglancerBase: neuroglancer.DefaultNeuroglancerBase}
}

// ToolURLs derives the "open with" links of a resolution for a shareable
// data URL. A nil resolution yields only the copy link.
func ToolURLs(res *Resolution, dataURL string, opts neuroglancer.ToolOptions) neuroglancer.ToolURLs {
	var md zarr.Metadata = zarr.Absent{}
	layerType := classify.LayerImage
	if res != nil && res.Metadata != nil {
		md = res.Metadata
		layerType = res.LayerType()
	}
	return neuroglancer.NewToolURLs(dataURL, md, layerType, opts)
}

package neuroglancer

import (
	"github.com/zarrlens/zarrlens/pkg/classify"
	zerrors "github.com/zarrlens/zarrlens/pkg/errors"
	"github.com/zarrlens/zarrlens/pkg/zarr"
)

// Base URLs of the external viewers.
const (
	ValidatorBase           = "https://ome.github.io/ome-ngff-validator/?source="
	VoleBase                = "https://volumeviewer.allencell.org/viewer?url="
	AvivatorBase            = "https://avivator.gehlenborglab.org/?image_url="
	DefaultNeuroglancerBase = "https://neuroglancer-demo.appspot.com/#!"
)

// RawArrayLayerType is the layer type of raw-array links, the legacy default
// that lets Neuroglancer pick.
const RawArrayLayerType = classify.LayerAuto

// ToolURLs are the "open with" links of a dataset. A nil link means the tool
// cannot open the dataset.
type ToolURLs struct {
	Copy         string  `json:"copy"`
	Validator    *string `json:"validator"`
	Neuroglancer *string `json:"neuroglancer"`
	Vole         *string `json:"vole"`
	Avivator     *string `json:"avivator"`
}

// ToolOptions configures link generation.
type ToolOptions struct {
	Options

	// NeuroglancerBase replaces DefaultNeuroglancerBase.
	NeuroglancerBase string
}

func (o *ToolOptions) base() string {
	if o.NeuroglancerBase == "" {
		return DefaultNeuroglancerBase
	}
	return o.NeuroglancerBase
}

// Link returns base followed by the encoded state.
func Link(base string, s *State) (string, error) {
	frag, err := EncodeFragment(s)
	if err != nil {
		return "", zerrors.Wrap(zerrors.ErrCodeViewerStateConstruction, err, "encode state")
	}
	return base + frag, nil
}

// NewToolURLs derives the tool links of a resolved dataset from its metadata
// and a shareable data URL.
//
// Raw arrays get a copy link and a raw-array Neuroglancer link only.
// OME-Zarr images get all links; if their state cannot be built the
// Neuroglancer link falls back to the raw-array state. Absent metadata yields
// only the copy link.
func NewToolURLs(dataURL string, md zarr.Metadata, layerType classify.LayerType, opts ToolOptions) ToolURLs {
	opts.ValidateAndSetDefaults()
	urls := ToolURLs{Copy: dataURL}

	switch m := md.(type) {
	case zarr.RawArray:
		urls.Neuroglancer = rawLink(dataURL, m.Array, opts)

	case zarr.OmeZarrImage:
		urls.Validator = ptr(ValidatorBase + dataURL)
		urls.Vole = ptr(VoleBase + dataURL)
		urls.Avivator = ptr(AvivatorBase + dataURL)

		st, err := OmeZarrState(dataURL, &m, m.Channels(opts.Logger), layerType, opts.Options)
		if err != nil {
			opts.Logger.Warn("falling back to raw array viewer state", "err", err)
			urls.Neuroglancer = rawLink(dataURL, m.Array, opts)
			break
		}
		if link, err := Link(opts.base(), st); err == nil {
			urls.Neuroglancer = &link
		} else {
			opts.Logger.Warn("cannot encode viewer state", "err", err)
		}
	}
	return urls
}

func rawLink(dataURL string, arr *zarr.ArrayDescriptor, opts ToolOptions) *string {
	st, err := RawArrayState(dataURL, arr, RawArrayLayerType)
	if err != nil {
		opts.Logger.Warn("cannot build raw array viewer state", "err", err)
		return nil
	}
	link, err := Link(opts.base(), st)
	if err != nil {
		opts.Logger.Warn("cannot encode viewer state", "err", err)
		return nil
	}
	return &link
}

func ptr(s string) *string { return &s }

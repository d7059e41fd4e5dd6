package neuroglancer

import (
	"bytes"
	"encoding/json"
	"io"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/zarrlens/zarrlens/pkg/classify"
	zerrors "github.com/zarrlens/zarrlens/pkg/errors"
	"github.com/zarrlens/zarrlens/pkg/zarr"
)

const (
	// DefaultLayout is the panel layout of every generated state.
	DefaultLayout = "4panel-alt"

	// DefaultContrastScale scales the upper contrast limit of channel layers.
	DefaultContrastScale = 0.25

	// DefaultLayerName names a raw-array layer whose URL has no usable path.
	DefaultLayerName = "default"

	// ChannelDimension is the local dimension pinning a layer to a channel.
	ChannelDimension = "c'"
)

// DimensionOrder is the canonical order of global viewer dimensions.
var DimensionOrder = []string{"x", "y", "z", "t"}

// Dimension is a [scale, unit] pair.
type Dimension struct {
	Scale float64
	Unit  string
}

// MarshalJSON encodes the dimension as a two element array.
func (d Dimension) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{d.Scale, d.Unit})
}

// UnmarshalJSON decodes a [scale, unit] array.
func (d *Dimension) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return zerrors.New(zerrors.ErrCodeInvalidInput, "dimension must have 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &d.Scale); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &d.Unit)
}

// Dimensions is an insertion-ordered map of dimension name to [scale, unit].
type Dimensions struct {
	names  []string
	values map[string]Dimension
}

// Set adds or replaces a dimension. New names are appended.
func (d *Dimensions) Set(name string, dim Dimension) {
	if d.values == nil {
		d.values = make(map[string]Dimension)
	}
	if _, ok := d.values[name]; !ok {
		d.names = append(d.names, name)
	}
	d.values[name] = dim
}

// Get returns a dimension by name.
func (d *Dimensions) Get(name string) (Dimension, bool) {
	v, ok := d.values[name]
	return v, ok
}

// Names returns dimension names in insertion order.
func (d *Dimensions) Names() []string {
	return append([]string(nil), d.names...)
}

// Len returns the number of dimensions.
func (d *Dimensions) Len() int { return len(d.names) }

// MarshalJSON encodes the dimensions as a JSON object in insertion order.
func (d Dimensions) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range d.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(d.values[name])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a dimensions object, keeping key order.
func (d *Dimensions) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return zerrors.New(zerrors.ErrCodeInvalidInput, "dimensions must be an object")
	}
	*d = Dimensions{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)
		var dim Dimension
		if err := dec.Decode(&dim); err != nil {
			return err
		}
		d.Set(name, dim)
	}
	_, err = dec.Token()
	return err
}

// Source points a layer at its data.
// Without a transform it serializes as the bare URL string.
type Source struct {
	URL       string           `json:"url"`
	Transform *SourceTransform `json:"transform,omitempty"`
}

// SourceTransform maps source dimensions into the layer.
type SourceTransform struct {
	OutputDimensions map[string]Dimension `json:"outputDimensions"`
}

// MarshalJSON encodes a transform-less source as a string.
func (s Source) MarshalJSON() ([]byte, error) {
	if s.Transform == nil {
		return json.Marshal(s.URL)
	}
	type sourceAlias Source
	return json.Marshal(sourceAlias(s))
}

// UnmarshalJSON accepts the string and the object form.
func (s *Source) UnmarshalJSON(data []byte) error {
	var u string
	if err := json.Unmarshal(data, &u); err == nil {
		*s = Source{URL: u}
		return nil
	}
	type sourceAlias Source
	var v sourceAlias
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = Source(v)
	return nil
}

// NormalizedControl holds the invlerp window of the shader.
type NormalizedControl struct {
	Range [2]float64 `json:"range"`
}

// ShaderControls are the initial values of shader uniforms.
type ShaderControls struct {
	Normalized NormalizedControl `json:"normalized"`
}

// Layer is one viewer layer.
type Layer struct {
	Type            classify.LayerType   `json:"type"`
	Name            string               `json:"name"`
	Source          Source               `json:"source"`
	Tab             string               `json:"tab,omitempty"`
	Opacity         float64              `json:"opacity,omitempty"`
	Blend           string               `json:"blend,omitempty"`
	Shader          string               `json:"shader,omitempty"`
	ShaderControls  *ShaderControls      `json:"shaderControls,omitempty"`
	LocalDimensions map[string]Dimension `json:"localDimensions,omitempty"`
	LocalPosition   []int                `json:"localPosition,omitempty"`
}

// SelectedLayer identifies the layer shown in the side panel.
type SelectedLayer struct {
	Visible bool   `json:"visible"`
	Layer   string `json:"layer"`
}

// State is a Neuroglancer viewer state.
type State struct {
	Dimensions    *Dimensions   `json:"dimensions,omitempty"`
	Layers        []Layer       `json:"layers"`
	SelectedLayer SelectedLayer `json:"selectedLayer"`
	Layout        string        `json:"layout"`
}

// JSON encodes the state without HTML escaping.
func (s *State) JSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Options configures OME-Zarr state construction.
type Options struct {
	// ContrastScale multiplies the upper contrast limit of each channel.
	ContrastScale float64

	// Logger receives notices about unused axes.
	Logger *log.Logger
}

// ValidateAndSetDefaults fills zero fields with defaults.
func (o *Options) ValidateAndSetDefaults() {
	if o.ContrastScale <= 0 {
		o.ContrastScale = DefaultContrastScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// SourceLocator returns the Neuroglancer source string for a Zarr dataset:
// the URL with a trailing slash followed by "|zarr<version>:".
func SourceLocator(dataURL string, zarrVersion int) string {
	if !strings.HasSuffix(dataURL, "/") {
		dataURL += "/"
	}
	return dataURL + "|zarr" + strconv.Itoa(zarrVersion) + ":"
}

// LayerName derives a layer name from the last path segment of a URL.
func LayerName(dataURL string) string {
	p := dataURL
	if u, err := url.Parse(dataURL); err == nil && u.Path != "" {
		p = u.Path
	} else if err == nil && u.Scheme != "" {
		p = ""
	}
	name := path.Base(strings.TrimRight(p, "/"))
	if name == "." || name == "/" || name == "" {
		return DefaultLayerName
	}
	return name
}

// RawArrayState describes a bare array as one layer windowed to the dtype
// range. No dimensions are emitted.
func RawArrayState(dataURL string, arr *zarr.ArrayDescriptor, layerType classify.LayerType) (*State, error) {
	if arr == nil {
		return nil, zerrors.New(zerrors.ErrCodeViewerStateConstruction, "no array metadata for %s", dataURL)
	}
	dt := zarr.InspectDtype(arr.Dtype, nil)
	layer := Layer{
		Type:   layerType,
		Name:   LayerName(dataURL),
		Source: Source{URL: SourceLocator(dataURL, arr.ZarrVersion)},
		ShaderControls: &ShaderControls{
			Normalized: NormalizedControl{Range: [2]float64{dt.Min, dt.Max}},
		},
	}
	return &State{
		Layers:        []Layer{layer},
		SelectedLayer: SelectedLayer{Visible: true, Layer: layer.Name},
		Layout:        DefaultLayout,
	}, nil
}

// OmeZarrState describes a multiscale image.
//
// Global dimensions follow the x, y, z, t order with the resolved full
// resolution scale and canonical units. The "c" axis never becomes a global
// dimension; each channel is its own layer instead. With no channels the
// result is the raw-array state of the full resolution array.
func OmeZarrState(dataURL string, img *zarr.OmeZarrImage, channels []zarr.Channel, layerType classify.LayerType, opts Options) (*State, error) {
	opts.ValidateAndSetDefaults()

	switch {
	case img == nil:
		return nil, zerrors.New(zerrors.ErrCodeViewerStateConstruction, "no image metadata for %s", dataURL)
	case img.Array == nil:
		return nil, zerrors.New(zerrors.ErrCodeViewerStateConstruction, "no array metadata for %s", dataURL)
	case len(img.Multiscale.Datasets) == 0:
		return nil, zerrors.New(zerrors.ErrCodeViewerStateConstruction, "multiscale of %s has no datasets", dataURL)
	case len(img.Multiscale.Axes) == 0:
		return nil, zerrors.New(zerrors.ErrCodeViewerStateConstruction, "multiscale of %s has no axes", dataURL)
	}

	axes := zarr.NewAxisMap(img.Multiscale.Axes)
	scale := img.ResolvedScale()

	dims := &Dimensions{}
	for _, name := range DimensionOrder {
		a, ok := axes.Get(name)
		if !ok {
			continue
		}
		s := 1.0
		if a.Index < len(scale) {
			s = scale[a.Index]
		}
		dims.Set(name, Dimension{Scale: s, Unit: zarr.TranslateUnit(a.Unit)})
	}
	for _, a := range img.Multiscale.Axes {
		switch a.Name {
		case "x", "y", "z", "t", zarr.ChannelAxis:
		default:
			opts.Logger.Warn("axis not shown in viewer", "axis", a.Name)
		}
	}

	if len(channels) == 0 {
		st, err := RawArrayState(dataURL, img.Array, layerType)
		if err != nil {
			return nil, err
		}
		st.Dimensions = dims
		return st, nil
	}

	channelUnit := ""
	if c, ok := axes.Get(zarr.ChannelAxis); ok {
		channelUnit = zarr.TranslateUnit(c.Unit)
	}
	dt := zarr.InspectDtype(img.Array.Dtype, opts.Logger)
	locator := SourceLocator(dataURL, img.ZarrVersion)
	pin := map[string]Dimension{ChannelDimension: {Scale: 1, Unit: channelUnit}}

	layers := make([]Layer, 0, len(channels))
	for i, ch := range channels {
		lo := valueOr(ch.PixelIntensityMin, dt.Min)
		hi := valueOr(ch.PixelIntensityMax, dt.Max)
		start := valueOr(ch.ContrastLimitStart, dt.Min)
		end := valueOr(ch.ContrastLimitEnd, dt.Max) * opts.ContrastScale
		layer := Layer{
			Type: layerType,
			Name: ch.Name,
			Source: Source{
				URL:       locator,
				Transform: &SourceTransform{OutputDimensions: pin},
			},
			Tab:             "rendering",
			Opacity:         1,
			Blend:           "additive",
			LocalDimensions: pin,
			LocalPosition:   []int{i},
			Shader:          Shader(ch.Color, lo, hi),
			ShaderControls: &ShaderControls{
				Normalized: NormalizedControl{Range: [2]float64{start, end}},
			},
		}
		layers = append(layers, layer)
	}

	return &State{
		Dimensions:    dims,
		Layers:        layers,
		SelectedLayer: SelectedLayer{Visible: true, Layer: layers[0].Name},
		Layout:        DefaultLayout,
	}, nil
}

func valueOr(p *float64, fallback float64) float64 {
	if p == nil {
		return fallback
	}
	return *p
}

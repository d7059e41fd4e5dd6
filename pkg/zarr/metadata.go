package zarr

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"strings"

	zerrors "github.com/zarrlens/zarrlens/pkg/errors"
)

// Metadata document keys relative to a node.
const (
	KeyArrayV2      = ".zarray"
	KeyAttributesV2 = ".zattrs"
	KeyGroupV2      = ".zgroup"
	KeyNodeV3       = "zarr.json"
)

// Node types of a v3 zarr.json document.
const (
	NodeArray = "array"
	NodeGroup = "group"
)

// Codec names understood by the chunk decoder. V2 compressor ids and v3
// codec names share one namespace.
const (
	CodecBytes    = "bytes"
	CodecGzip     = "gzip"
	CodecZlib     = "zlib"
	CodecZstd     = "zstd"
	CodecBlosc    = "blosc"
	CodecSharding = "sharding_indexed"
	CodecCRC32C   = "crc32c"
)

// Codec is a compressor (v2) or codec (v3) entry.
type Codec struct {
	Name          string         `json:"name"`
	Configuration map[string]any `json:"configuration,omitempty"`
}

// UnmarshalJSON accepts the v3 object form and the bare name shorthand.
func (c *Codec) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*c = Codec{Name: name}
		return nil
	}
	type codecAlias Codec
	var v codecAlias
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*c = Codec(v)
	return nil
}

// ChunkKeyEncoding describes how chunk grid coordinates map to store keys.
type ChunkKeyEncoding struct {
	Prefix    string `json:"prefix,omitempty"`
	Separator string `json:"separator"`
}

// ArrayDescriptor is the immutable description of one chunked array.
// len(Shape) == len(Chunks) holds for every descriptor produced by the
// parsers in this package.
type ArrayDescriptor struct {
	Shape       []int            `json:"shape"`
	Chunks      []int            `json:"chunks"`
	Dtype       string           `json:"dtype"`
	ZarrVersion int              `json:"zarr_version"`
	FillValue   float64          `json:"fill_value"`
	Order       string           `json:"order,omitempty"`
	Codecs      []Codec          `json:"codecs,omitempty"`
	KeyEncoding ChunkKeyEncoding `json:"chunk_key_encoding"`
	Endian      string           `json:"endian,omitempty"`
}

// Compression returns a short label for the array's compression, or "none".
func (a *ArrayDescriptor) Compression() string {
	var names []string
	for _, c := range a.Codecs {
		switch c.Name {
		case CodecBytes, "transpose", CodecCRC32C:
			continue
		}
		names = append(names, c.Name)
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "+")
}

func (a *ArrayDescriptor) validate() error {
	if len(a.Shape) != len(a.Chunks) {
		return zerrors.New(zerrors.ErrCodeMetadataMalformed,
			"shape has %d dimensions but chunks has %d", len(a.Shape), len(a.Chunks))
	}
	for i, c := range a.Chunks {
		if c <= 0 {
			return zerrors.New(zerrors.ErrCodeMetadataMalformed, "chunk size %d at dimension %d", c, i)
		}
		if a.Shape[i] < 0 {
			return zerrors.New(zerrors.ErrCodeMetadataMalformed, "negative extent at dimension %d", i)
		}
	}
	return nil
}

type arrayV2 struct {
	ZarrFormat         int              `json:"zarr_format"`
	Shape              []int            `json:"shape"`
	Chunks             []int            `json:"chunks"`
	Dtype              json.RawMessage  `json:"dtype"`
	Compressor         map[string]any   `json:"compressor"`
	Filters            []map[string]any `json:"filters"`
	FillValue          json.RawMessage  `json:"fill_value"`
	Order              string           `json:"order"`
	DimensionSeparator string           `json:"dimension_separator"`
}

// ParseArrayV2 decodes a Zarr v2 .zarray document.
func ParseArrayV2(data []byte) (*ArrayDescriptor, error) {
	var raw arrayV2
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, zerrors.Wrap(zerrors.ErrCodeMetadataMalformed, err, "decode %s", KeyArrayV2)
	}

	var dtype string
	if err := json.Unmarshal(raw.Dtype, &dtype); err != nil {
		return nil, zerrors.New(zerrors.ErrCodeUnsupported, "structured dtype %s", string(raw.Dtype))
	}

	a := &ArrayDescriptor{
		Shape:       raw.Shape,
		Chunks:      raw.Chunks,
		Dtype:       dtype,
		ZarrVersion: 2,
		FillValue:   parseFillValue(raw.FillValue),
		Order:       raw.Order,
		KeyEncoding: ChunkKeyEncoding{Separator: "."},
	}
	if raw.DimensionSeparator != "" {
		a.KeyEncoding.Separator = raw.DimensionSeparator
	}
	for _, f := range raw.Filters {
		a.Codecs = append(a.Codecs, codecFromV2(f))
	}
	if raw.Compressor != nil {
		a.Codecs = append(a.Codecs, codecFromV2(raw.Compressor))
	}
	if a.Order == "" {
		a.Order = "C"
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return a, nil
}

func codecFromV2(m map[string]any) Codec {
	c := Codec{Configuration: map[string]any{}}
	for k, v := range m {
		if k == "id" {
			c.Name, _ = v.(string)
			continue
		}
		c.Configuration[k] = v
	}
	return c
}

// parseFillValue decodes a fill value, treating null and non-numeric values
// as zero. "NaN" and "Infinity" map to their float64 counterparts.
func parseFillValue(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		switch s {
		case "NaN":
			return math.NaN()
		case "Infinity":
			return math.Inf(1)
		case "-Infinity":
			return math.Inf(-1)
		}
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil && b {
		return 1
	}
	return 0
}

type nodeV3 struct {
	ZarrFormat int             `json:"zarr_format"`
	NodeType   string          `json:"node_type"`
	Shape      []int           `json:"shape"`
	DataType   json.RawMessage `json:"data_type"`
	ChunkGrid  struct {
		Name          string `json:"name"`
		Configuration struct {
			ChunkShape []int `json:"chunk_shape"`
		} `json:"configuration"`
	} `json:"chunk_grid"`
	ChunkKeyEncoding struct {
		Name          string `json:"name"`
		Configuration struct {
			Separator string `json:"separator"`
		} `json:"configuration"`
	} `json:"chunk_key_encoding"`
	FillValue  json.RawMessage `json:"fill_value"`
	Codecs     []Codec         `json:"codecs"`
	Attributes json.RawMessage `json:"attributes"`
}

// Node is a decoded v3 zarr.json document.
// Array is set for array nodes; Attributes is set when the node carries any.
type Node struct {
	Type       string
	Array      *ArrayDescriptor
	Attributes *Attributes
}

// ParseNode decodes a Zarr v3 zarr.json document of either node type.
func ParseNode(data []byte) (*Node, error) {
	var raw nodeV3
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, zerrors.Wrap(zerrors.ErrCodeMetadataMalformed, err, "decode %s", KeyNodeV3)
	}
	if raw.ZarrFormat != 3 {
		return nil, zerrors.New(zerrors.ErrCodeMetadataMalformed, "%s has zarr_format %d", KeyNodeV3, raw.ZarrFormat)
	}

	n := &Node{Type: raw.NodeType}
	if len(raw.Attributes) > 0 && string(raw.Attributes) != "null" {
		attrs, err := ParseAttributes(raw.Attributes)
		if err != nil {
			return nil, err
		}
		n.Attributes = attrs
	}

	switch raw.NodeType {
	case NodeGroup:
		return n, nil
	case NodeArray:
	default:
		return nil, zerrors.New(zerrors.ErrCodeMetadataMalformed, "unknown node_type %q", raw.NodeType)
	}

	var dtype string
	if err := json.Unmarshal(raw.DataType, &dtype); err != nil {
		return nil, zerrors.New(zerrors.ErrCodeUnsupported, "extension data_type %s", string(raw.DataType))
	}
	if raw.ChunkGrid.Name != "" && raw.ChunkGrid.Name != "regular" {
		return nil, zerrors.New(zerrors.ErrCodeUnsupported, "chunk grid %q", raw.ChunkGrid.Name)
	}

	a := &ArrayDescriptor{
		Shape:       raw.Shape,
		Chunks:      raw.ChunkGrid.Configuration.ChunkShape,
		Dtype:       dtype,
		ZarrVersion: 3,
		FillValue:   parseFillValue(raw.FillValue),
		Order:       "C",
		Codecs:      raw.Codecs,
		Endian:      "little",
	}
	switch raw.ChunkKeyEncoding.Name {
	case "v2":
		a.KeyEncoding = ChunkKeyEncoding{Separator: "."}
	default:
		a.KeyEncoding = ChunkKeyEncoding{Prefix: "c", Separator: "/"}
	}
	if sep := raw.ChunkKeyEncoding.Configuration.Separator; sep != "" {
		a.KeyEncoding.Separator = sep
	}
	for _, c := range raw.Codecs {
		switch c.Name {
		case CodecBytes:
			if e, ok := c.Configuration["endian"].(string); ok {
				a.Endian = e
			}
		case "transpose":
			a.Order = "F"
		}
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	n.Array = a
	return n, nil
}

// ElementType resolves the element type used to read chunk bytes, applying
// the byte order of a v3 "bytes" codec.
func (a *ArrayDescriptor) ElementType() (Typestr, error) {
	t, err := ParseTypestr(a.Dtype)
	if err != nil {
		return Typestr{}, zerrors.Wrap(zerrors.ErrCodeUnsupported, err, "dtype")
	}
	if a.ZarrVersion == 3 && a.Endian == "big" {
		t.ByteOrder = binary.BigEndian
	}
	return t, nil
}

// Omero carries OMERO rendering hints.
type Omero struct {
	Name     string         `json:"name,omitempty"`
	Version  string         `json:"version,omitempty"`
	Channels []OmeroChannel `json:"channels"`
}

// OmeroChannel is one channel's display hints. Every field is optional.
type OmeroChannel struct {
	Label  string  `json:"label,omitempty"`
	Color  string  `json:"color,omitempty"`
	Active *bool   `json:"active,omitempty"`
	Window *Window `json:"window,omitempty"`
}

// Window is a channel's intensity window.
type Window struct {
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
	Start *float64 `json:"start,omitempty"`
	End   *float64 `json:"end,omitempty"`
}

// Dataset is one pyramid level of a multiscale image.
type Dataset struct {
	Path                      string                `json:"path"`
	CoordinateTransformations []CoordinateTransform `json:"coordinateTransformations,omitempty"`
}

// Multiscale describes a pyramid of arrays. Datasets[0] is full resolution.
type Multiscale struct {
	Version                   string                `json:"version,omitempty"`
	Name                      string                `json:"name,omitempty"`
	Type                      string                `json:"type,omitempty"`
	Axes                      []Axis                `json:"axes"`
	Datasets                  []Dataset             `json:"datasets"`
	CoordinateTransformations []CoordinateTransform `json:"coordinateTransformations,omitempty"`
}

// Attributes is the OME-Zarr part of a node's user attributes.
type Attributes struct {
	Multiscales []Multiscale `json:"multiscales,omitempty"`
	Omero       *Omero       `json:"omero,omitempty"`
}

// HasMultiscales reports whether the attributes describe an OME-Zarr image.
func (a *Attributes) HasMultiscales() bool {
	return a != nil && len(a.Multiscales) > 0
}

type omeNamespace struct {
	Version string `json:"version"`
}

// ParseAttributes decodes OME-Zarr attributes from a .zattrs document or from
// the attributes object of a zarr.json. Both the 0.4 top-level layout and the
// 0.5 layout nested under "ome" are accepted.
//
// Documents without multiscales decode to empty attributes. Documents whose
// multiscales or omero blocks do not conform to the expected shape fail with
// METADATA_MALFORMED.
func ParseAttributes(data []byte) (*Attributes, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, zerrors.Wrap(zerrors.ErrCodeMetadataMalformed, err, "decode attributes")
	}

	var version string
	if ome, ok := top["ome"]; ok {
		data = ome
		var ns omeNamespace
		_ = json.Unmarshal(ome, &ns)
		version = ns.Version
	}

	if err := validateAttributes(data); err != nil {
		return nil, err
	}

	var attrs Attributes
	if err := json.Unmarshal(data, &attrs); err != nil {
		return nil, zerrors.Wrap(zerrors.ErrCodeMetadataMalformed, err, "decode multiscales")
	}
	for i := range attrs.Multiscales {
		if attrs.Multiscales[i].Version == "" {
			attrs.Multiscales[i].Version = version
		}
	}
	return &attrs, nil
}

// Metadata is the aggregate produced for one dataset resolution. It is one
// of Absent, RawArray or OmeZarrImage; consumers switch on the concrete type.
type Metadata interface {
	// Kind returns "absent", "raw_array" or "ome_zarr".
	Kind() string
	sealed()
}

// Absent means nothing interpretable was found.
type Absent struct{}

// RawArray is a bare Zarr array without multiscale metadata.
type RawArray struct {
	Array *ArrayDescriptor
}

// Level is one resolved pyramid level.
type Level struct {
	Path  string
	Array *ArrayDescriptor
}

// OmeZarrImage is a multiscale image. Array is the full resolution level
// (Levels[0].Array). Omero is nil when the image carries no channel metadata.
type OmeZarrImage struct {
	Array       *ArrayDescriptor
	Multiscale  Multiscale
	Omero       *Omero
	Levels      []Level
	ZarrVersion int
}

func (Absent) Kind() string       { return "absent" }
func (RawArray) Kind() string     { return "raw_array" }
func (OmeZarrImage) Kind() string { return "ome_zarr" }

func (Absent) sealed()       {}
func (RawArray) sealed()     {}
func (OmeZarrImage) sealed() {}

// ResolvedScale returns the physical scale of the full resolution level,
// composed with the multiscale root scale.
func (img *OmeZarrImage) ResolvedScale() []float64 {
	if len(img.Multiscale.Datasets) == 0 {
		return nil
	}
	return ResolveScale(img.Multiscale.Datasets[0].CoordinateTransformations,
		img.Multiscale.CoordinateTransformations)
}

package classify

import (
	"encoding/json"
	"fmt"
	"strings"
)

// LayerType is the rendering type of a viewer layer.
// The numeric values match the legacy layer type codes, where 2 was the
// default and meant "let the viewer decide".
type LayerType int

const (
	LayerImage LayerType = iota
	LayerSegmentation
	LayerAuto
)

func (t LayerType) String() string {
	switch t {
	case LayerImage:
		return "image"
	case LayerSegmentation:
		return "segmentation"
	case LayerAuto:
		return "auto"
	default:
		return fmt.Sprintf("LayerType(%d)", int(t))
	}
}

// ParseLayerType parses "image", "segmentation" or "auto".
func ParseLayerType(s string) (LayerType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "image":
		return LayerImage, nil
	case "segmentation":
		return LayerSegmentation, nil
	case "auto", "":
		return LayerAuto, nil
	}
	return LayerAuto, fmt.Errorf("unknown layer type %q", s)
}

// MarshalJSON encodes the layer type by name.
func (t LayerType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts a layer type name or a legacy numeric code.
func (t *LayerType) UnmarshalJSON(data []byte) error {
	var code int
	if err := json.Unmarshal(data, &code); err == nil {
		if code < int(LayerImage) || code > int(LayerAuto) {
			return fmt.Errorf("unknown layer type code %d", code)
		}
		*t = LayerType(code)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseLayerType(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

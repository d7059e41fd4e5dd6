package zarr

import (
	"encoding/json"
	"fmt"
)

// Axis types defined by OME-Zarr.
const (
	AxisSpace   = "space"
	AxisTime    = "time"
	AxisChannel = "channel"
)

// ChannelAxis is the conventional name of the channel dimension.
const ChannelAxis = "c"

// Axis describes one dimension of a multiscale image.
// Index is the position of the axis in the array shape and chunks; it is set
// by NewAxisMap and is not part of the serialized metadata.
type Axis struct {
	Name  string `json:"name"`
	Type  string `json:"type,omitempty"`
	Unit  string `json:"unit,omitempty"`
	Index int    `json:"-"`
}

// UnmarshalJSON accepts both the object form ({"name": "x", ...}) and the
// bare string form used by OME-Zarr 0.3 ("x").
func (a *Axis) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*a = Axis{Name: name}
		return nil
	}

	type axisAlias Axis
	var v axisAlias
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("axis: %w", err)
	}
	*a = Axis(v)
	return nil
}

// AxisMap indexes axes by name.
type AxisMap map[string]Axis

// NewAxisMap builds a name-indexed view of axes in a single pass.
// Each axis records its position in the source list as Index.
func NewAxisMap(axes []Axis) AxisMap {
	m := make(AxisMap, len(axes))
	for i, a := range axes {
		a.Index = i
		m[a.Name] = a
	}
	return m
}

// Get returns the named axis.
func (m AxisMap) Get(name string) (Axis, bool) {
	a, ok := m[name]
	return a, ok
}

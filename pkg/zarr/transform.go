package zarr

// TransformScale is the only coordinate transform type consumed here.
const TransformScale = "scale"

// CoordinateTransform is one entry of an OME-Zarr coordinateTransformations
// list. Only transforms of type "scale" contribute to resolved scales;
// "translation" and "identity" entries are decoded and otherwise ignored.
type CoordinateTransform struct {
	Type        string    `json:"type"`
	Scale       []float64 `json:"scale,omitempty"`
	Translation []float64 `json:"translation,omitempty"`
	Path        string    `json:"path,omitempty"`
}

// FirstScale returns the scale vector of the first transform whose type is
// "scale". The boolean is false when no such transform exists.
func FirstScale(transforms []CoordinateTransform) ([]float64, bool) {
	for _, t := range transforms {
		if t.Type == TransformScale {
			return t.Scale, true
		}
	}
	return nil, false
}

// ResolveScale composes a dataset level scale with the multiscale (root)
// scale: out[i] = dataset[i] * root[i], where a missing root component is 1.
// Only indices present in the dataset scale are produced, so a dataset with
// no scale transform yields an empty result.
func ResolveScale(dataset, root []CoordinateTransform) []float64 {
	ds, _ := FirstScale(dataset)
	rs, _ := FirstScale(root)
	out := make([]float64, len(ds))
	for i, v := range ds {
		r := 1.0
		if i < len(rs) {
			r = rs[i]
		}
		out[i] = v * r
	}
	return out
}

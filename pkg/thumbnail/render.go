package thumbnail

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/png"
	"math"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/image/draw"

	zerrors "github.com/zarrlens/zarrlens/pkg/errors"
	"github.com/zarrlens/zarrlens/pkg/store"
	"github.com/zarrlens/zarrlens/pkg/zarr"
)

// DataURLPrefix starts every rendered thumbnail.
const DataURLPrefix = "data:image/png;base64,"

// Renderer turns an image into a PNG data URL.
type Renderer interface {
	Render(ctx context.Context, st store.Store, img *zarr.OmeZarrImage, opts Options) (string, error)
}

// PlaneRenderer renders the middle Z plane of the first time point.
type PlaneRenderer struct{}

// NewRenderer returns the default Renderer.
func NewRenderer() *PlaneRenderer { return &PlaneRenderer{} }

// Render implements Renderer. Every failure carries THUMBNAIL_FAILURE or a
// more specific code; callers treat it as non-fatal.
func (r *PlaneRenderer) Render(ctx context.Context, st store.Store, img *zarr.OmeZarrImage, opts Options) (string, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return "", err
	}
	if img == nil || len(img.Levels) == 0 {
		return "", zerrors.New(zerrors.ErrCodeThumbnailFailure, "image has no pyramid levels")
	}

	axes := zarr.NewAxisMap(img.Multiscale.Axes)
	level := pickLevel(img.Levels, axes, opts.Size)
	arr := level.Array
	if arr == nil {
		return "", zerrors.New(zerrors.ErrCodeThumbnailFailure, "level %s has no array metadata", level.Path)
	}
	y, x := yxDims(axes, len(arr.Shape))
	if y < 0 {
		return "", zerrors.New(zerrors.ErrCodeThumbnailFailure, "array has fewer than two dimensions")
	}
	if h, w := arr.Shape[y], arr.Shape[x]; max(h, w) > opts.MaxSize {
		return "", zerrors.New(zerrors.ErrCodeThumbnailFailure,
			"smallest level %s is %dx%d, larger than %d", level.Path, w, h, opts.MaxSize)
	}
	if arr.Shape[y] == 0 || arr.Shape[x] == 0 {
		return "", zerrors.New(zerrors.ErrCodeThumbnailFailure, "empty plane")
	}

	base := make([]int, len(arr.Shape))
	if z, ok := axes.Get("z"); ok && z.Index < len(arr.Shape) {
		base[z.Index] = arr.Shape[z.Index] / 2
	}

	channels := renderChannels(img, axes, opts)
	composite := image.NewRGBA(image.Rect(0, 0, arr.Shape[x], arr.Shape[y]))
	acc := make([][3]float64, arr.Shape[x]*arr.Shape[y])
	for _, ch := range channels {
		index := slices.Clone(base)
		if ch.axis >= 0 && ch.axis < len(index) {
			if ch.index >= arr.Shape[ch.axis] {
				continue
			}
			index[ch.axis] = ch.index
		}
		p, err := readPlane(ctx, st, planeSpec{arrayPath: level.Path, array: arr, index: index, y: y, x: x})
		if err != nil {
			if zerrors.GetCode(err) == "" {
				return "", zerrors.Wrap(zerrors.ErrCodeThumbnailFailure, err, "read level %s", level.Path)
			}
			return "", err
		}
		lo, hi := contrastRange(p.values, ch.channel, opts.AutoBoost)
		rgb := parseColor(ch.channel.Color)
		for i, v := range p.values {
			t := normalize(v, lo, hi)
			acc[i][0] += t * rgb[0]
			acc[i][1] += t * rgb[1]
			acc[i][2] += t * rgb[2]
		}
		opts.Logger.Debug("thumbnail channel", "name", ch.channel.Name, "level", level.Path, "min", lo, "max", hi)
	}
	for i, px := range acc {
		composite.Pix[i*4+0] = clampByte(px[0])
		composite.Pix[i*4+1] = clampByte(px[1])
		composite.Pix[i*4+2] = clampByte(px[2])
		composite.Pix[i*4+3] = 0xff
	}

	out := resize(composite, opts.Size)
	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return "", zerrors.Wrap(zerrors.ErrCodeThumbnailFailure, err, "encode png")
	}
	return DataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// pickLevel returns the lowest resolution level whose longer YX side still
// covers size, or the full resolution level when none does.
func pickLevel(levels []zarr.Level, axes zarr.AxisMap, size int) zarr.Level {
	for i := len(levels) - 1; i >= 0; i-- {
		arr := levels[i].Array
		if arr == nil {
			continue
		}
		y, x := yxDims(axes, len(arr.Shape))
		if y >= 0 && max(arr.Shape[y], arr.Shape[x]) >= size {
			return levels[i]
		}
	}
	return levels[0]
}

// yxDims locates the y and x dimensions, falling back to the last two.
func yxDims(axes zarr.AxisMap, ndim int) (y, x int) {
	if ndim < 2 {
		return -1, -1
	}
	y, x = ndim-2, ndim-1
	if a, ok := axes.Get("y"); ok && a.Index < ndim {
		y = a.Index
	}
	if a, ok := axes.Get("x"); ok && a.Index < ndim {
		x = a.Index
	}
	if y == x {
		return ndim - 2, ndim - 1
	}
	return y, x
}

type renderChannel struct {
	channel zarr.Channel
	axis    int
	index   int
}

// renderChannels lists the channels to composite. Inactive omero channels
// are skipped; without channel metadata a single white channel is used.
func renderChannels(img *zarr.OmeZarrImage, axes zarr.AxisMap, opts Options) []renderChannel {
	axis := -1
	if c, ok := axes.Get(zarr.ChannelAxis); ok {
		axis = c.Index
	}

	var out []renderChannel
	for i, ch := range img.Channels(opts.Logger) {
		if img.Omero != nil && i < len(img.Omero.Channels) {
			if a := img.Omero.Channels[i].Active; a != nil && !*a {
				continue
			}
		}
		if axis < 0 && i > 0 {
			break
		}
		out = append(out, renderChannel{channel: ch, axis: axis, index: i})
		if len(out) == maxChannels {
			break
		}
	}
	if len(out) == 0 {
		out = append(out, renderChannel{channel: zarr.Channel{Name: "default", Color: zarr.SingleChannelColor}, axis: axis})
	}
	return out
}

// contrastRange picks the intensity window of one channel's plane.
func contrastRange(values []float64, ch zarr.Channel, autoBoost bool) (lo, hi float64) {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	switch {
	case len(finite) == 0:
		return 0, 1
	case autoBoost:
		slices.Sort(finite)
		lo, hi = percentile(finite, 0.005), percentile(finite, 0.995)
	case ch.ContrastLimitStart != nil && ch.ContrastLimitEnd != nil:
		lo, hi = *ch.ContrastLimitStart, *ch.ContrastLimitEnd
	default:
		lo, hi = slices.Min(finite), slices.Max(finite)
	}
	if hi <= lo {
		hi = lo + 1
	}
	return lo, hi
}

// percentile reads quantile q from sorted values by nearest rank.
func percentile(sorted []float64, q float64) float64 {
	i := int(math.Round(q * float64(len(sorted)-1)))
	return sorted[i]
}

func normalize(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	t := (v - lo) / (hi - lo)
	return math.Max(0, math.Min(1, t))
}

func clampByte(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(255, v))))
}

var namedColors = map[string][3]float64{
	"white":   {255, 255, 255},
	"red":     {255, 0, 0},
	"green":   {0, 255, 0},
	"blue":    {0, 0, 255},
	"magenta": {255, 0, 255},
	"cyan":    {0, 255, 255},
	"yellow":  {255, 255, 0},
}

// parseColor reads a palette name or a 6 digit hex color. Anything else
// renders white.
func parseColor(s string) [3]float64 {
	s = strings.TrimPrefix(strings.ToLower(s), "#")
	if c, ok := namedColors[s]; ok {
		return c
	}
	if len(s) == 6 {
		if v, err := strconv.ParseUint(s, 16, 32); err == nil {
			return [3]float64{float64(v >> 16 & 0xff), float64(v >> 8 & 0xff), float64(v & 0xff)}
		}
	}
	return namedColors["white"]
}

// resize scales src so its longer side equals size, keeping aspect ratio.
func resize(src *image.RGBA, size int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if max(w, h) == size {
		return src
	}
	scale := float64(size) / float64(max(w, h))
	dw := max(1, int(math.Round(float64(w)*scale)))
	dh := max(1, int(math.Round(float64(h)*scale)))

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

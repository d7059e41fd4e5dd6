package zarr

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/log"
)

// Palette is the color cycle used for channels without an explicit color.
var Palette = []string{"magenta", "green", "cyan", "white", "red", "green", "blue"}

// SingleChannelColor is forced onto a lone synthesized channel, which is
// treated as a grayscale image rather than one member of a composite.
const SingleChannelColor = "white"

// PaletteColor returns the palette color for channel i.
func PaletteColor(i int) string {
	n := len(Palette)
	return Palette[((i%n)+n)%n]
}

// Channel is one renderable channel. Intensity and contrast fields are nil
// when the source metadata does not provide them.
type Channel struct {
	Name               string   `json:"name"`
	Color              string   `json:"color"`
	PixelIntensityMin  *float64 `json:"pixel_intensity_min,omitempty"`
	PixelIntensityMax  *float64 `json:"pixel_intensity_max,omitempty"`
	ContrastLimitStart *float64 `json:"contrast_limit_start,omitempty"`
	ContrastLimitEnd   *float64 `json:"contrast_limit_end,omitempty"`
}

// ResolveChannels derives the channel list of an image.
//
// With omero metadata every omero channel maps to one Channel, named by its
// label (or "Ch<i>") and colored by its color (or the palette). Without omero
// metadata but with a "c" axis, one channel per element along that axis is
// synthesized with the dtype range as intensity window. Otherwise the result
// is empty.
func ResolveChannels(omero *Omero, axes AxisMap, shape []int, dt DtypeInfo) []Channel {
	var channels []Channel
	switch {
	case omero != nil && len(omero.Channels) > 0:
		channels = make([]Channel, 0, len(omero.Channels))
		for i, oc := range omero.Channels {
			ch := Channel{Name: oc.Label, Color: oc.Color}
			if ch.Name == "" {
				ch.Name = "Ch" + strconv.Itoa(i)
			}
			if ch.Color == "" {
				ch.Color = PaletteColor(i)
			}
			if w := oc.Window; w != nil {
				ch.PixelIntensityMin = copyFloat(w.Min)
				ch.PixelIntensityMax = copyFloat(w.Max)
				ch.ContrastLimitStart = copyFloat(w.Start)
				ch.ContrastLimitEnd = copyFloat(w.End)
			}
			channels = append(channels, ch)
		}

	default:
		c, ok := axes.Get(ChannelAxis)
		if !ok || c.Index >= len(shape) {
			return nil
		}
		n := shape[c.Index]
		channels = make([]Channel, 0, n)
		for i := 0; i < n; i++ {
			lo, hi := dt.Min, dt.Max
			channels = append(channels, Channel{
				Name:               "Ch" + strconv.Itoa(i),
				Color:              PaletteColor(i),
				PixelIntensityMin:  &lo,
				PixelIntensityMax:  &hi,
				ContrastLimitStart: &lo,
				ContrastLimitEnd:   &hi,
			})
		}
		if len(channels) == 1 {
			channels[0].Color = SingleChannelColor
		}
	}

	dedupeNames(channels)
	return channels
}

// dedupeNames suffixes repeated channel names so layer names stay unique.
func dedupeNames(channels []Channel) {
	seen := make(map[string]int, len(channels))
	for _, ch := range channels {
		seen[ch.Name]++
	}
	used := make(map[string]bool, len(channels))
	for i := range channels {
		name := channels[i].Name
		if seen[name] > 1 || used[name] {
			for n := 1; ; n++ {
				candidate := fmt.Sprintf("%s (%d)", name, n)
				if !used[candidate] && seen[candidate] == 0 {
					name = candidate
					break
				}
			}
		}
		used[name] = true
		channels[i].Name = name
	}
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Channels resolves the channels of an image against its full resolution
// array. logger may be nil.
func (img *OmeZarrImage) Channels(logger *log.Logger) []Channel {
	if img.Array == nil {
		return ResolveChannels(img.Omero, NewAxisMap(img.Multiscale.Axes), nil, InspectDtype("", nil))
	}
	return ResolveChannels(img.Omero, NewAxisMap(img.Multiscale.Axes), img.Array.Shape,
		InspectDtype(img.Array.Dtype, logger))
}

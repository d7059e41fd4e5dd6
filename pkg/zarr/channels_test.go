package zarr

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func f64(v float64) *float64 { return &v }

func TestPaletteColor(t *testing.T) {
	want := []string{"magenta", "green", "cyan", "white", "red", "green", "blue", "magenta", "green"}
	for i, w := range want {
		if got := PaletteColor(i); got != w {
			t.Errorf("PaletteColor(%d) = %q, want %q", i, got, w)
		}
	}
}

func TestResolveChannelsFromOmero(t *testing.T) {
	omero := &Omero{Channels: []OmeroChannel{
		{Label: "DAPI", Color: "0000FF", Window: &Window{Min: f64(0), Max: f64(4095), Start: f64(100), End: f64(2000)}},
		{Window: &Window{Start: f64(5)}},
		{Label: "GFP"},
	}}
	axes := NewAxisMap([]Axis{{Name: "c"}, {Name: "y"}, {Name: "x"}})

	got := ResolveChannels(omero, axes, []int{3, 64, 64}, InspectDtype("uint16", nil))
	want := []Channel{
		{
			Name: "DAPI", Color: "0000FF",
			PixelIntensityMin: f64(0), PixelIntensityMax: f64(4095),
			ContrastLimitStart: f64(100), ContrastLimitEnd: f64(2000),
		},
		{Name: "Ch1", Color: "green", ContrastLimitStart: f64(5)},
		{Name: "GFP", Color: "cyan"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ResolveChannels() mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveChannelsSingleOmeroKeepsColor(t *testing.T) {
	omero := &Omero{Channels: []OmeroChannel{{Label: "only", Color: "FF0000"}}}
	got := ResolveChannels(omero, nil, nil, DtypeInfo{})
	if len(got) != 1 || got[0].Color != "FF0000" {
		t.Errorf("ResolveChannels() = %+v, want explicit color kept", got)
	}
}

func TestResolveChannelsSynthesizedSingleIsWhite(t *testing.T) {
	// t, z, y, c, x with a single channel at index 3
	axes := NewAxisMap([]Axis{{Name: "t"}, {Name: "z"}, {Name: "y"}, {Name: "c"}, {Name: "x"}})
	dt := InspectDtype("uint16", nil)
	if dt.Min != 0 || dt.Max != 65535 {
		t.Fatalf("uint16 range = [%v, %v]", dt.Min, dt.Max)
	}

	got := ResolveChannels(nil, axes, []int{1, 10, 256, 1, 256}, dt)
	if len(got) != 1 {
		t.Fatalf("got %d channels, want 1", len(got))
	}
	if got[0].Color != "white" {
		t.Errorf("Color = %q, want white", got[0].Color)
	}
	if got[0].PixelIntensityMax == nil || *got[0].PixelIntensityMax != 65535 {
		t.Errorf("PixelIntensityMax = %v, want 65535", got[0].PixelIntensityMax)
	}
}

func TestResolveChannelsSynthesizedFromAxis(t *testing.T) {
	axes := NewAxisMap([]Axis{{Name: "c"}, {Name: "y"}, {Name: "x"}})
	got := ResolveChannels(&Omero{}, axes, []int{4, 8, 8}, InspectDtype("|u1", nil))

	if len(got) != 4 {
		t.Fatalf("got %d channels, want 4", len(got))
	}
	for i, ch := range got {
		if ch.Color != PaletteColor(i) {
			t.Errorf("channel %d color = %q, want %q", i, ch.Color, PaletteColor(i))
		}
		if *ch.ContrastLimitStart != 0 || *ch.ContrastLimitEnd != 255 {
			t.Errorf("channel %d contrast = [%v, %v], want [0, 255]", i, *ch.ContrastLimitStart, *ch.ContrastLimitEnd)
		}
	}
}

func TestResolveChannelsEmpty(t *testing.T) {
	axes := NewAxisMap([]Axis{{Name: "z"}, {Name: "y"}, {Name: "x"}})
	if got := ResolveChannels(nil, axes, []int{1, 2, 3}, DtypeInfo{}); len(got) != 0 {
		t.Errorf("ResolveChannels() = %+v, want empty", got)
	}
}

func TestResolveChannelsDedupesNames(t *testing.T) {
	omero := &Omero{Channels: []OmeroChannel{{Label: "A"}, {Label: "B"}, {Label: "A"}}}
	got := ResolveChannels(omero, nil, nil, DtypeInfo{})

	var names []string
	for _, ch := range got {
		names = append(names, ch.Name)
	}
	want := []string{"A (1)", "B", "A (2)"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
}

package classify

import (
	"image"
	"image/color"
)

// ThumbnailUniqueness returns the maximum uniqueness ratio (distinct RGB
// triples divided by pixel count) over opts.ThumbnailSamples random square
// crops of img. Alpha is ignored. An image smaller than the crop size in
// either direction is analyzed once as a whole.
func ThumbnailUniqueness(img image.Image, opts Options) float64 {
	opts.ValidateAndSetDefaults()

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return 0
	}

	crop := opts.CropSize
	if w < crop || h < crop {
		return uniqueness(img, b)
	}

	var best float64
	for range opts.ThumbnailSamples {
		x := b.Min.X + opts.Rand.IntN(w-crop+1)
		y := b.Min.Y + opts.Rand.IntN(h-crop+1)
		if r := uniqueness(img, image.Rect(x, y, x+crop, y+crop)); r > best {
			best = r
		}
	}
	return best
}

func uniqueness(img image.Image, r image.Rectangle) float64 {
	seen := make(map[[3]uint8]struct{}, r.Dx()*r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			seen[[3]uint8{c.R, c.G, c.B}] = struct{}{}
		}
	}
	return float64(len(seen)) / float64(r.Dx()*r.Dy())
}

// ClassifyThumbnail applies the uniqueness threshold to img.
func ClassifyThumbnail(img image.Image, opts Options) (LayerType, float64) {
	opts.ValidateAndSetDefaults()
	ratio := ThumbnailUniqueness(img, opts)
	if ratio < opts.UniquenessThreshold {
		return LayerSegmentation, ratio
	}
	return LayerImage, ratio
}

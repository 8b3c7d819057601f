package colour

import (
	stdimage "image"

	imageutil "github.com/jmylchreest/croptint/internal/image"
)

// SampleOptions controls which pixels contribute to colour extraction.
type SampleOptions struct {
	// Width and Height are the downscale grid dimensions. Every image is
	// resized to this fixed grid before sampling to bound the work.
	Width  int
	Height int

	// AlphaThreshold drops pixels whose alpha channel is below this value
	// (near-transparent canvas and checkerboard artifacts).
	AlphaThreshold uint8

	// ExtremeThreshold drops pixels whose channels are all within this
	// distance of 0 (near-black) or 255 (near-white). These are background
	// fill that would otherwise dominate the histogram.
	ExtremeThreshold uint8

	// MinSaturation drops pixels at or below this saturation. Greys carry
	// no hue information and are not useful for colour extraction.
	MinSaturation float64
}

// DefaultSampleOptions returns the documented default sampling thresholds.
func DefaultSampleOptions() SampleOptions {
	return SampleOptions{
		Width:            150,
		Height:           150,
		AlphaThreshold:   32,
		ExtremeThreshold: 20,
		MinSaturation:    0.15,
	}
}

// Samples downscales an image and converts its usable pixels to HSV.
// Pixels that are near-transparent, near-white, near-black or too grey are
// discarded. An empty result means the image has no informative colour.
func Samples(img stdimage.Image, opts SampleOptions) []HSV {
	if opts.Width <= 0 || opts.Height <= 0 {
		def := DefaultSampleOptions()
		opts.Width = def.Width
		opts.Height = def.Height
	}

	nrgba := imageutil.Downscale(img, opts.Width, opts.Height)
	bounds := nrgba.Bounds()

	samples := make([]HSV, 0, bounds.Dx()*bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			px := nrgba.NRGBAAt(x, y)

			if px.A < opts.AlphaThreshold {
				continue
			}
			if isExtreme(px.R, px.G, px.B, opts.ExtremeThreshold) {
				continue
			}

			hsv := ToHSV(RGB{R: px.R, G: px.G, B: px.B})
			if hsv.S <= opts.MinSaturation {
				continue
			}

			samples = append(samples, hsv)
		}
	}

	return samples
}

// isExtreme reports whether a pixel is near-black or near-white.
func isExtreme(r, g, b, threshold uint8) bool {
	if r < threshold && g < threshold && b < threshold {
		return true
	}
	upper := 255 - threshold
	if r > upper && g > upper && b > upper {
		return true
	}
	return false
}

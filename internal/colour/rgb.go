package colour

import (
	stdimage "image"

	"github.com/cenkalti/dominantcolor"
)

// RGBExtractor is the legacy extraction variant: k-means clustering in
// plain RGB space, without hue circularity or pixel filtering. It always
// produces a colour, even for monochrome images.
type RGBExtractor struct{}

// NewRGBExtractor creates a new RGBExtractor.
func NewRGBExtractor() *RGBExtractor {
	return &RGBExtractor{}
}

// Dominant returns the most dominant RGB cluster of the image.
func (e *RGBExtractor) Dominant(img stdimage.Image) (RGB, bool) {
	c := dominantcolor.Find(img)
	return RGB{R: c.R, G: c.G, B: c.B}, true
}

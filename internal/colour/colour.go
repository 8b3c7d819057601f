// Package colour provides dominant colour extraction for crop images.
package colour

import (
	"fmt"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB represents a colour in RGB format.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// String returns the RGB colour as a string in the format "rgb(r, g, b)".
func (rgb RGB) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", rgb.R, rgb.G, rgb.B)
}

// Hex returns the RGB colour as a hex string (e.g., "#1a2b3c").
func (rgb RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", rgb.R, rgb.G, rgb.B)
}

// ToRGB converts a color.Color to RGB.
func ToRGB(c color.Color) RGB {
	r, g, b, _ := c.RGBA()
	// RGBA returns values in the range [0, 65535], convert to [0, 255]
	return RGB{
		R: uint8(r >> 8),
		G: uint8(g >> 8),
		B: uint8(b >> 8),
	}
}

// HSV represents a colour in HSV space.
// H is the hue in degrees [0, 360); S and V are normalised to [0, 1].
type HSV struct {
	H float64
	S float64
	V float64
}

// ToHSV converts an RGB colour to HSV.
func ToHSV(rgb RGB) HSV {
	c := colorful.Color{
		R: float64(rgb.R) / 255.0,
		G: float64(rgb.G) / 255.0,
		B: float64(rgb.B) / 255.0,
	}
	h, s, v := c.Hsv()
	return HSV{H: h, S: s, V: v}
}

// RGB converts the HSV colour back to RGB, rounding each channel to the
// nearest integer in [0, 255].
func (hsv HSV) RGB() RGB {
	c := colorful.Hsv(hsv.H, hsv.S, hsv.V)
	r, g, b := c.RGB255()
	return RGB{R: r, G: g, B: b}
}

// Hex returns the HSV colour as a "#rrggbb" hex string.
func (hsv HSV) Hex() string {
	return colorful.Hsv(hsv.H, hsv.S, hsv.V).Hex()
}

// HueDistance calculates the angular distance between two hues on the
// colour wheel. Returns a value between 0 and 180 degrees (shortest path
// around the wheel), so hue 359 and hue 1 are 2 degrees apart.
func HueDistance(h1, h2 float64) float64 {
	diff := math.Abs(h1 - h2)
	if diff > 180 {
		diff = 360 - diff // Handle wraparound
	}
	return diff
}

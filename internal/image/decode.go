// Package image provides utilities for decoding and normalising images.
package image

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format
	_ "image/jpeg" // Register JPEG format
	_ "image/png"  // Register PNG format

	"github.com/disintegration/imaging"

	_ "golang.org/x/image/webp" // Register WebP format
)

// DecodeError indicates the payload was not a recognisable image.
type DecodeError struct {
	Err error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode image: %v", e.Err)
}

// Unwrap returns the underlying decoder error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decode decodes raw image bytes into an image.
// Supported formats: JPEG, PNG, GIF, WebP.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, &DecodeError{Err: fmt.Errorf("empty payload")}
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	return img, nil
}

// Downscale resizes an image to exactly width x height, discarding aspect
// ratio. Colour analysis does not care about geometry, only about the pixel
// population, and a fixed small grid bounds the per-image work.
// The result is an NRGBA image, which exposes the alpha channel directly.
func Downscale(img image.Image, width, height int) *image.NRGBA {
	return imaging.Resize(img, width, height, imaging.Lanczos)
}

package colour

import (
	"fmt"
	stdimage "image"
)

// Extractor defines the interface for dominant colour extraction
// algorithms.
type Extractor interface {
	// Dominant returns the single representative colour of an image.
	// ok is false when the image has no usable colour content.
	Dominant(img stdimage.Image) (RGB, bool)
}

// Algorithm represents the colour extraction algorithm type.
type Algorithm string

const (
	// AlgorithmHSV clusters pixels in HSV space with a circular hue
	// metric. This is the default.
	AlgorithmHSV Algorithm = "hsv"

	// AlgorithmRGB is the legacy variant: k-means in plain RGB space.
	// Kept for comparison; results are not guaranteed to match the HSV
	// variant or older datasets produced with it.
	AlgorithmRGB Algorithm = "rgb"
)

// ValidAlgorithms returns a list of valid algorithm names.
func ValidAlgorithms() []Algorithm {
	return []Algorithm{
		AlgorithmHSV,
		AlgorithmRGB,
	}
}

// IsValidAlgorithm checks if the given algorithm name is valid.
func IsValidAlgorithm(alg Algorithm) bool {
	for _, valid := range ValidAlgorithms() {
		if alg == valid {
			return true
		}
	}
	return false
}

// Options holds configuration for dominant colour extraction.
type Options struct {
	// Clusters is the number of k-means clusters.
	Clusters int

	// MaxIterations caps the number of k-means iterations.
	MaxIterations int

	// Seed drives centroid initialisation. A fixed seed makes extraction
	// reproducible across runs for the same image.
	Seed int64

	// SaturationScore weights cluster ranking by centroid saturation
	// instead of ranking by population alone.
	SaturationScore bool

	// Sample configures pixel filtering.
	Sample SampleOptions
}

// DefaultOptions returns the default extraction configuration.
func DefaultOptions() Options {
	return Options{
		Clusters:      5,
		MaxIterations: 20,
		Seed:          0,
		Sample:        DefaultSampleOptions(),
	}
}

// Validate validates the extraction configuration.
func (o Options) Validate() error {
	if o.Clusters < 1 {
		return fmt.Errorf("cluster count must be at least 1, got %d", o.Clusters)
	}
	if o.Clusters > 64 {
		return fmt.Errorf("cluster count too large: %d (maximum: 64)", o.Clusters)
	}
	if o.Sample.MinSaturation < 0 || o.Sample.MinSaturation >= 1 {
		return fmt.Errorf("minimum saturation must be in [0, 1), got %g", o.Sample.MinSaturation)
	}
	return nil
}

// NewExtractor creates a new Extractor based on the specified algorithm.
// Returns an error if the algorithm is not recognized.
func NewExtractor(alg Algorithm, opts Options) (Extractor, error) {
	switch alg {
	case AlgorithmHSV:
		return NewHSVExtractor(opts), nil
	case AlgorithmRGB:
		return NewRGBExtractor(), nil
	default:
		return nil, fmt.Errorf("unknown algorithm: %s (valid algorithms: %v)", alg, ValidAlgorithms())
	}
}

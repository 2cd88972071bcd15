// Package pipeline estimates left ventricular global longitudinal strain (LVGLS) from an echo
// cine.
//
// The stages run strictly forward: frame preparation, segmentation, cycle detection, border
// extraction, sampling, motion tracking, strain measurement and annotation. Each failure is
// reported as a *StageError naming the stage.
package pipeline

import (
	"github.com/nvr-ai/go-strain/border"
	"github.com/nvr-ai/go-strain/cycle"
	"github.com/nvr-ai/go-strain/images"
	"github.com/nvr-ai/go-strain/motion"
	"github.com/nvr-ai/go-strain/strain"
)

// PreprocessConfig describes how input frames are turned into tracking frames.
type PreprocessConfig struct {
	// CropFraction of the square side removed from every edge (hides the ECG trace).
	CropFraction float64 `json:"cropFraction" yaml:"cropFraction"`
	// TrackingSize is the side of the square frames used for border refinement and optical flow.
	TrackingSize int `json:"trackingSize" yaml:"trackingSize"`
}

// SamplingConfig controls how many points are taken from the border.
type SamplingConfig struct {
	// Points sampled along the border before the two outermost are dropped.
	Points int `json:"points" yaml:"points"`
}

// Config groups the settings of every stage.
type Config struct {
	Preprocess PreprocessConfig `json:"preprocess" yaml:"preprocess"`
	Cycle      cycle.Config     `json:"cycle" yaml:"cycle"`
	Border     border.Config    `json:"border" yaml:"border"`
	Sampling   SamplingConfig   `json:"sampling" yaml:"sampling"`
	Motion     motion.Config    `json:"motion" yaml:"motion"`
	Strain     strain.Config    `json:"strain" yaml:"strain"`
	// Marker is the overlay drawn for every tracked point.
	Marker images.Marker `json:"marker" yaml:"marker"`
	// Annotate enables rendering of the annotated frames.
	Annotate bool `json:"annotate" yaml:"annotate"`
}

// DefaultConfig returns the settings used for adult apical four chamber cines.
func DefaultConfig() Config {
	return Config{
		Preprocess: PreprocessConfig{
			CropFraction: 0.1,
			TrackingSize: 568,
		},
		Cycle:    cycle.DefaultConfig(),
		Border:   border.DefaultConfig(),
		Sampling: SamplingConfig{Points: 30},
		Motion:   motion.DefaultConfig(),
		Strain:   strain.DefaultConfig(),
		Marker:   images.DefaultMarker(),
		Annotate: true,
	}
}

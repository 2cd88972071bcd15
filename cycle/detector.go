// Package cycle isolates a single cardiac cycle from the per-frame left ventricle area signal.
package cycle

import (
	"fmt"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrInsufficientCycleData is returned when no valid cycle span can be derived from the areas.
var ErrInsufficientCycleData = errors.New("insufficient cycle data")

// Config holds the cycle detector tuning.
type Config struct {
	// CutoffHz is the low-pass cutoff applied to the area signal before locating zero crossings.
	CutoffHz float64 `json:"cutoffHz" yaml:"cutoffHz"`
	// FilterOrder is the Butterworth filter order.
	FilterOrder int `json:"filterOrder" yaml:"filterOrder"`
}

// DefaultConfig returns the detector tuning used for adult apical four chamber views.
func DefaultConfig() Config {
	return Config{
		CutoffHz:    3.0,
		FilterOrder: 3,
	}
}

// Span is a half-open range [Start, End) of frame indices.
type Span struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end"   yaml:"end"`
}

// Len returns the number of frames in the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// String implements fmt.Stringer.
func (s Span) String() string {
	return fmt.Sprintf("[%d, %d)", s.Start, s.End)
}

// Analysis exposes the intermediate signals of a detection for inspection and logging.
type Analysis struct {
	// Filtered is the low-passed, mean-centred area signal.
	Filtered []float64
	// Crossings are the zero crossing indices of Filtered.
	Crossings []int
	// HalfCycles are the distances between consecutive crossings.
	HalfCycles []int
	// MinPeakDistance is the largest half cycle.
	MinPeakDistance int
	// MinStartFrame is the mean half cycle; earlier peaks are not trusted as a cycle start.
	MinStartFrame float64
	// Peaks are the accepted end-diastolic peaks in the raw areas.
	Peaks []int
	// Span is the selected cycle.
	Span Span
}

// Detect returns the frame span of a single cardiac cycle.
//
// Arguments:
// - areas: Left ventricle area per frame.
// - fps: Frame rate of the sequence.
// - cfg: Detector tuning.
//
// Returns:
// - The cycle span, starting at an end-diastolic peak.
// - ErrInsufficientCycleData (wrapped) if no span can be derived.
//
// @example
// span, err := cycle.Detect(areas, 30, cycle.DefaultConfig())
func Detect(areas []float64, fps float64, cfg Config) (Span, error) {
	a, err := Analyze(areas, fps, cfg)
	if err != nil {
		return Span{}, err
	}
	return a.Span, nil
}

// Analyze runs the detector and returns every intermediate signal.
//
// The area signal is low-passed and centred, its zero crossings give half cycle lengths, and
// peaks of the raw areas at least the longest half cycle apart and above the mean area are
// candidate end-diastoles. The first candidate at or after the mean half cycle starts the span
// and the next candidate (or the last frame) ends it.
func Analyze(areas []float64, fps float64, cfg Config) (*Analysis, error) {
	if fps <= 0 {
		return nil, errors.Wrapf(ErrInsufficientCycleData, "frame rate must be positive, got %g", fps)
	}

	b, a, err := Butterworth(cfg.FilterOrder, cfg.CutoffHz, fps)
	if err != nil {
		return nil, errors.Wrapf(ErrInsufficientCycleData, "filter design: %v", err)
	}

	filtered, err := FiltFilt(b, a, areas)
	if err != nil {
		return nil, errors.Wrapf(ErrInsufficientCycleData, "filtering: %v", err)
	}
	floats.AddConst(-stat.Mean(filtered, nil), filtered)

	crossings := ZeroCrossings(filtered)
	if len(crossings) < 2 {
		return nil, errors.Wrapf(ErrInsufficientCycleData, "found %d zero crossings, need at least 2", len(crossings))
	}

	halfCycles := make([]int, len(crossings)-1)
	halfSum := 0
	maxHalf := 0
	for i := range halfCycles {
		halfCycles[i] = crossings[i+1] - crossings[i]
		halfSum += halfCycles[i]
		maxHalf = max(maxHalf, halfCycles[i])
	}
	meanHalf := float64(halfSum) / float64(len(halfCycles))

	peaks := FindPeaks(areas, stat.Mean(areas, nil), maxHalf)

	analysis := &Analysis{
		Filtered:        filtered,
		Crossings:       crossings,
		HalfCycles:      halfCycles,
		MinPeakDistance: maxHalf,
		MinStartFrame:   meanHalf,
		Peaks:           peaks,
	}

	start := -1
	for i, p := range peaks {
		if float64(p) >= meanHalf {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, errors.Wrapf(ErrInsufficientCycleData,
			"no end-diastolic peak at or after frame %.2f among %d peaks", meanHalf, len(peaks))
	}

	span := Span{Start: peaks[start], End: len(areas) - 1}
	if start+1 < len(peaks) {
		span.End = peaks[start+1]
	}
	if span.End <= span.Start {
		return nil, errors.Wrapf(ErrInsufficientCycleData, "cycle starting at frame %d has no following frames", span.Start)
	}

	analysis.Span = span
	return analysis, nil
}

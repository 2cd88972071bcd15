// Package strain measures how the length of a tracked border changes over a cardiac cycle.
package strain

import (
	"image"
	"math"

	"github.com/nvr-ai/go-strain/polyline"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
)

// ErrComputationFailed is returned when a border length cannot be measured.
var ErrComputationFailed = errors.New("strain computation failed")

// Config configures length measurement.
type Config struct {
	// SplineSamples is the number of evenly spaced parameters at which the fitted curve is
	// evaluated before measuring its length.
	SplineSamples int `json:"splineSamples" yaml:"splineSamples"`
}

// DefaultConfig returns the measurement settings used for LVGLS.
func DefaultConfig() Config {
	return Config{SplineSamples: 10}
}

// Result holds the strain curve of one cycle.
type Result struct {
	// Lengths holds the border length per frame.
	Lengths []float64 `json:"lengths"`
	// Strain holds (length[f] - length[0]) / length[0] per frame.
	Strain []float64 `json:"strain"`
	// LVGLS is the minimum strain as a percentage.
	LVGLS float64 `json:"lvgls"`
}

// Length measures a border by fitting a smooth curve through its points.
//
// The points are parameterised by cumulative chord length normalized to [0, 1]; X(u) and Y(u) are
// fitted with not-a-knot cubic splines, evaluated at samples evenly spaced parameters, truncated
// to whole pixels and measured with OpenCV as an open polyline.
//
// Arguments:
// - pts: At least 4 points, no two consecutive points coincident.
// - samples: Number of evaluation parameters (at least 2).
//
// Returns:
// - The polyline length in pixels.
// - ErrComputationFailed (wrapped) when the curve cannot be fitted.
func Length(pts polyline.Points, samples int) (float64, error) {
	if len(pts) < 4 {
		return 0, errors.Wrapf(ErrComputationFailed, "need at least 4 points, got %d", len(pts))
	}
	if samples < 2 {
		return 0, errors.Wrapf(ErrComputationFailed, "need at least 2 samples, got %d", samples)
	}

	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	u := make([]float64, len(pts))
	for i, p := range pts {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return 0, errors.Wrapf(ErrComputationFailed, "point %d is not finite", i)
		}
		xs[i], ys[i] = p.X, p.Y
		if i > 0 {
			d := math.Hypot(p.X-pts[i-1].X, p.Y-pts[i-1].Y)
			if d == 0 {
				return 0, errors.Wrapf(ErrComputationFailed, "points %d and %d coincide", i-1, i)
			}
			u[i] = u[i-1] + d
		}
	}
	floats.Scale(1/u[len(u)-1], u)
	u[len(u)-1] = 1

	var fx, fy interp.NotAKnotCubic
	if err := fx.Fit(u, xs); err != nil {
		return 0, errors.Wrapf(ErrComputationFailed, "fit x: %v", err)
	}
	if err := fy.Fit(u, ys); err != nil {
		return 0, errors.Wrapf(ErrComputationFailed, "fit y: %v", err)
	}

	curve := make([]image.Point, samples)
	for i := range curve {
		t := float64(i) / float64(samples-1)
		curve[i] = image.Pt(int(math.Trunc(fx.Predict(t))), int(math.Trunc(fy.Predict(t))))
	}
	return arcLength(curve), nil
}

// arcLength measures an open pixel polyline with OpenCV.
func arcLength(curve []image.Point) float64 {
	pv := gocv.NewPointVectorFromPoints(curve)
	defer pv.Close()
	return gocv.ArcLength(pv, false)
}

// Measure turns tracked snapshots into a strain curve relative to the first snapshot.
//
// Arguments:
// - snapshots: Tracked points per frame; snapshot 0 is the reference (end-diastole).
// - cfg: Measurement settings.
//
// Returns:
// - The per-frame lengths, the strain curve and LVGLS = min(strain) * 100.
// - ErrComputationFailed (wrapped, naming the frame) if any length cannot be measured or the
//   reference length is zero.
//
// @example
// res, err := strain.Measure(snapshots, strain.DefaultConfig())
// fmt.Printf("LVGLS %.1f%%\n", res.LVGLS)
func Measure(snapshots []polyline.Points, cfg Config) (Result, error) {
	if len(snapshots) == 0 {
		return Result{}, errors.Wrap(ErrComputationFailed, "no snapshots")
	}

	lengths := make([]float64, len(snapshots))
	for f, pts := range snapshots {
		l, err := Length(pts, cfg.SplineSamples)
		if err != nil {
			return Result{}, errors.Wrapf(err, "frame %d", f)
		}
		lengths[f] = l
	}
	if lengths[0] == 0 {
		return Result{}, errors.Wrap(ErrComputationFailed, "reference border has zero length")
	}

	curve := make([]float64, len(lengths))
	for f, l := range lengths {
		curve[f] = (l - lengths[0]) / lengths[0]
	}

	return Result{
		Lengths: lengths,
		Strain:  curve,
		LVGLS:   floats.Min(curve) * 100,
	}, nil
}

// Package motion computes dense optical flow between consecutive frames and advects tracked
// points through it.
//
// Pipeline Overview:
//
//	frames[0..n) ──► ComputeFields (Farneback, worker pool) ──► fields[0..n-1)
//	initial points ─────────────────────► Track ──► snapshots[0..n)
//
// Fields are computed concurrently but consumed strictly in frame order; each snapshot depends on
// the previous one.
package motion

import (
	"image"

	"github.com/nvr-ai/go-strain/images"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Field is a per-pixel displacement from one frame to the next. DX is the column displacement
// and DY the row displacement, both stored row-major.
type Field struct {
	Width  int
	Height int
	DX     []float32
	DY     []float32
}

// NewField allocates a zero displacement field.
func NewField(width, height int) Field {
	return Field{
		Width:  width,
		Height: height,
		DX:     make([]float32, width*height),
		DY:     make([]float32, width*height),
	}
}

// At returns the displacement at column x, row y. Coordinates are clamped to the field.
func (f Field) At(x, y int) (dx, dy float32) {
	if f.Width == 0 || f.Height == 0 {
		return 0, 0
	}
	x = images.ClampInt(x, 0, f.Width-1)
	y = images.ClampInt(y, 0, f.Height-1)
	i := y*f.Width + x
	return f.DX[i], f.DY[i]
}

// Params holds the Farneback dense flow parameters.
type Params struct {
	PyrScale   float64 `json:"pyrScale" yaml:"pyrScale"`
	Levels     int     `json:"levels" yaml:"levels"`
	WinSize    int     `json:"winSize" yaml:"winSize"`
	Iterations int     `json:"iterations" yaml:"iterations"`
	PolyN      int     `json:"polyN" yaml:"polyN"`
	PolySigma  float64 `json:"polySigma" yaml:"polySigma"`
	Flags      int     `json:"flags" yaml:"flags"`
}

// Config configures flow computation.
type Config struct {
	Params Params `json:"params" yaml:"params"`
	// Workers bounds the number of fields computed at once. Zero or less uses one worker per CPU.
	Workers int `json:"workers" yaml:"workers"`
}

// DefaultConfig returns the flow settings used for 568x568 echo frames.
func DefaultConfig() Config {
	return Config{
		Params: Params{
			PyrScale:   0.5,
			Levels:     3,
			WinSize:    41,
			Iterations: 5,
			PolyN:      5,
			PolySigma:  1.1,
			Flags:      0,
		},
	}
}

// Farneback computes the dense flow from prev to next.
//
// Arguments:
// - prev: The earlier frame.
// - next: The later frame, same size as prev.
// - params: Farneback parameters.
//
// Returns:
// - The displacement field with the frames' dimensions.
// - An error if the frames differ in size or cannot be handed to OpenCV.
func Farneback(prev, next *image.Gray, params Params) (Field, error) {
	if prev.Bounds().Size() != next.Bounds().Size() {
		return Field{}, errors.Errorf("frame sizes differ: %v vs %v", prev.Bounds().Size(), next.Bounds().Size())
	}

	a, err := images.GrayToMat(prev)
	if err != nil {
		return Field{}, errors.Wrap(err, "failed to convert previous frame")
	}
	defer a.Close()

	b, err := images.GrayToMat(next)
	if err != nil {
		return Field{}, errors.Wrap(err, "failed to convert next frame")
	}
	defer b.Close()

	flow := gocv.NewMat()
	defer flow.Close()

	gocv.CalcOpticalFlowFarneback(a, b, &flow,
		params.PyrScale, params.Levels, params.WinSize, params.Iterations, params.PolyN, params.PolySigma, params.Flags)

	if flow.Empty() || flow.Type() != gocv.MatTypeCV32FC2 {
		return Field{}, errors.New("optical flow produced no field")
	}

	data, err := flow.DataPtrFloat32()
	if err != nil {
		return Field{}, errors.Wrap(err, "failed to read flow field")
	}

	f := NewField(flow.Cols(), flow.Rows())
	for i := range f.DX {
		f.DX[i] = data[2*i]
		f.DY[i] = data[2*i+1]
	}
	return f, nil
}

package pipeline

import (
	"image"
	"math"

	"github.com/nvr-ai/go-strain/images"
	"github.com/nvr-ai/go-strain/polyline"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Geometry records how tracking coordinates relate to the input frames.
type Geometry struct {
	// Square is the centred square region of the input frame.
	Square image.Rectangle
	// Orientation of the input frame relative to Square.
	Orientation images.Orientation
	// Crop is the number of pixels removed from every edge of Square.
	Crop int
	// Side of the cropped square before resizing.
	Side int
	// Size of the tracking frames.
	Size int
	// Scale maps tracking pixels back to cropped pixels (Side / Size).
	Scale float64
}

// NewGeometry derives the frame geometry for inputs of the given size.
//
// Arguments:
// - size: Width and height of the input frames.
// - cfg: Crop fraction and tracking size.
//
// Returns:
// - The geometry.
// - ErrInvalidInput (wrapped) if nothing remains after cropping.
func NewGeometry(size image.Point, cfg PreprocessConfig) (Geometry, error) {
	if cfg.TrackingSize <= 0 {
		return Geometry{}, errors.Wrapf(ErrInvalidInput, "tracking size must be positive, got %d", cfg.TrackingSize)
	}
	if cfg.CropFraction < 0 || cfg.CropFraction >= 0.5 {
		return Geometry{}, errors.Wrapf(ErrInvalidInput, "crop fraction must be in [0, 0.5), got %g", cfg.CropFraction)
	}

	square, orientation := images.SquareRect(size.X, size.Y)
	crop := images.BorderCrop(square.Dx(), cfg.CropFraction)
	side := square.Dx() - 2*crop
	if side <= 0 {
		return Geometry{}, errors.Wrapf(ErrInvalidInput, "frame %v leaves no pixels after cropping", size)
	}

	return Geometry{
		Square:      square,
		Orientation: orientation,
		Crop:        crop,
		Side:        side,
		Size:        cfg.TrackingSize,
		Scale:       float64(side) / float64(cfg.TrackingSize),
	}, nil
}

// Prepare converts an input frame into a tracking frame: luma, centred square, border crop and a
// linear resize to the tracking size when the cropped side differs.
func (g Geometry) Prepare(frame image.Image) (*image.Gray, error) {
	gray := images.CropGray(images.Luma(frame), g.Square)
	cropped := images.CropBorder(gray, g.Crop)
	if g.Side == g.Size {
		return cropped, nil
	}

	resized, err := images.ResizeGray(cropped, image.Pt(g.Size, g.Size), gocv.InterpolationLinear)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resize frame")
	}
	return resized, nil
}

// ToOriginal maps a tracking point to input frame coordinates: scaled, shifted by the crop and
// truncated, then offset by the square origin.
func (g Geometry) ToOriginal(p polyline.Point) image.Point {
	x := int(math.Trunc(p.X*g.Scale + float64(g.Crop)))
	y := int(math.Trunc(p.Y*g.Scale + float64(g.Crop)))
	return image.Pt(x, y).Add(g.Square.Min)
}

// ToOriginalPath maps a whole snapshot with ToOriginal.
func (g Geometry) ToOriginalPath(pts polyline.Points) polyline.Path {
	out := make(polyline.Path, len(pts))
	for i, p := range pts {
		out[i] = g.ToOriginal(p)
	}
	return out
}

// parallelFrames runs fn for every index in [0, n) across the available CPUs and returns the
// error of the lowest failing index.
func parallelFrames(n int, fn func(i int) error) error {
	errs := make([]error, n)
	images.Parallel(n, func(start, end int) {
		for i := start; i < end; i++ {
			errs[i] = fn(i)
		}
	})
	for i, err := range errs {
		if err != nil {
			return errors.Wrapf(err, "frame %d", i)
		}
	}
	return nil
}

package images

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Marker describes how tracked points are drawn on a frame.
type Marker struct {
	// Radius of each filled circle in pixels.
	Radius int `json:"radius" yaml:"radius"`
	// Color of the circles.
	Color color.RGBA `json:"color" yaml:"color"`
}

// DefaultMarker returns the marker used for border point overlays.
func DefaultMarker() Marker {
	return Marker{
		Radius: 3,
		Color:  color.RGBA{R: 225, G: 225, B: 0, A: 255},
	}
}

// DrawPoints renders a filled circle per point onto a copy of the frame.
//
// Arguments:
// - frame: The frame to annotate; it is not modified.
// - pts: Circle centres in frame coordinates.
// - marker: Circle radius and colour.
//
// Returns:
// - An RGBA copy of the frame with the markers drawn.
// - error if the frame cannot be converted.
//
// @example
// annotated, err := DrawPoints(frame, points, DefaultMarker())
func DrawPoints(frame image.Image, pts []image.Point, marker Marker) (*image.RGBA, error) {
	mat, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert frame to mat")
	}
	defer mat.Close()

	b := frame.Bounds()
	for _, p := range pts {
		gocv.Circle(&mat, p.Sub(b.Min), marker.Radius, marker.Color, -1)
	}

	out, err := mat.ToImage()
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert annotated mat to image")
	}

	if rgba, ok := out.(*image.RGBA); ok {
		return rgba, nil
	}
	rgba := image.NewRGBA(out.Bounds())
	draw.Draw(rgba, rgba.Bounds(), out, out.Bounds().Min, draw.Src)
	return rgba, nil
}

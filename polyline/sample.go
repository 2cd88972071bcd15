package polyline

import (
	"image"
	"math"

	"github.com/pkg/errors"
)

// Point is a tracked location in continuous pixel coordinates (X = column, Y = row).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Image rounds the point to the nearest pixel.
func (p Point) Image() image.Point {
	return image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
}

// Points is one snapshot of every tracked point. Snapshots are treated as immutable.
type Points []Point

// Clone returns an independent copy of the snapshot.
func (ps Points) Clone() Points {
	out := make(Points, len(ps))
	copy(out, ps)
	return out
}

// Sample picks n equidistant pixels from a path and drops the outermost two.
//
// With L = len(path), step = L / n and offset = (L % n) / 2, exactly n indices
// offset + i*step are taken (i = 0..n-1); the first and last sample are then discarded because
// the path ends are the least reliable to track.
//
// Arguments:
// - path: The ordered border.
// - n: Number of samples before trimming (at least 3).
//
// Returns:
// - n-2 points in path order.
// - ErrPathTooShort if the path has fewer than n pixels.
func Sample(path Path, n int) (Points, error) {
	if n < 3 {
		return nil, errors.Errorf("sample count must be at least 3, got %d", n)
	}
	if len(path) < n {
		return nil, errors.Wrapf(ErrPathTooShort, "%d pixels for %d samples", len(path), n)
	}

	idx := Indices(len(path), n)
	pts := make(Points, len(idx))
	for i, j := range idx {
		pts[i] = Point{X: float64(path[j].X), Y: float64(path[j].Y)}
	}
	return pts, nil
}

// Indices returns the path indices Sample reads for a path of length l, in order.
func Indices(l, n int) []int {
	if n < 3 || l < n {
		return nil
	}
	step := l / n
	offset := (l % n) / 2
	idx := make([]int, 0, n-2)
	for i := 1; i < n-1; i++ {
		idx = append(idx, offset+i*step)
	}
	return idx
}

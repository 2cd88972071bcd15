// Package polyline orders a one pixel wide border into a walk from one endpoint to the other and
// samples tracking points along it.
package polyline

import (
	"image"

	"github.com/nvr-ai/go-strain/images"
	"github.com/pkg/errors"
)

var (
	// ErrNoEndpoints is returned when a border does not have the two endpoints an open curve needs.
	ErrNoEndpoints = errors.New("border has fewer than two endpoints")
	// ErrPathTooShort is returned when a path holds fewer pixels than the points requested from it.
	ErrPathTooShort = errors.New("path too short to sample")
)

// Path is an ordered sequence of pixel coordinates (X = column, Y = row) without repeats.
type Path []image.Point

// Endpoints returns the pixels whose 3x3 neighbourhood, including the pixel itself, sums to 2, in
// row-major order.
func Endpoints(skel images.Mask) []image.Point {
	var ends []image.Point
	for _, p := range skel.Points() {
		if skel.Neighbors(p.X, p.Y)+1 == 2 {
			ends = append(ends, p)
		}
	}
	return ends
}

// Order walks a border from one endpoint to the other.
//
// The walk starts at the second endpoint in row-major order and targets the first. At every step
// it moves to the first unvisited 8-neighbour in compass order (NW, N, NE, E, SE, S, SW, W) and
// stops at the target or when no unvisited neighbour remains.
//
// Arguments:
// - skel: A border mask with at least two endpoints; it is not modified.
//
// Returns:
// - The ordered pixel walk.
// - ErrNoEndpoints if the border has fewer than two endpoints.
//
// @example
// path, err := polyline.Order(border)
func Order(skel images.Mask) (Path, error) {
	ends := Endpoints(skel)
	if len(ends) < 2 {
		return nil, errors.Wrapf(ErrNoEndpoints, "found %d", len(ends))
	}

	start, target := ends[1], ends[0]
	visited := make([]bool, len(skel.Pix))
	visited[start.Y*skel.Width+start.X] = true

	path := Path{start}
	for cur := start; cur != target; {
		next, ok := nextStep(skel, visited, cur)
		if !ok {
			break
		}
		visited[next.Y*skel.Width+next.X] = true
		path = append(path, next)
		cur = next
	}
	return path, nil
}

func nextStep(skel images.Mask, visited []bool, cur image.Point) (image.Point, bool) {
	for _, d := range images.Neighbors8 {
		q := cur.Add(d)
		if skel.At(q.X, q.Y) && !visited[q.Y*skel.Width+q.X] {
			return q, true
		}
	}
	return image.Point{}, false
}

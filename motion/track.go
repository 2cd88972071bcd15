package motion

import (
	"math"

	"github.com/nvr-ai/go-strain/polyline"
)

// Track advects points through successive flow fields.
//
// Each point samples the field at its rounded position (half to even, clamped to the field) and
// moves by (dx, dy): dx is added to X (column), dy to Y (row). Points are never re-anchored to the
// border, so drift accumulates.
//
// Arguments:
// - initial: The points on the reference frame.
// - fields: fields[i] maps frame i onto frame i+1.
//
// Returns:
// - len(fields)+1 snapshots; snapshot 0 is a copy of initial. No snapshot aliases another.
func Track(initial polyline.Points, fields []Field) []polyline.Points {
	snapshots := make([]polyline.Points, 0, len(fields)+1)
	cur := initial.Clone()
	snapshots = append(snapshots, cur)
	for _, f := range fields {
		cur = Step(cur, f)
		snapshots = append(snapshots, cur)
	}
	return snapshots
}

// Step moves every point by the displacement sampled from f and returns a new snapshot.
func Step(pts polyline.Points, f Field) polyline.Points {
	next := make(polyline.Points, len(pts))
	for i, p := range pts {
		dx, dy := f.At(int(math.RoundToEven(p.X)), int(math.RoundToEven(p.Y)))
		next[i] = polyline.Point{X: p.X + float64(dx), Y: p.Y + float64(dy)}
	}
	return next
}

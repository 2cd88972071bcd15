package border

import (
	"image"

	"github.com/nvr-ai/go-strain/images"
	"github.com/pkg/errors"
)

// Components returns the 8-connected foreground components of a mask in row-major order of their
// first pixel.
func Components(m images.Mask) [][]image.Point {
	seen := make([]bool, len(m.Pix))
	var comps [][]image.Point
	for i, v := range m.Pix {
		if !v || seen[i] {
			continue
		}
		seen[i] = true
		queue := []image.Point{{X: i % m.Width, Y: i / m.Width}}
		for head := 0; head < len(queue); head++ {
			p := queue[head]
			for _, d := range images.Neighbors8 {
				q := p.Add(d)
				if !m.At(q.X, q.Y) || seen[q.Y*m.Width+q.X] {
					continue
				}
				seen[q.Y*m.Width+q.X] = true
				queue = append(queue, q)
			}
		}
		comps = append(comps, queue)
	}
	return comps
}

// Endpoints returns the pixels with exactly one foreground neighbour, in row-major order.
func Endpoints(m images.Mask) []image.Point {
	var ends []image.Point
	for _, p := range m.Points() {
		if m.Neighbors(p.X, p.Y) == 1 {
			ends = append(ends, p)
		}
	}
	return ends
}

// PruneBranches removes skeleton components smaller than cfg.SkeletonThreshold pixels and then
// repeatedly cuts side branches shorter than cfg.BranchThreshold pixels. A branch runs from an
// endpoint up to, but not including, the first junction. Closed loops carry no endpoints and are
// kept whole.
//
// Arguments:
// - skel: A thinned mask; it is not modified.
// - cfg: Pruning thresholds.
//
// Returns:
// - The pruned skeleton.
func PruneBranches(skel images.Mask, cfg Config) images.Mask {
	out := images.NewMask(skel.Width, skel.Height)
	for _, comp := range Components(skel) {
		if len(comp) < cfg.SkeletonThreshold {
			continue
		}
		for _, p := range comp {
			out.Set(p.X, p.Y, true)
		}
	}

	for {
		var cut []image.Point
		for _, end := range Endpoints(out) {
			branch, reachedJunction := traceBranch(out, end)
			if reachedJunction && len(branch) < cfg.BranchThreshold {
				cut = append(cut, branch...)
			}
		}
		if len(cut) == 0 {
			break
		}
		for _, p := range cut {
			out.Set(p.X, p.Y, false)
		}
		removeRedundant(out)
	}
	return out
}

// traceBranch walks from an endpoint along pixels with exactly two neighbours. It returns the
// pixels visited before the first junction (a pixel with three or more neighbours) and whether a
// junction was reached.
func traceBranch(m images.Mask, end image.Point) ([]image.Point, bool) {
	branch := []image.Point{end}
	prev, cur := end, end
	for {
		var next []image.Point
		for _, d := range images.Neighbors8 {
			q := cur.Add(d)
			if q != prev && m.At(q.X, q.Y) {
				next = append(next, q)
			}
		}
		if len(next) != 1 {
			// Dead end (isolated segment) or a fork right next to cur.
			return branch, len(next) > 1
		}

		q := next[0]
		if m.Neighbors(q.X, q.Y) >= 3 {
			return branch, true
		}
		if m.Neighbors(q.X, q.Y) == 1 {
			// Reached the opposite endpoint of a plain segment.
			return append(branch, q), false
		}
		branch = append(branch, q)
		prev, cur = cur, q
	}
}

// LongestPath reduces a connected skeleton to the longest shortest-path between two of its
// endpoints, found by two breadth-first sweeps.
//
// Arguments:
// - skel: A connected thinned mask.
//
// Returns:
// - A mask holding only the path pixels.
// - ErrExtractionFailed (wrapped) if the skeleton has no endpoints (a closed loop).
func LongestPath(skel images.Mask) (images.Mask, error) {
	ends := Endpoints(skel)
	if len(ends) == 0 {
		return images.Mask{}, errors.Wrap(ErrExtractionFailed, "border is a closed loop without endpoints")
	}

	far, _ := farthest(skel, ends[0])
	other, parent := farthest(skel, far)

	out := images.NewMask(skel.Width, skel.Height)
	for p := other; ; p = parent[p] {
		out.Set(p.X, p.Y, true)
		if p == far {
			break
		}
	}
	return out, nil
}

// farthest runs a breadth-first search from start and returns the last endpoint reached (the
// most distant one, ties resolved by discovery order) together with the search tree.
func farthest(m images.Mask, start image.Point) (image.Point, map[image.Point]image.Point) {
	parent := map[image.Point]image.Point{start: start}
	queue := []image.Point{start}
	best := start
	for head := 0; head < len(queue); head++ {
		p := queue[head]
		if m.Neighbors(p.X, p.Y) == 1 {
			best = p
		}
		for _, d := range images.Neighbors8 {
			q := p.Add(d)
			if !m.At(q.X, q.Y) {
				continue
			}
			if _, ok := parent[q]; ok {
				continue
			}
			parent[q] = p
			queue = append(queue, q)
		}
	}
	return best, parent
}

// Reduce turns a thinned border into a single open curve: small components and short branches
// are pruned, the largest remaining component is kept and reduced to its longest endpoint to
// endpoint path.
//
// Arguments:
// - skel: A thinned mask.
// - cfg: Pruning thresholds.
//
// Returns:
// - A mask with one 8-connected curve and exactly two endpoints.
// - ErrExtractionFailed (wrapped) if no such curve exists.
func Reduce(skel images.Mask, cfg Config) (images.Mask, error) {
	pruned := PruneBranches(skel, cfg)

	comps := Components(pruned)
	if len(comps) == 0 {
		return images.Mask{}, errors.Wrap(ErrExtractionFailed, "no skeleton survived pruning")
	}

	largest := comps[0]
	for _, c := range comps[1:] {
		if len(c) > len(largest) {
			largest = c
		}
	}

	single := images.NewMask(skel.Width, skel.Height)
	for _, p := range largest {
		single.Set(p.X, p.Y, true)
	}

	path, err := LongestPath(single)
	if err != nil {
		return images.Mask{}, err
	}

	if ends := Endpoints(path); len(ends) != 2 {
		return images.Mask{}, errors.Wrapf(ErrExtractionFailed, "border has %d endpoints, expected 2", len(ends))
	}
	return path, nil
}

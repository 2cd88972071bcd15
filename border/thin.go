package border

import "github.com/nvr-ai/go-strain/images"

// Thin reduces foreground regions to one pixel wide 8-connected curves.
//
// Zhang-Suen sub-iterations run until stable, with the Lu-Wang neighbour bound (3..6) so that two
// pixel thick diagonals are not eaten from their tips. Redundant staircase corners (pixels whose
// foreground neighbours stay connected without them) are then removed so every interior curve
// pixel has exactly two neighbours.
//
// Arguments:
// - m: The mask to thin; it is not modified.
//
// Returns:
// - The thinned mask.
func Thin(m images.Mask) images.Mask {
	out := m.Clone()
	for {
		changed := zhangSuenPass(out, true)
		changed = zhangSuenPass(out, false) || changed
		if !changed {
			break
		}
	}
	removeRedundant(out)
	return out
}

// ring returns the 8 neighbours of (x, y) in clockwise order starting at north:
// N, NE, E, SE, S, SW, W, NW.
func ring(m images.Mask, x, y int) [8]bool {
	return [8]bool{
		m.At(x, y-1),
		m.At(x+1, y-1),
		m.At(x+1, y),
		m.At(x+1, y+1),
		m.At(x, y+1),
		m.At(x-1, y+1),
		m.At(x-1, y),
		m.At(x-1, y-1),
	}
}

func zhangSuenPass(m images.Mask, first bool) bool {
	var remove []int
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if !m.Pix[y*m.Width+x] {
				continue
			}
			p := ring(m, x, y)

			count := 0
			transitions := 0
			for i := range p {
				if p[i] {
					count++
				}
				if !p[i] && p[(i+1)%8] {
					transitions++
				}
			}
			if count < 3 || count > 6 || transitions != 1 {
				continue
			}

			n, e, s, w := p[0], p[2], p[4], p[6]
			if first {
				if (n && e && s) || (e && s && w) {
					continue
				}
			} else {
				if (n && e && w) || (n && s && w) {
					continue
				}
			}
			remove = append(remove, y*m.Width+x)
		}
	}

	for _, i := range remove {
		m.Pix[i] = false
	}
	return len(remove) > 0
}

// removeRedundant deletes, in raster order until stable, pixels that have at least two
// neighbours forming a single 8-connected group and at least one background 4-neighbour. A pixel
// whose only two neighbours touch edge to edge is a curve tip and is kept.
func removeRedundant(m images.Mask) {
	for changed := true; changed; {
		changed = false
		for y := 0; y < m.Height; y++ {
			for x := 0; x < m.Width; x++ {
				if !m.Pix[y*m.Width+x] || !isRedundant(m, x, y) {
					continue
				}
				m.Pix[y*m.Width+x] = false
				changed = true
			}
		}
	}
}

func isRedundant(m images.Mask, x, y int) bool {
	if m.At(x, y-1) && m.At(x+1, y) && m.At(x, y+1) && m.At(x-1, y) {
		return false
	}

	var set []int
	for i, d := range images.Neighbors8 {
		if m.At(x+d.X, y+d.Y) {
			set = append(set, i)
		}
	}
	if len(set) < 2 {
		return false
	}
	if len(set) == 2 {
		a, b := images.Neighbors8[set[0]], images.Neighbors8[set[1]]
		if abs(a.X-b.X)+abs(a.Y-b.Y) == 1 {
			return false
		}
	}
	return ringComponents(set) == 1
}

// ringComponents counts the 8-connected groups formed by the given neighbour positions (indices
// into images.Neighbors8), ignoring the centre pixel.
func ringComponents(set []int) int {
	seen := make([]bool, len(set))
	groups := 0
	for i := range set {
		if seen[i] {
			continue
		}
		groups++
		stack := []int{i}
		seen[i] = true
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			a := images.Neighbors8[set[cur]]
			for j := range set {
				if seen[j] {
					continue
				}
				b := images.Neighbors8[set[j]]
				if abs(a.X-b.X) <= 1 && abs(a.Y-b.Y) <= 1 {
					seen[j] = true
					stack = append(stack, j)
				}
			}
		}
	}
	return groups
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

package images

import "image"

// Neighbors8 lists the 8-connected neighbour offsets as (dx, dy) in compass order, starting at
// north-west and moving clockwise: NW, N, NE, E, SE, S, SW, W.
var Neighbors8 = [8]image.Point{
	{X: -1, Y: -1},
	{X: 0, Y: -1},
	{X: 1, Y: -1},
	{X: 1, Y: 0},
	{X: 1, Y: 1},
	{X: 0, Y: 1},
	{X: -1, Y: 1},
	{X: -1, Y: 0},
}

// Mask is a binary grid stored row-major. X is the column and Y is the row.
//
// The zero value is an empty 0x0 mask. Copies of a Mask share the same backing slice; use Clone
// to obtain an independent copy.
type Mask struct {
	// Width is the number of columns.
	Width int
	// Height is the number of rows.
	Height int
	// Pix holds Width*Height cells, row-major.
	Pix []bool
}

// NewMask allocates an empty mask.
//
// Arguments:
// - width: Number of columns.
// - height: Number of rows.
//
// Returns:
// - A mask with every cell unset.
func NewMask(width, height int) Mask {
	return Mask{
		Width:  width,
		Height: height,
		Pix:    make([]bool, width*height),
	}
}

// MaskFromGray thresholds a gray image: every non-zero pixel becomes foreground.
//
// Arguments:
// - img: The gray image to threshold.
//
// Returns:
// - A mask with the same dimensions as the image.
func MaskFromGray(img *image.Gray) Mask {
	b := img.Bounds()
	m := NewMask(b.Dx(), b.Dy())
	for y := 0; y < m.Height; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+m.Width]
		for x, v := range row {
			m.Pix[y*m.Width+x] = v > 0
		}
	}
	return m
}

// Bounds returns the rectangle covered by the mask.
func (m Mask) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}

// In reports whether (x, y) lies inside the mask.
func (m Mask) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < m.Width && y < m.Height
}

// At reports whether (x, y) is foreground. Cells outside the mask are background.
func (m Mask) At(x, y int) bool {
	if !m.In(x, y) {
		return false
	}
	return m.Pix[y*m.Width+x]
}

// Set assigns (x, y). Cells outside the mask are ignored.
func (m Mask) Set(x, y int, v bool) {
	if !m.In(x, y) {
		return
	}
	m.Pix[y*m.Width+x] = v
}

// Count returns the number of foreground cells.
func (m Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the mask.
func (m Mask) Clone() Mask {
	pix := make([]bool, len(m.Pix))
	copy(pix, m.Pix)
	return Mask{Width: m.Width, Height: m.Height, Pix: pix}
}

// Neighbors returns the number of foreground 8-neighbours of (x, y).
func (m Mask) Neighbors(x, y int) int {
	n := 0
	for _, d := range Neighbors8 {
		if m.At(x+d.X, y+d.Y) {
			n++
		}
	}
	return n
}

// Points returns the foreground cells in row-major order.
func (m Mask) Points() []image.Point {
	var pts []image.Point
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.Pix[y*m.Width+x] {
				pts = append(pts, image.Pt(x, y))
			}
		}
	}
	return pts
}

// ToGray renders the mask as a gray image with the given foreground value.
//
// Arguments:
// - on: The intensity written for foreground cells (1 for a 0/1 mask, 255 for display).
//
// Returns:
// - A gray image of the same dimensions.
func (m Mask) ToGray(on uint8) *image.Gray {
	img := image.NewGray(m.Bounds())
	for i, v := range m.Pix {
		if v {
			img.Pix[i] = on
		}
	}
	return img
}

// Equal reports whether both masks have the same geometry and cells.
func (m Mask) Equal(o Mask) bool {
	if m.Width != o.Width || m.Height != o.Height {
		return false
	}
	for i := range m.Pix {
		if m.Pix[i] != o.Pix[i] {
			return false
		}
	}
	return true
}

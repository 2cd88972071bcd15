package images

import (
	"image"
	"math"
)

// Orientation describes how a frame relates to its centered square crop.
type Orientation string

const (
	// OrientationSquare means the frame is already square.
	OrientationSquare Orientation = "square"
	// OrientationWide means columns were trimmed from both sides.
	OrientationWide Orientation = "wide"
	// OrientationTall means rows were trimmed from top and bottom.
	OrientationTall Orientation = "tall"
)

// SquareRect returns the centered square region of a width x height frame.
//
// The long axis is trimmed by |width-height|/2 on the leading side so the origin of the
// returned rectangle is the offset to add when mapping square coordinates back to the frame.
//
// Arguments:
// - width: Frame width in pixels.
// - height: Frame height in pixels.
//
// Returns:
// - The square region in frame coordinates.
// - The orientation of the frame.
//
// @example
// rect, kind := SquareRect(800, 600) // rect = (100,0)-(700,600), kind = OrientationWide
func SquareRect(width, height int) (image.Rectangle, Orientation) {
	switch {
	case width > height:
		bias := (width - height) / 2
		return image.Rect(bias, 0, bias+height, height), OrientationWide
	case height > width:
		bias := (height - width) / 2
		return image.Rect(0, bias, width, bias+width), OrientationTall
	default:
		return image.Rect(0, 0, width, height), OrientationSquare
	}
}

// Luma returns the luminance (Y of YCbCr full range) of a frame as a zero-origin gray image.
//
// Gray inputs are copied unchanged. Other colour models use Y = 0.299 R + 0.587 G + 0.114 B,
// rounded to the nearest integer.
//
// Arguments:
// - img: The frame in any colour model.
//
// Returns:
// - A gray image with bounds (0,0)-(w,h).
func Luma(img image.Image) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))

	if g, ok := img.(*image.Gray); ok {
		for y := 0; y < b.Dy(); y++ {
			src := g.Pix[g.PixOffset(b.Min.X, b.Min.Y+y):]
			copy(out.Pix[y*out.Stride:y*out.Stride+b.Dx()], src[:b.Dx()])
		}
		return out
	}

	Parallel(b.Dy(), func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < b.Dx(); x++ {
				r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				lum := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(bl>>8)
				out.Pix[y*out.Stride+x] = uint8(Clamp(math.Round(lum), 0, 255))
			}
		}
	})
	return out
}

// CropGray copies a region of a gray image into a new zero-origin image.
//
// Arguments:
// - img: The source image.
// - rect: The region in the source's zero-origin coordinates.
//
// Returns:
// - The cropped copy, intersected with the source bounds.
func CropGray(img *image.Gray, rect image.Rectangle) *image.Gray {
	b := img.Bounds()
	rect = rect.Add(b.Min).Intersect(b)
	out := image.NewGray(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	for y := 0; y < rect.Dy(); y++ {
		src := img.Pix[img.PixOffset(rect.Min.X, rect.Min.Y+y):]
		copy(out.Pix[y*out.Stride:y*out.Stride+rect.Dx()], src[:rect.Dx()])
	}
	return out
}

// BorderCrop returns the number of pixels trimmed from every side of a square frame of the given
// side length when cropping the given fraction.
func BorderCrop(side int, fraction float64) int {
	return int(float64(side) * fraction)
}

// CropBorder trims the same number of pixels from every side of a frame.
//
// Arguments:
// - img: The (square) frame.
// - amount: Pixels removed from each side.
//
// Returns:
// - The cropped frame. When amount is not positive the frame is copied unchanged.
func CropBorder(img *image.Gray, amount int) *image.Gray {
	b := img.Bounds()
	if amount <= 0 {
		return CropGray(img, image.Rect(0, 0, b.Dx(), b.Dy()))
	}
	return CropGray(img, image.Rect(amount, amount, b.Dx()-amount, b.Dy()-amount))
}

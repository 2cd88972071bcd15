package border

import (
	"github.com/nvr-ai/go-strain/images"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// baseKernel is the hit-or-miss structuring element for a flat run: the centre row must be set,
// the rows above and below must be clear.
var baseKernel = [3][2]int8{
	{-1, -1},
	{1, 1},
	{-1, -1},
}

// EraseBase removes flat horizontal runs from the lower part of a contour.
//
// The contour is probed with an OpenCV hit-or-miss transform using baseKernel (anchored on the
// right column). Hits at or below startRow are cleared, which drops the valve plane and keeps
// the apex.
//
// Arguments:
// - contour: The contour mask; it is not modified.
// - startRow: First row eligible for erasure.
//
// Returns:
// - The contour without its basal runs.
// - error if the OpenCV conversion fails.
func EraseBase(contour images.Mask, startRow int) (images.Mask, error) {
	hits, err := hitMiss(contour)
	if err != nil {
		return images.Mask{}, err
	}

	out := contour.Clone()
	for y := max(startRow, 0); y < contour.Height; y++ {
		for x := 0; x < contour.Width; x++ {
			if hits.At(x, y) {
				out.Set(x, y, false)
			}
		}
	}
	return out, nil
}

func hitMiss(m images.Mask) (images.Mask, error) {
	// Hit-or-miss erodes the complement too, so the foreground must be 255.
	src, err := images.MaskToMat(m, 255)
	if err != nil {
		return images.Mask{}, errors.Wrap(err, "failed to convert contour")
	}
	defer src.Close()

	kernel := gocv.NewMatWithSize(len(baseKernel), len(baseKernel[0]), gocv.MatTypeCV8S)
	defer kernel.Close()
	for row, values := range baseKernel {
		for col, v := range values {
			kernel.SetSCharAt(row, col, v)
		}
	}

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.MorphologyEx(src, &dst, gocv.MorphHitmiss, kernel)

	return images.MatToMask(dst)
}

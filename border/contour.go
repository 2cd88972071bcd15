package border

import (
	"github.com/nvr-ai/go-strain/images"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// OuterContour returns the outline of the largest foreground region as a mask holding only the
// contour pixels.
//
// Arguments:
// - mask: The segmentation mask.
//
// Returns:
// - A mask with the contour pixels set.
// - ErrExtractionFailed (wrapped) if the mask has no foreground region.
func OuterContour(mask images.Mask) (images.Mask, error) {
	src, err := images.MaskToMat(mask, 255)
	if err != nil {
		return images.Mask{}, err
	}
	defer src.Close()

	contours := gocv.FindContours(src, gocv.RetrievalExternal, gocv.ChainApproxNone)
	defer contours.Close()

	if contours.Size() == 0 {
		return images.Mask{}, errors.Wrap(ErrExtractionFailed, "mask has no foreground region")
	}

	best := 0
	bestArea := -1.0
	for i := 0; i < contours.Size(); i++ {
		area := gocv.ContourArea(contours.At(i))
		if area > bestArea {
			best, bestArea = i, area
		}
	}

	out := images.NewMask(mask.Width, mask.Height)
	for _, p := range contours.At(best).ToPoints() {
		out.Set(p.X, p.Y, true)
	}
	return out, nil
}

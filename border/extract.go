package border

import (
	"image"

	"github.com/nvr-ai/go-strain/images"
	"github.com/pkg/errors"
)

// Extract derives the endocardial border from a left ventricle mask.
//
// Order of operations:
//  1. Median smoothing of the mask (cfg.MaskMedianKernel).
//  2. Outer contour of the largest region.
//  3. Removal of flat horizontal runs below cfg.BaseEraseStartRow (the valve plane).
//  4. Thinning to a one pixel wide skeleton.
//  5. Pruning and reduction to a single open curve.
//
// Arguments:
// - mask: The segmentation mask of the reference frame.
// - cfg: Extraction tuning.
//
// Returns:
// - The border as a mask with exactly two endpoints.
// - ErrExtractionFailed (wrapped) when no simple open curve can be derived.
//
// @example
// border, err := border.Extract(masks[span.Start], border.DefaultConfig())
func Extract(mask images.Mask, cfg Config) (images.Mask, error) {
	smooth := mask
	if cfg.MaskMedianKernel > 0 {
		var err error
		smooth, err = images.MedianBlurMask(mask, cfg.MaskMedianKernel)
		if err != nil {
			return images.Mask{}, errors.Wrap(err, "failed to smooth mask")
		}
	}

	contour, err := OuterContour(smooth)
	if err != nil {
		return images.Mask{}, err
	}

	open, err := EraseBase(contour, cfg.BaseEraseStartRow)
	if err != nil {
		return images.Mask{}, errors.Wrap(err, "failed to erase base")
	}
	return Reduce(Thin(open), cfg)
}

// Refine maps a border to another geometry and re-derives a clean one pixel wide curve there.
//
// The border is resized with bilinear weights (any touched pixel is kept), median smoothed with
// cfg.BorderMedianKernel, thinned and reduced again.
//
// Arguments:
// - b: The border at segmentation resolution.
// - size: Target width and height (the tracking geometry).
// - cfg: Extraction tuning.
//
// Returns:
// - The border at the target size.
// - ErrExtractionFailed (wrapped) when the resized border no longer reduces to an open curve.
func Refine(b images.Mask, size image.Point, cfg Config) (images.Mask, error) {
	resized, err := images.ResizeMask(b, size)
	if err != nil {
		return images.Mask{}, errors.Wrap(err, "failed to resize border")
	}

	if cfg.BorderMedianKernel > 0 {
		resized, err = images.MedianBlurMask(resized, cfg.BorderMedianKernel)
		if err != nil {
			return images.Mask{}, errors.Wrap(err, "failed to smooth border")
		}
	}

	return Reduce(Thin(resized), cfg)
}

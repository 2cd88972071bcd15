package inference

import (
	"github.com/chewxy/math32"
	"github.com/nvr-ai/go-strain/images"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// DecodeMasks thresholds single channel logits of shape [N, 1, H, W] into N masks.
//
// A pixel is foreground when its logit is strictly positive. Non-finite logits are rejected.
//
// Arguments:
//   - logits: Row-major network output; it is not retained.
//   - n, height, width: The output geometry.
//
// Returns:
//   - n masks of height x width.
//   - ErrSegmentation (wrapped) if the data does not match the geometry or holds NaN/Inf.
func DecodeMasks(logits []float32, n, height, width int) ([]images.Mask, error) {
	if n <= 0 || height <= 0 || width <= 0 {
		return nil, errors.Wrapf(ErrSegmentation, "invalid output geometry %dx1x%dx%d", n, height, width)
	}
	if len(logits) != n*height*width {
		return nil, errors.Wrapf(ErrSegmentation, "output holds %d values, expected %d", len(logits), n*height*width)
	}

	out := tensor.New(tensor.WithShape(n, 1, height, width), tensor.WithBacking(logits))

	masks := make([]images.Mask, n)
	for i := range masks {
		view, err := out.Slice(tensor.S(i), tensor.S(0))
		if err != nil {
			return nil, errors.Wrapf(ErrSegmentation, "slice frame %d: %v", i, err)
		}
		plane, ok := view.Materialize().Data().([]float32)
		if !ok || len(plane) != height*width {
			return nil, errors.Wrapf(ErrSegmentation, "unexpected plane for frame %d", i)
		}

		m := images.NewMask(width, height)
		for j, v := range plane {
			if math32.IsNaN(v) || math32.IsInf(v, 0) {
				return nil, errors.Wrapf(ErrSegmentation, "non-finite logit in frame %d at %d", i, j)
			}
			m.Pix[j] = v > 0
		}
		masks[i] = m
	}
	return masks, nil
}

package images

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// GrayToMat copies a gray image into a new single channel 8-bit Mat.
//
// Arguments:
// - img: The gray image.
//
// Returns:
// - A CV_8UC1 Mat owned by the caller.
// - error if the Mat could not be created.
func GrayToMat(img *image.Gray) (gocv.Mat, error) {
	b := img.Bounds()
	buf := make([]byte, b.Dx()*b.Dy())
	for y := 0; y < b.Dy(); y++ {
		copy(buf[y*b.Dx():(y+1)*b.Dx()], img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):])
	}

	mat, err := gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC1, buf)
	if err != nil {
		return gocv.NewMat(), errors.Wrap(err, "failed to create mat from gray image")
	}
	defer mat.Close()

	// Detach from the Go buffer.
	return mat.Clone(), nil
}

// MatToGray copies a single channel 8-bit Mat into a gray image.
//
// Arguments:
// - mat: A CV_8UC1 Mat.
//
// Returns:
// - The gray image.
// - error if the Mat is empty or not single channel.
func MatToGray(mat gocv.Mat) (*image.Gray, error) {
	if mat.Empty() {
		return nil, errors.New("mat is empty")
	}
	if mat.Type() != gocv.MatTypeCV8UC1 {
		return nil, errors.Errorf("expected CV_8UC1 mat, got type %v", mat.Type())
	}

	img := image.NewGray(image.Rect(0, 0, mat.Cols(), mat.Rows()))
	copy(img.Pix, mat.ToBytes())
	return img, nil
}

// MaskToMat renders a mask as a CV_8UC1 Mat holding 0 and the given foreground value.
func MaskToMat(m Mask, on uint8) (gocv.Mat, error) {
	return GrayToMat(m.ToGray(on))
}

// MatToMask thresholds a CV_8UC1 Mat: non-zero pixels become foreground.
func MatToMask(mat gocv.Mat) (Mask, error) {
	img, err := MatToGray(mat)
	if err != nil {
		return Mask{}, err
	}
	return MaskFromGray(img), nil
}

// ResizeGray resizes a gray frame with OpenCV.
//
// Arguments:
// - img: The source frame.
// - size: Target width and height.
// - interpolation: The OpenCV interpolation flag (e.g. gocv.InterpolationLinear).
//
// Returns:
// - The resized frame.
// - error if conversion fails.
//
// @example
// tracked, err := ResizeGray(frame, image.Pt(568, 568), gocv.InterpolationLinear)
func ResizeGray(img *image.Gray, size image.Point, interpolation gocv.InterpolationFlags) (*image.Gray, error) {
	src, err := GrayToMat(img)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	gocv.Resize(src, &dst, size, 0, 0, interpolation)
	return MatToGray(dst)
}

// ResizeMask upsamples or downsamples a mask with bilinear interpolation on 0/1 values and keeps
// every pixel that receives any foreground weight.
//
// Arguments:
// - m: The source mask.
// - size: Target width and height.
//
// Returns:
// - The resized mask.
// - error if conversion fails.
func ResizeMask(m Mask, size image.Point) (Mask, error) {
	src, err := MaskToMat(m, 1)
	if err != nil {
		return Mask{}, err
	}
	defer src.Close()

	weights := gocv.NewMat()
	defer weights.Close()
	src.ConvertTo(&weights, gocv.MatTypeCV32F)

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Resize(weights, &dst, size, 0, 0, gocv.InterpolationLinear)

	data, err := dst.DataPtrFloat32()
	if err != nil {
		return Mask{}, errors.Wrap(err, "failed to read resized mask")
	}

	out := NewMask(size.X, size.Y)
	for i := range out.Pix {
		out.Pix[i] = data[i] > 0
	}
	return out, nil
}

// MedianBlurMask applies an OpenCV median filter to a mask.
//
// Arguments:
// - m: The mask to smooth.
// - ksize: Odd aperture size.
//
// Returns:
// - The smoothed mask.
// - error if conversion fails or the aperture is invalid.
func MedianBlurMask(m Mask, ksize int) (Mask, error) {
	if ksize < 3 || ksize%2 == 0 {
		return Mask{}, errors.Errorf("median aperture must be odd and at least 3, got %d", ksize)
	}

	src, err := MaskToMat(m, 1)
	if err != nil {
		return Mask{}, err
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	gocv.MedianBlur(src, &dst, ksize)
	return MatToMask(dst)
}

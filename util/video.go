package util

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// LoadVideo decodes every frame of a video file.
//
// Arguments:
// - path: The video file (any container OpenCV can read).
//
// Returns:
// - The frames in order.
// - The frame rate reported by the container (zero when unknown).
// - error if the file cannot be opened or holds no frames.
func LoadVideo(path string) ([]image.Image, float64, error) {
	capture, err := gocv.OpenVideoCapture(path)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "failed to open video %s", path)
	}
	defer capture.Close()

	fps := capture.Get(gocv.VideoCaptureFPS)

	mat := gocv.NewMat()
	defer mat.Close()

	var frames []image.Image
	for capture.Read(&mat) {
		if mat.Empty() {
			continue
		}
		img, err := mat.ToImage()
		if err != nil {
			return nil, 0, errors.Wrapf(err, "failed to convert frame %d", len(frames))
		}
		frames = append(frames, img)
	}
	if len(frames) == 0 {
		return nil, 0, errors.Errorf("no frames in video %s", path)
	}
	return frames, fps, nil
}

package util

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// FramePrefix is the file name prefix of numbered frame images (frame-<n>.<ext>).
const FramePrefix = "frame-"

// ImageFile represents an image file.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Data is the raw bytes of the image file.
	Data []byte
	// Frame is the frame number of the image file.
	Frame int
}

// LoadDirectoryImageFiles reads all frame images from a directory in frame number order.
//
// Files are expected to be named frame-<n> with a .jpg, .jpeg, .png or .bmp extension; other
// files and subdirectories are ignored.
//
// Arguments:
// - dir: Directory path containing image files.
//
// Returns:
// - []ImageFile: Slice of ImageFile, each containing the raw bytes of an image file.
// - error: Error if loading fails or a frame name has no number.
func LoadDirectoryImageFiles(dir string) ([]ImageFile, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read frame directory %s", dir)
	}

	var images []ImageFile
	for _, file := range files {
		if file.IsDir() || !strings.HasPrefix(file.Name(), FramePrefix) {
			continue
		}

		ext := filepath.Ext(file.Name())
		switch strings.ToLower(ext) {
		case ".jpg", ".jpeg", ".png", ".bmp":
			frame, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(file.Name(), FramePrefix), ext))
			if err != nil {
				return nil, errors.Wrapf(err, "frame number of %s", file.Name())
			}
			imgPath := filepath.Join(dir, file.Name())
			data, err := os.ReadFile(imgPath)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to read %s", imgPath)
			}
			images = append(images, ImageFile{
				Path:  imgPath,
				Data:  data,
				Frame: frame,
			})
		}
	}

	sort.Slice(images, func(i, j int) bool {
		return images[i].Frame < images[j].Frame
	})

	return images, nil
}

// DecodeImageFiles decodes image files into colour frames.
func DecodeImageFiles(files []ImageFile) ([]image.Image, error) {
	frames := make([]image.Image, len(files))
	for i, f := range files {
		mat, err := gocv.IMDecode(f.Data, gocv.IMReadColor)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to decode %s", f.Path)
		}
		if mat.Empty() {
			mat.Close()
			return nil, errors.Errorf("failed to decode %s", f.Path)
		}
		img, err := mat.ToImage()
		mat.Close()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to convert %s", f.Path)
		}
		frames[i] = img
	}
	return frames, nil
}

// LoadFrames reads and decodes every frame image of a directory in frame number order.
//
// @example
// frames, err := util.LoadFrames("cine/")
func LoadFrames(dir string) ([]image.Image, error) {
	files, err := LoadDirectoryImageFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.Errorf("no frame images in %s", dir)
	}
	return DecodeImageFiles(files)
}

// SaveFrames writes frames as frame-<first+i>.png into dir, creating it if needed.
//
// Arguments:
// - dir: Output directory.
// - first: Number of the first frame, so saved frames keep their position in the cine.
// - frames: Frames to write.
//
// Returns:
// - The written paths in frame order.
// - error if a frame cannot be encoded or written.
func SaveFrames(dir string, first int, frames []image.Image) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create %s", dir)
	}

	paths := make([]string, 0, len(frames))
	for i, frame := range frames {
		mat, err := gocv.ImageToMatRGB(frame)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to convert frame %d", first+i)
		}
		path := filepath.Join(dir, fmt.Sprintf("%s%d.png", FramePrefix, first+i))
		ok := gocv.IMWrite(path, mat)
		mat.Close()
		if !ok {
			return nil, errors.Errorf("failed to write %s", path)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

package inference

import (
	"context"
	"image"
	"os"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentationErrorKeepsCause(t *testing.T) {
	cause := &os.PathError{Op: "open", Path: "model.onnx", Err: os.ErrNotExist}

	err := errors.Wrap(segmentationError(cause, "read model io"), "segment cine")
	require.Error(t, err)

	assert.True(t, errors.Is(err, ErrSegmentation))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	var pathErr *os.PathError
	require.True(t, errors.As(err, &pathErr))
	assert.Equal(t, "model.onnx", pathErr.Path)

	var segErr *SegmentationError
	require.True(t, errors.As(err, &segErr))
	assert.Equal(t, "segmentation failed: read model io: open model.onnx: file does not exist", segErr.Error())
}

func TestSegmentCancelledKeepsContextError(t *testing.T) {
	err := segmentationError(context.Canceled, "cancelled")
	assert.True(t, errors.Is(err, ErrSegmentation))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSegmentClosedSegmenter(t *testing.T) {
	s := &ONNXSegmenter{}
	_, err := s.Segment(context.Background(), []*image.Gray{image.NewGray(image.Rect(0, 0, 4, 4))})
	assert.True(t, errors.Is(err, ErrSegmentation))
}

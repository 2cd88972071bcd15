// Package inference - Left ventricle segmentation.
//
// A Segmenter maps tracking frames to binary left ventricle masks at the model resolution. The
// ONNX implementation runs a preallocated onnxruntime session in fixed-size batches.
package inference

import (
	"context"
	"image"

	"github.com/nvr-ai/go-strain/images"
	"github.com/nvr-ai/go-strain/inference/providers"
	"github.com/nvr-ai/go-strain/models/model/preprocess"
	"github.com/pkg/errors"
)

// ErrSegmentation is returned (wrapped) for any failure of the segmentation stage.
var ErrSegmentation = errors.New("segmentation failed")

// SegmentationError marks a collaborator failure as a segmentation failure. errors.Is matches
// both ErrSegmentation and the original cause.
type SegmentationError struct {
	Err error
}

func (e *SegmentationError) Error() string {
	return ErrSegmentation.Error() + ": " + e.Err.Error()
}

// Unwrap returns ErrSegmentation and the cause.
func (e *SegmentationError) Unwrap() []error {
	return []error{ErrSegmentation, e.Err}
}

func segmentationError(err error, msg string) error {
	return &SegmentationError{Err: errors.WithMessage(err, msg)}
}

// Segmenter produces one mask per frame, in frame order.
type Segmenter interface {
	Segment(ctx context.Context, frames []*image.Gray) ([]images.Mask, error)
}

// SegmenterFunc adapts a function to the Segmenter interface.
type SegmenterFunc func(ctx context.Context, frames []*image.Gray) ([]images.Mask, error)

// Segment calls f.
func (f SegmenterFunc) Segment(ctx context.Context, frames []*image.Gray) ([]images.Mask, error) {
	return f(ctx, frames)
}

// Config configures the ONNX segmenter.
type Config struct {
	// ModelPath is the ONNX model file.
	ModelPath string `json:"modelPath" yaml:"modelPath"`
	// InputName and OutputName select the model tensors; empty reads them from the model.
	InputName  string `json:"inputName" yaml:"inputName"`
	OutputName string `json:"outputName" yaml:"outputName"`
	// BatchSize is the number of frames per session run.
	BatchSize int `json:"batchSize" yaml:"batchSize"`
	// Concurrency bounds the number of frames preprocessed at once.
	Concurrency int `json:"concurrency" yaml:"concurrency"`
	// Model describes the network input.
	Model preprocess.ModelConfig `json:"model" yaml:"model"`
	// Provider selects the execution provider.
	Provider providers.Config `json:"provider" yaml:"provider"`
}

// DefaultConfig returns the settings for the 112x112 EchoNet segmentation network on the CPU.
func DefaultConfig() Config {
	return Config{
		ModelPath:   "models/echonet_deeplabv3.onnx",
		BatchSize:   16,
		Concurrency: 4,
		Model:       *preprocess.EchoNetConfig(),
		Provider:    providers.DefaultConfig(),
	}
}

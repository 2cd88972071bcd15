// Package preprocess converts tracking frames into the input tensor of the segmentation model.
package preprocess

import (
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/nfnt/resize"
	"github.com/nvr-ai/go-strain/images"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// ModelConfig defines preprocessing configuration for a segmentation model.
type ModelConfig struct {
	// Name of the model for debugging purposes.
	Name string `json:"name" yaml:"name"`
	// InputWidth is the expected width of the model input.
	InputWidth int `json:"inputWidth" yaml:"inputWidth"`
	// InputHeight is the expected height of the model input.
	InputHeight int `json:"inputHeight" yaml:"inputHeight"`
	// InputChannels is the number of channels; a gray frame is repeated into every channel.
	InputChannels int `json:"inputChannels" yaml:"inputChannels"`
	// NormalizationType defines how to normalize pixel values.
	NormalizationType NormalizationType `json:"normalizationType" yaml:"normalizationType"`
	// MeanValues for standardization (if NormalizationType is Standardize).
	MeanValues []float32 `json:"meanValues" yaml:"meanValues"`
	// StdValues for standardization (if NormalizationType is Standardize).
	StdValues []float32 `json:"stdValues" yaml:"stdValues"`
	// ChannelOrder defines the channel ordering (CHW or HWC).
	ChannelOrder ChannelOrder `json:"channelOrder" yaml:"channelOrder"`
	// Interpolation selects the resampling kernel used to reach the input size.
	Interpolation Interpolation `json:"interpolation" yaml:"interpolation"`
}

// NormalizationType defines how pixel values are normalized.
type NormalizationType int

const (
	// NormalizeNone keeps pixel values as 0-255.
	NormalizeNone NormalizationType = iota
	// NormalizeZeroToOne scales pixel values to [0, 1].
	NormalizeZeroToOne
	// NormalizeMinusOneToOne scales pixel values to [-1, 1].
	NormalizeMinusOneToOne
	// NormalizeStandardize applies mean and std normalization.
	NormalizeStandardize
)

// ChannelOrder defines the ordering of image channels.
type ChannelOrder int

const (
	// ChannelOrderCHW is Channel-Height-Width ordering (common for ONNX).
	ChannelOrderCHW ChannelOrder = iota
	// ChannelOrderHWC is Height-Width-Channel ordering.
	ChannelOrderHWC
)

// Interpolation names a resampling kernel.
type Interpolation string

const (
	// InterpolationNearest is nearest-neighbour resampling.
	InterpolationNearest Interpolation = "nearest"
	// InterpolationBilinear is bilinear resampling.
	InterpolationBilinear Interpolation = "bilinear"
	// InterpolationBicubic is bicubic resampling.
	InterpolationBicubic Interpolation = "bicubic"
	// InterpolationLanczos is Lanczos-3 resampling.
	InterpolationLanczos Interpolation = "lanczos"
	// InterpolationCubic is OpenCV's cubic convolution, which does not low-pass on downscale.
	InterpolationCubic Interpolation = "cubic"
)

func (i Interpolation) function() resize.InterpolationFunction {
	switch i {
	case InterpolationNearest:
		return resize.NearestNeighbor
	case InterpolationBilinear:
		return resize.Bilinear
	case InterpolationLanczos:
		return resize.Lanczos3
	default:
		return resize.Bicubic
	}
}

// Result contains the preprocessed frame data and metadata.
type Result struct {
	// Data is the preprocessed float32 tensor data.
	Data []float32
	// OriginalWidth is the frame width before preprocessing.
	OriginalWidth int
	// OriginalHeight is the frame height before preprocessing.
	OriginalHeight int
	// Shape contains the tensor shape [C, H, W] or [H, W, C].
	Shape []int
}

// Preprocessor handles frame preprocessing for the segmentation model.
type Preprocessor struct {
	config *ModelConfig
	logger *slog.Logger
}

// NewPreprocessor creates a new preprocessor with the given configuration.
//
// Arguments:
// - config: The model-specific preprocessing configuration.
//
// Returns:
// - A configured Preprocessor instance.
//
// @example
// preprocessor := NewPreprocessor(EchoNetConfig())
func NewPreprocessor(config *ModelConfig) *Preprocessor {
	return &Preprocessor{
		config: config,
		logger: slog.Default(),
	}
}

// SetLogger replaces the logger used for debug output.
func (p *Preprocessor) SetLogger(logger *slog.Logger) {
	if logger != nil {
		p.logger = logger
	}
}

// Config returns the preprocessing configuration.
func (p *Preprocessor) Config() *ModelConfig {
	return p.config
}

// Preprocess resizes a gray frame to the model input and converts it to a normalized tensor.
//
// Arguments:
// - img: The frame to preprocess.
//
// Returns:
// - Result containing the tensor and metadata.
// - error if the frame is empty or the configuration is invalid.
//
// @example
// result, err := preprocessor.Preprocess(frame)
//
//	if err != nil {
//	    return err
//	}
//
// tensor := result.Data
func (p *Preprocessor) Preprocess(img *image.Gray) (*Result, error) {
	if err := p.validateInput(img); err != nil {
		return nil, errors.Wrap(err, "input validation failed")
	}

	originalWidth := img.Bounds().Dx()
	originalHeight := img.Bounds().Dy()

	resized, err := p.resizeImage(img)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resize frame")
	}
	tensor := p.imageToTensor(resized)
	p.normalize(tensor)

	var shape []int
	if p.config.ChannelOrder == ChannelOrderCHW {
		shape = []int{p.config.InputChannels, p.config.InputHeight, p.config.InputWidth}
	} else {
		shape = []int{p.config.InputHeight, p.config.InputWidth, p.config.InputChannels}
	}

	p.logger.Debug("preprocessed frame",
		"model", p.config.Name,
		"from", fmt.Sprintf("%dx%d", originalWidth, originalHeight),
		"shape", shape)

	return &Result{
		Data:           tensor,
		OriginalWidth:  originalWidth,
		OriginalHeight: originalHeight,
		Shape:          shape,
	}, nil
}

func (p *Preprocessor) validateInput(img *image.Gray) error {
	if img == nil {
		return errors.New("image is nil")
	}
	if img.Bounds().Empty() {
		return errors.Errorf("invalid image dimensions: %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
	if p.config.InputWidth <= 0 || p.config.InputHeight <= 0 || p.config.InputChannels <= 0 {
		return errors.Errorf("invalid model input %dx%dx%d",
			p.config.InputWidth, p.config.InputHeight, p.config.InputChannels)
	}
	if p.config.NormalizationType == NormalizeStandardize {
		if len(p.config.MeanValues) != p.config.InputChannels || len(p.config.StdValues) != p.config.InputChannels {
			return errors.Errorf("standardization needs %d mean and std values, got %d and %d",
				p.config.InputChannels, len(p.config.MeanValues), len(p.config.StdValues))
		}
		for c, std := range p.config.StdValues {
			if std == 0 {
				return errors.Errorf("std of channel %d is zero", c)
			}
		}
	}
	return nil
}

// resizeImage resizes the frame to the model's input dimensions, ignoring aspect ratio.
func (p *Preprocessor) resizeImage(img *image.Gray) (*image.Gray, error) {
	b := img.Bounds()
	if b.Dx() == p.config.InputWidth && b.Dy() == p.config.InputHeight && b.Min == (image.Point{}) {
		return img, nil
	}
	if p.config.Interpolation == InterpolationCubic {
		return images.ResizeGray(img, image.Pt(p.config.InputWidth, p.config.InputHeight), gocv.InterpolationCubic)
	}

	resized := resize.Resize(uint(p.config.InputWidth), uint(p.config.InputHeight), img, p.config.Interpolation.function())
	if g, ok := resized.(*image.Gray); ok {
		return g, nil
	}

	out := image.NewGray(image.Rect(0, 0, p.config.InputWidth, p.config.InputHeight))
	for y := 0; y < p.config.InputHeight; y++ {
		for x := 0; x < p.config.InputWidth; x++ {
			out.Set(x, y, resized.At(resized.Bounds().Min.X+x, resized.Bounds().Min.Y+y))
		}
	}
	return out, nil
}

// imageToTensor repeats the gray intensities into every configured channel.
func (p *Preprocessor) imageToTensor(img *image.Gray) []float32 {
	width := p.config.InputWidth
	height := p.config.InputHeight
	channels := p.config.InputChannels

	tensor := make([]float32, width*height*channels)
	for y := 0; y < height; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+width]
		for x, v := range row {
			for c := 0; c < channels; c++ {
				if p.config.ChannelOrder == ChannelOrderCHW {
					tensor[c*height*width+y*width+x] = float32(v)
				} else {
					tensor[(y*width+x)*channels+c] = float32(v)
				}
			}
		}
	}
	return tensor
}

// normalize applies normalization to the tensor in place. Standardization settings are checked
// by validateInput.
func (p *Preprocessor) normalize(tensor []float32) {
	switch p.config.NormalizationType {
	case NormalizeZeroToOne:
		for i := range tensor {
			tensor[i] /= 255.0
		}
	case NormalizeMinusOneToOne:
		for i := range tensor {
			tensor[i] = (tensor[i] / 127.5) - 1.0
		}
	case NormalizeStandardize:
		pixelsPerChannel := len(tensor) / p.config.InputChannels
		for c := 0; c < p.config.InputChannels; c++ {
			mean := p.config.MeanValues[c]
			std := p.config.StdValues[c]

			if p.config.ChannelOrder == ChannelOrderCHW {
				offset := c * pixelsPerChannel
				for i := 0; i < pixelsPerChannel; i++ {
					tensor[offset+i] = (tensor[offset+i] - mean) / std
				}
			} else {
				for i := c; i < len(tensor); i += p.config.InputChannels {
					tensor[i] = (tensor[i] - mean) / std
				}
			}
		}
	}
}

// EchoNetConfig returns the configuration of the 112x112 left ventricle segmentation network.
//
// The mean and standard deviation are the per-channel statistics of the training videos.
//
// @example
// preprocessor := NewPreprocessor(EchoNetConfig())
func EchoNetConfig() *ModelConfig {
	return &ModelConfig{
		Name:              "echonet-dynamic",
		InputWidth:        112,
		InputHeight:       112,
		InputChannels:     3,
		NormalizationType: NormalizeStandardize,
		MeanValues:        []float32{33.741943, 33.877575, 34.1646},
		StdValues:         []float32{51.184673, 51.356464, 51.660316},
		ChannelOrder:      ChannelOrderCHW,
		Interpolation:     InterpolationCubic,
	}
}

// BatchPreprocess processes multiple frames in parallel.
//
// Arguments:
// - frames: Frames to preprocess.
// - maxConcurrency: Maximum number of frames to process concurrently.
//
// Returns:
// - Slice of preprocessing results in frame order.
// - error if any preprocessing fails.
//
// @example
// results, err := preprocessor.BatchPreprocess(frames, 4)
//
//	if err != nil {
//	    return err
//	}
func (p *Preprocessor) BatchPreprocess(frames []*image.Gray, maxConcurrency int) ([]*Result, error) {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}

	results := make([]*Result, len(frames))
	errs := make([]error, len(frames))

	sem := make(chan struct{}, maxConcurrency)
	var wg sync.WaitGroup

	for i, frame := range frames {
		wg.Add(1)
		go func(idx int, frame *image.Gray) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			result, err := p.Preprocess(frame)
			if err != nil {
				errs[idx] = errors.Wrapf(err, "failed to preprocess frame %d", idx)
			} else {
				results[idx] = result
			}
		}(i, frame)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}

// Stack concatenates per-frame tensors into one batch tensor [N, ...shape].
//
// Arguments:
// - results: Preprocessed frames with identical shapes.
//
// Returns:
// - The batch data and its shape.
// - error if the results are empty or their shapes differ.
func Stack(results []*Result) ([]float32, []int64, error) {
	if len(results) == 0 {
		return nil, nil, errors.New("no frames to stack")
	}

	shape := results[0].Shape
	size := len(results[0].Data)
	data := make([]float32, 0, size*len(results))
	for i, r := range results {
		if len(r.Data) != size || fmt.Sprint(r.Shape) != fmt.Sprint(shape) {
			return nil, nil, errors.Errorf("frame %d has shape %v, expected %v", i, r.Shape, shape)
		}
		data = append(data, r.Data...)
	}

	batch := []int64{int64(len(results))}
	for _, d := range shape {
		batch = append(batch, int64(d))
	}
	return data, batch, nil
}

package inference

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/nvr-ai/go-strain/images"
	"github.com/nvr-ai/go-strain/inference/providers"
	"github.com/nvr-ai/go-strain/models/model/preprocess"
	"github.com/pkg/errors"
)

// ONNXSegmenter runs the segmentation network with onnxruntime.
//
// The session and its tensors are allocated once for cfg.BatchSize frames; the last batch of a
// call is zero padded. Calls are serialized.
type ONNXSegmenter struct {
	cfg          Config
	provider     providers.ExecutionProvider
	session      *providers.Session
	preprocessor *preprocess.Preprocessor
	logger       *slog.Logger
	mu           sync.Mutex
}

// NewONNXSegmenter loads the model and prepares a session.
//
// Arguments:
//   - cfg: Model, batch and provider settings.
//   - logger: Debug output; nil uses slog.Default().
//
// Returns:
//   - *ONNXSegmenter: The segmenter; the caller must Close it.
//   - error: ErrSegmentation (wrapped) if the runtime, provider or model cannot be loaded.
//
// @example
// seg, err := inference.NewONNXSegmenter(inference.DefaultConfig(), nil)
//
//	if err != nil {
//	    return err
//	}
//
// defer seg.Close()
func NewONNXSegmenter(cfg Config, logger *slog.Logger) (*ONNXSegmenter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1
	}

	provider, err := providers.NewProvider(cfg.Provider)
	if err != nil {
		return nil, segmentationError(err, "select provider")
	}
	if err := providers.InitializeRuntime(cfg.Provider.SharedLibraryPath); err != nil {
		return nil, segmentationError(err, "initialize runtime")
	}

	if cfg.InputName == "" || cfg.OutputName == "" {
		ins, outs, err := providers.ModelIO(cfg.ModelPath)
		if err != nil {
			return nil, segmentationError(err, "read model io")
		}
		if len(ins) == 0 || len(outs) == 0 {
			return nil, errors.Wrapf(ErrSegmentation, "model %s declares no inputs or outputs", cfg.ModelPath)
		}
		if cfg.InputName == "" {
			cfg.InputName = ins[0]
		}
		if cfg.OutputName == "" {
			cfg.OutputName = outs[0]
		}
	}

	m := cfg.Model
	b := int64(cfg.BatchSize)
	session, err := providers.NewSession(provider, cfg.Provider, providers.NewSessionArgs{
		ModelPath: cfg.ModelPath,
		Inputs: []providers.TensorSpec{{
			Name:  cfg.InputName,
			Shape: []int64{b, int64(m.InputChannels), int64(m.InputHeight), int64(m.InputWidth)},
		}},
		Outputs: []providers.TensorSpec{{
			Name:  cfg.OutputName,
			Shape: []int64{b, 1, int64(m.InputHeight), int64(m.InputWidth)},
		}},
	})
	if err != nil {
		return nil, segmentationError(err, "create session")
	}

	p := preprocess.NewPreprocessor(&m)
	p.SetLogger(logger)

	logger.Debug("segmentation session ready",
		"model", cfg.ModelPath,
		"provider", provider.Backend(),
		"input", cfg.InputName,
		"output", cfg.OutputName,
		"batch", cfg.BatchSize)

	return &ONNXSegmenter{
		cfg:          cfg,
		provider:     provider,
		session:      session,
		preprocessor: p,
		logger:       logger,
	}, nil
}

// Segment runs the network on every frame.
//
// Arguments:
//   - ctx: Checked between batches.
//   - frames: Tracking frames of any size; they are resized to the model input.
//
// Returns:
//   - One mask per frame at the model resolution.
//   - ErrSegmentation (wrapped) on any failure; no partial result is returned.
func (s *ONNXSegmenter) Segment(ctx context.Context, frames []*image.Gray) ([]images.Mask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, errors.Wrap(ErrSegmentation, "segmenter is closed")
	}
	if len(frames) == 0 {
		return nil, nil
	}

	results, err := s.preprocessor.BatchPreprocess(frames, s.cfg.Concurrency)
	if err != nil {
		return nil, segmentationError(err, "preprocess frames")
	}

	m := s.cfg.Model
	masks := make([]images.Mask, 0, len(frames))
	for start := 0; start < len(results); start += s.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return nil, segmentationError(err, "cancelled")
		}

		end := min(start+s.cfg.BatchSize, len(results))
		data, _, err := preprocess.Stack(results[start:end])
		if err != nil {
			return nil, segmentationError(err, "stack batch")
		}

		input := s.session.Inputs[0].GetData()
		n := copy(input, data)
		clear(input[n:])

		if err := s.session.Run(); err != nil {
			return nil, segmentationError(err, fmt.Sprintf("run batch at frame %d", start))
		}

		plane := m.InputHeight * m.InputWidth
		output := s.session.Outputs[0].GetData()
		batch, err := DecodeMasks(output[:(end-start)*plane], end-start, m.InputHeight, m.InputWidth)
		if err != nil {
			return nil, errors.Wrapf(err, "batch at frame %d", start)
		}
		masks = append(masks, batch...)
	}

	s.logger.Debug("segmented frames", "frames", len(frames), "provider", s.provider.Backend())
	return masks, nil
}

// Close releases the session.
func (s *ONNXSegmenter) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil
	}
	err := s.session.Close()
	s.session = nil
	return err
}

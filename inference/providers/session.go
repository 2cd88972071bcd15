// Package providers - Inference sessions.
package providers

import (
	"os"
	"sync"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

var (
	initOnce sync.Once
	initErr  error
)

// InitializeRuntime loads the onnxruntime shared library and prepares the environment.
//
// The environment is process wide; only the first call has an effect and later calls return its
// result.
//
// Arguments:
//   - libPath: Shared library location; empty uses GetSharedLibPath.
//
// Returns:
//   - error: An error if the library is missing or the environment cannot be initialized.
func InitializeRuntime(libPath string) error {
	initOnce.Do(func() {
		if libPath == "" {
			libPath, initErr = GetSharedLibPath()
			if initErr != nil {
				return
			}
		}
		if _, err := os.Stat(libPath); err != nil {
			initErr = errors.Wrapf(err, "onnxruntime library not found at %s", libPath)
			return
		}

		// Point ONNX Runtime to the exact shared library path (overrides default search).
		ort.SetSharedLibraryPath(libPath)
		if err := ort.InitializeEnvironment(); err != nil {
			initErr = errors.Wrap(err, "error initializing ORT environment")
		}
	})
	return initErr
}

// Session represents a model session from the onnxruntime with its bound tensors.
type Session struct {
	Session *ort.AdvancedSession
	Inputs  []*ort.Tensor[float32]
	Outputs []*ort.Tensor[float32]
}

// Run executes the model on the data currently held by the input tensors.
func (s *Session) Run() error {
	if s.Session == nil {
		return errors.New("session is closed")
	}
	return s.Session.Run()
}

// Close releases the resources associated with the Session.
func (s *Session) Close() error {
	for _, input := range s.Inputs {
		input.Destroy()
	}
	s.Inputs = nil

	for _, output := range s.Outputs {
		output.Destroy()
	}
	s.Outputs = nil

	if s.Session != nil {
		err := s.Session.Destroy()
		s.Session = nil
		if err != nil {
			return errors.Wrap(err, "error destroying ORT session")
		}
	}
	return nil
}

// TensorSpec names a model input or output and its fixed shape.
type TensorSpec struct {
	Name  string
	Shape []int64
}

// NewSessionArgs represents the arguments for creating a new session.
type NewSessionArgs struct {
	// The path to the ONNX model file.
	ModelPath string
	// The inputs of the model.
	Inputs []TensorSpec
	// The outputs of the model.
	Outputs []TensorSpec
}

// NewSession creates a new ONNX Runtime session with preallocated input and output tensors.
//
// Order of operations:
//  1. Environment setup: loads the native runtime once per process.
//  2. Tensor allocation: prepares fixed-shape buffers for input/output data.
//  3. Session options: threading, optimization level and the execution provider.
//  4. Session creation: loads the model and binds the tensors.
//
// Arguments:
//   - provider: The execution provider for the session.
//   - cfg: Threading and library settings.
//   - args: The model and its tensor layout.
//
// Returns:
//   - *Session: The session; the caller must Close it.
//   - error: An error if the session creation fails.
func NewSession(provider ExecutionProvider, cfg Config, args NewSessionArgs) (*Session, error) {
	if err := InitializeRuntime(cfg.SharedLibraryPath); err != nil {
		return nil, err
	}

	s := &Session{}
	var inputNames, outputNames []string
	var inputs, outputs []ort.Value

	for _, spec := range args.Inputs {
		t, err := ort.NewEmptyTensor[float32](ort.NewShape(spec.Shape...))
		if err != nil {
			s.Close()
			return nil, errors.Wrapf(err, "error creating input tensor %q", spec.Name)
		}
		s.Inputs = append(s.Inputs, t)
		inputs = append(inputs, t)
		inputNames = append(inputNames, spec.Name)
	}

	for _, spec := range args.Outputs {
		t, err := ort.NewEmptyTensor[float32](ort.NewShape(spec.Shape...))
		if err != nil {
			s.Close()
			return nil, errors.Wrapf(err, "error creating output tensor %q", spec.Name)
		}
		s.Outputs = append(s.Outputs, t)
		outputs = append(outputs, t)
		outputNames = append(outputNames, spec.Name)
	}

	options, err := NewSessionOptions(provider, cfg)
	if err != nil {
		s.Close()
		return nil, err
	}
	defer options.Destroy()

	session, err := ort.NewAdvancedSession(args.ModelPath, inputNames, outputNames, inputs, outputs, options)
	if err != nil {
		s.Close()
		return nil, errors.Wrapf(err, "error creating ORT session for %s", args.ModelPath)
	}
	s.Session = session
	return s, nil
}

// NewSessionOptions builds session options for the provider.
//
// Arguments:
//   - provider: The execution provider to append.
//   - cfg: Threading settings.
//
// Returns:
//   - *ort.SessionOptions: The options; the caller must Destroy them.
//   - error: An error if the provider cannot be enabled.
func NewSessionOptions(provider ExecutionProvider, cfg Config) (*ort.SessionOptions, error) {
	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, errors.Wrap(err, "error creating ORT session options")
	}

	if err := configureOptions(options, provider, cfg); err != nil {
		options.Destroy()
		return nil, err
	}
	return options, nil
}

func configureOptions(options *ort.SessionOptions, provider ExecutionProvider, cfg Config) error {
	// Zero thread counts let the runtime pick.
	options.SetIntraOpNumThreads(cfg.IntraOpNumThreads)
	options.SetInterOpNumThreads(cfg.InterOpNumThreads)
	options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableExtended)

	switch provider.Backend() {
	case CPUProviderBackend:
		return nil
	case CoreMLProviderBackend:
		opts, ok := provider.Options().(CoreMLOptions)
		if !ok {
			return errors.Errorf("invalid options type for CoreML: %T", provider.Options())
		}
		if err := options.AppendExecutionProviderCoreML(opts.Flags()); err != nil {
			return errors.Wrap(err, "error enabling CoreML")
		}
	case OpenVINOProviderBackend:
		opts, ok := provider.Options().(OpenVINOOptions)
		if !ok {
			return errors.Errorf("invalid options type for OpenVINO: %T", provider.Options())
		}
		if err := options.AppendExecutionProviderOpenVINO(opts.Map()); err != nil {
			return errors.Wrap(err, "error enabling OpenVINO")
		}
	case CUDAProviderBackend:
		opts, ok := provider.Options().(CUDAOptions)
		if !ok {
			return errors.Errorf("invalid options type for CUDA: %T", provider.Options())
		}
		cuda, err := opts.ToNativeProviderOptions()
		if err != nil {
			return err
		}
		defer cuda.Destroy()
		if err := options.AppendExecutionProviderCUDA(cuda); err != nil {
			return errors.Wrap(err, "error enabling CUDA")
		}
	default:
		return errors.Errorf("unsupported provider backend: %s", provider.Backend())
	}
	return nil
}

// ModelIO returns the input and output names declared by a model file.
func ModelIO(modelPath string) (inputs, outputs []string, err error) {
	in, out, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to read model inputs/outputs from %s", modelPath)
	}
	for _, i := range in {
		inputs = append(inputs, i.Name)
	}
	for _, o := range out {
		outputs = append(outputs, o.Name)
	}
	return inputs, outputs, nil
}

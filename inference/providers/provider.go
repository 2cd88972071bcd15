// Package providers - Execution providers for the onnxruntime sessions.
package providers

import (
	"github.com/pkg/errors"
)

// ProviderBackend names an ONNX Runtime execution provider.
type ProviderBackend string

// ProviderOptions is a marker interface for provider-specific config.
type ProviderOptions interface {
	isProviderOptions()
}

// ExecutionProvider represents the contract that all execution providers must implement.
type ExecutionProvider interface {
	Backend() ProviderBackend
	Options() ProviderOptions
}

// Config selects and tunes the execution provider of a session.
type Config struct {
	// Backend specifies the provider to use; empty selects the CPU.
	Backend ProviderBackend `json:"backend" yaml:"backend"`
	// CUDA options, used when Backend is cuda.
	CUDA CUDAOptions `json:"cuda" yaml:"cuda"`
	// CoreML options, used when Backend is coreml.
	CoreML CoreMLOptions `json:"coreml" yaml:"coreml"`
	// OpenVINO options, used when Backend is openvino.
	OpenVINO OpenVINOOptions `json:"openvino" yaml:"openvino"`
	// IntraOpNumThreads sets threads for parallelizing ops (0 lets the runtime decide).
	IntraOpNumThreads int `json:"intraOpNumThreads" yaml:"intraOpNumThreads"`
	// InterOpNumThreads sets threads for parallelizing independent ops (0 lets the runtime decide).
	InterOpNumThreads int `json:"interOpNumThreads" yaml:"interOpNumThreads"`
	// SharedLibraryPath overrides the platform default onnxruntime library location.
	SharedLibraryPath string `json:"sharedLibraryPath" yaml:"sharedLibraryPath"`
}

// DefaultConfig returns a CPU configuration with runtime-chosen threading.
func DefaultConfig() Config {
	return Config{Backend: CPUProviderBackend}
}

// NewProvider creates the execution provider named by the configuration.
//
// Arguments:
//   - cfg: The provider configuration.
//
// Returns:
//   - ExecutionProvider: The new provider.
//   - error: An error if the backend is unknown.
func NewProvider(cfg Config) (ExecutionProvider, error) {
	switch cfg.Backend {
	case "", CPUProviderBackend:
		return NewCPUProvider(), nil
	case CUDAProviderBackend:
		return NewCUDAProvider(cfg.CUDA), nil
	case CoreMLProviderBackend:
		return NewCoreMLProvider(cfg.CoreML), nil
	case OpenVINOProviderBackend:
		return NewOpenVINOProvider(cfg.OpenVINO), nil
	default:
		return nil, errors.Errorf("no matching provider backend registered: %s", cfg.Backend)
	}
}

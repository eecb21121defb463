//go:build !onnx

package classifier

import "errors"

// ErrONNXUnavailable is returned when the binary was built without the 'onnx' tag.
var ErrONNXUnavailable = errors.New("onnx backend not compiled in (build with -tags onnx)")

// NewONNXBackend is a stub implementation when built without the 'onnx' build tag.
func NewONNXBackend(cfg ONNXConfig) (Backend, error) {
	if err := cfg.IsValid(); err != nil {
		return nil, err
	}
	return nil, ErrONNXUnavailable
}

// InitRuntime is a no-op without the 'onnx' build tag.
func InitRuntime(libraryPath string) error {
	return nil
}

// DestroyRuntime is a no-op without the 'onnx' build tag.
func DestroyRuntime() error {
	return nil
}

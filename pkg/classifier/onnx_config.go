package classifier

import "fmt"

// ONNXConfig holds configuration for the ONNX Runtime backend.
type ONNXConfig struct {
	// ModelPath is the exported .onnx model.
	ModelPath string
	// LibraryPath points at libonnxruntime; empty means auto-detect.
	LibraryPath string
	InputName   string
	OutputName  string
	// NumClasses is the width of the logits output. Defaults to 527 (AudioSet).
	NumClasses int
	Threads    int
}

// IsValid validates the backend configuration.
func (c ONNXConfig) IsValid() error {
	if c.ModelPath == "" {
		return fmt.Errorf("invalid ModelPath: should not be empty")
	}
	if c.NumClasses < 0 {
		return fmt.Errorf("invalid NumClasses: %d", c.NumClasses)
	}
	return nil
}

func (c ONNXConfig) withDefaults() ONNXConfig {
	if c.InputName == "" {
		c.InputName = "waveform"
	}
	if c.OutputName == "" {
		c.OutputName = "logits"
	}
	if c.NumClasses == 0 {
		c.NumClasses = 527
	}
	if c.Threads <= 0 {
		c.Threads = 1
	}
	return c
}

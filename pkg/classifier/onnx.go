//go:build onnx

package classifier

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// runtimeInitialized tracks whether the ONNX runtime has been initialized.
var (
	runtimeInitialized bool
	runtimeMu          sync.Mutex
)

// InitRuntime initializes the ONNX runtime environment.
// libraryPath can be empty to use auto-detection, or specify the path to libonnxruntime.so.
func InitRuntime(libraryPath string) error {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()

	if runtimeInitialized {
		return nil
	}

	if libraryPath == "" {
		libraryPath = findONNXRuntimeLibrary()
	}
	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}

	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX runtime: %w", err)
	}

	runtimeInitialized = true
	return nil
}

// DestroyRuntime destroys the ONNX runtime environment.
func DestroyRuntime() error {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()

	if !runtimeInitialized {
		return nil
	}

	if err := ort.DestroyEnvironment(); err != nil {
		return fmt.Errorf("failed to destroy ONNX runtime: %w", err)
	}

	runtimeInitialized = false
	return nil
}

// findONNXRuntimeLibrary tries to find the ONNX Runtime shared library.
func findONNXRuntimeLibrary() string {
	paths := []string{
		os.Getenv("ONNXRUNTIME_LIB"),
		"/usr/lib/libonnxruntime.so",
		"/usr/local/lib/libonnxruntime.so",
		"/opt/onnxruntime/lib/libonnxruntime.so",
		"/opt/homebrew/lib/libonnxruntime.dylib",
		"/usr/local/lib/libonnxruntime.dylib",
	}

	if ldPath := os.Getenv("LD_LIBRARY_PATH"); ldPath != "" {
		for _, dir := range filepath.SplitList(ldPath) {
			paths = append(paths, filepath.Join(dir, "libonnxruntime.so"))
		}
	}

	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// ONNXBackend runs an exported scene model with ONNX Runtime.
// The model takes a [1, InputLength] waveform and returns [1, NumClasses] logits.
type ONNXBackend struct {
	session *ort.DynamicAdvancedSession
	cfg     ONNXConfig
	mu      sync.Mutex
}

// NewONNXBackend loads cfg.ModelPath. The runtime is initialized on demand.
func NewONNXBackend(cfg ONNXConfig) (Backend, error) {
	if err := cfg.IsValid(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg = cfg.withDefaults()

	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("model file %s: %w", cfg.ModelPath, err)
	}

	if err := InitRuntime(cfg.LibraryPath); err != nil {
		return nil, err
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer options.Destroy()

	if err := options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableAll); err != nil {
		return nil, fmt.Errorf("failed to set graph optimization level: %w", err)
	}
	if err := options.SetIntraOpNumThreads(cfg.Threads); err != nil {
		return nil, fmt.Errorf("failed to set intra-op threads: %w", err)
	}

	session, err := ort.NewDynamicAdvancedSession(
		cfg.ModelPath,
		[]string{cfg.InputName},
		[]string{cfg.OutputName},
		options,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &ONNXBackend{session: session, cfg: cfg}, nil
}

// Classify implements Backend.
func (b *ONNXBackend) Classify(waveform []float32) ([]float32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return nil, fmt.Errorf("session closed")
	}

	inputTensor, err := ort.NewTensor(ort.NewShape(1, int64(len(waveform))), waveform)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(b.cfg.NumClasses)))
	if err != nil {
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	if err := b.session.Run([]ort.Value{inputTensor}, []ort.Value{outputTensor}); err != nil {
		return nil, fmt.Errorf("failed to run inference: %w", err)
	}

	data := outputTensor.GetData()
	logits := make([]float32, len(data))
	copy(logits, data)
	return logits, nil
}

// Name implements Backend.
func (b *ONNXBackend) Name() string {
	return "onnxruntime/cpu"
}

// Close implements Backend.
func (b *ONNXBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session != nil {
		if err := b.session.Destroy(); err != nil {
			return fmt.Errorf("failed to destroy session: %w", err)
		}
		b.session = nil
	}
	return nil
}

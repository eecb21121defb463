package classifier

import "sync"

// MockBackend is a mock implementation of Backend for testing.
// It allows customizing the behavior of Classify through the ClassifyFunc field.
type MockBackend struct {
	// ClassifyFunc is called when Classify is invoked.
	// If nil, returns Logits.
	ClassifyFunc func(waveform []float32) ([]float32, error)

	// Logits is returned when ClassifyFunc is nil.
	Logits []float32

	// BackendName is returned by Name; defaults to "mock".
	BackendName string

	// ClassifyCalls records the length of every waveform passed to Classify.
	ClassifyCalls []int

	// CloseCalled tracks if Close was called.
	CloseCalled bool

	mu sync.Mutex
}

// NewMockBackend creates a MockBackend returning fixed logits.
func NewMockBackend(logits ...float32) *MockBackend {
	return &MockBackend{Logits: logits}
}

// Classify implements Backend.
func (m *MockBackend) Classify(waveform []float32) ([]float32, error) {
	m.mu.Lock()
	m.ClassifyCalls = append(m.ClassifyCalls, len(waveform))
	fn := m.ClassifyFunc
	logits := m.Logits
	m.mu.Unlock()

	if fn != nil {
		return fn(waveform)
	}
	out := make([]float32, len(logits))
	copy(out, logits)
	return out, nil
}

// Name implements Backend.
func (m *MockBackend) Name() string {
	if m.BackendName == "" {
		return "mock"
	}
	return m.BackendName
}

// Close implements Backend.
func (m *MockBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalled = true
	return nil
}

// CallCount returns the number of times Classify was called.
func (m *MockBackend) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ClassifyCalls)
}

// Ensure MockBackend implements Backend at compile time.
var _ Backend = (*MockBackend)(nil)

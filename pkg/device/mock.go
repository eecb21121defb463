package device

import (
	"context"
	"sync"
)

// MockRead is one scripted Read outcome.
type MockRead struct {
	Samples []int16
	Err     error
}

// MockSource replays scripted reads. Once the script is exhausted it keeps
// returning Fill (or silence when Fill is nil) until the context is cancelled.
type MockSource struct {
	Rate   int
	Script []MockRead
	// Fill generates chunks after the script runs out.
	Fill func(buf []int16) int

	mu           sync.Mutex
	next         int
	StartCalled  int
	StopCalled   int
	ReleaseCalls int
	Reads        int
	StartErr     error
}

// NewMockSource creates a MockSource at rate.
func NewMockSource(rate int, script ...MockRead) *MockSource {
	return &MockSource{Rate: rate, Script: script}
}

func (m *MockSource) SampleRate() int {
	if m.Rate <= 0 {
		return DefaultSampleRate
	}
	return m.Rate
}

func (m *MockSource) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StartCalled++
	return m.StartErr
}

func (m *MockSource) Read(ctx context.Context, buf []int16) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	m.Reads++
	if m.next < len(m.Script) {
		r := m.Script[m.next]
		m.next++
		m.mu.Unlock()
		if r.Err != nil {
			return 0, r.Err
		}
		return copy(buf, r.Samples), nil
	}
	fill := m.Fill
	m.mu.Unlock()

	if fill != nil {
		return fill(buf), nil
	}
	for i := range buf {
		buf[i] = 0
	}
	return len(buf), nil
}

func (m *MockSource) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StopCalled++
	return nil
}

func (m *MockSource) Release() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReleaseCalls++
	return nil
}

// Counts returns start, stop and release call counts.
func (m *MockSource) Counts() (start, stop, release int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.StartCalled, m.StopCalled, m.ReleaseCalls
}

// MockSink records Play calls.
type MockSink struct {
	mu       sync.Mutex
	Played   [][]int16
	Rates    []int
	PlayErr  error
	released int
}

func (m *MockSink) Play(pcm []int16, sampleRate int) (Playback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PlayErr != nil {
		return nil, m.PlayErr
	}
	m.Played = append(m.Played, append([]int16(nil), pcm...))
	m.Rates = append(m.Rates, sampleRate)
	return &mockPlayback{sink: m}, nil
}

// Released returns how many playbacks were released.
func (m *MockSink) Released() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.released
}

// PlayCount returns the number of Play calls that succeeded.
func (m *MockSink) PlayCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Played)
}

type mockPlayback struct {
	once sync.Once
	sink *MockSink
}

func (p *mockPlayback) Release() error {
	p.once.Do(func() {
		p.sink.mu.Lock()
		p.sink.released++
		p.sink.mu.Unlock()
	})
	return nil
}

var (
	_ Source = (*MockSource)(nil)
	_ Sink   = (*MockSink)(nil)
	_ Source = (*MalgoSource)(nil)
	_ Sink   = (*MalgoSink)(nil)
)

package audio

import (
	"sync"
)

// PlayoutQueue buffers PCM bytes for a pull-based playback callback.
// The device callback drains it through Fill; missing data is rendered as silence.
type PlayoutQueue struct {
	buffer []byte
	mu     sync.Mutex

	sampleRate int
	channels   int
}

// NewPlayoutQueue creates an empty queue for the given format.
func NewPlayoutQueue(sampleRate, channels int) *PlayoutQueue {
	if channels <= 0 {
		channels = Channels
	}
	// pre-allocate one second
	return &PlayoutQueue{
		buffer:     make([]byte, 0, sampleRate*channels*BytesPerSample),
		sampleRate: sampleRate,
		channels:   channels,
	}
}

// Write appends PCM bytes to the queue.
func (q *PlayoutQueue) Write(data []byte) {
	if len(data) == 0 {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.buffer = append(q.buffer, data...)
}

// Fill copies queued bytes into out and zero-fills the remainder.
// It returns the number of queued bytes consumed.
func (q *PlayoutQueue) Fill(out []byte) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := copy(out, q.buffer)
	for i := n; i < len(out); i++ {
		out[i] = 0
	}
	q.buffer = q.buffer[n:]
	return n
}

// Clear drops all queued data.
func (q *PlayoutQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.buffer = q.buffer[:0]
}

// Available returns the number of queued bytes.
func (q *PlayoutQueue) Available() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buffer)
}

// SampleRate returns the queue's sample rate.
func (q *PlayoutQueue) SampleRate() int {
	return q.sampleRate
}

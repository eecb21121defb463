// Package audio provides audio processing utilities.
//
// Window implements the fixed-size circular window that holds the most recent
// span of normalized capture samples. It is written by the capture goroutine
// and read by snapshot extraction without a mutex.
//
// Main features:
//   - Fixed capacity based on sample rate and duration
//   - Single writer, lock-free point-in-time reads
//   - Absolute sum accumulated during the snapshot pass
//
// Usage:
//
//	w := NewWindow(32000, 10) // 10s at 32kHz
//	w.WritePCM(chunk)
//	if w.Filled() {
//	    snap := w.Snapshot()
//	}
package audio

import (
	"math"
	"sync/atomic"
)

// Window is a fixed-size circular buffer of samples in [-1, 1].
//
// Each slot holds the float32 bits of one sample so that a reader racing the
// writer sees either the previous or the new value of a slot, never a torn one.
type Window struct {
	slots    []atomic.Uint32
	capacity int
	writePos atomic.Int64 // next write position, published after each chunk
	filled   atomic.Bool  // true once writePos has wrapped at least once
}

// NewWindow creates a window holding sampleRate*seconds samples.
func NewWindow(sampleRate, seconds int) *Window {
	return NewWindowSize(sampleRate * seconds)
}

// NewWindowSize creates a window holding exactly capacity samples.
func NewWindowSize(capacity int) *Window {
	if capacity <= 0 {
		capacity = 1
	}
	return &Window{
		slots:    make([]atomic.Uint32, capacity),
		capacity: capacity,
	}
}

// Write appends samples one at a time, overwriting the oldest ones.
// Only one goroutine may call Write/WritePCM.
func (w *Window) Write(chunk []float32) {
	if len(chunk) == 0 {
		return
	}

	pos := int(w.writePos.Load())
	for _, v := range chunk {
		w.slots[pos].Store(math.Float32bits(v))
		pos++
		if pos == w.capacity {
			pos = 0
			w.filled.Store(true)
		}
	}
	w.writePos.Store(int64(pos))
}

// WritePCM normalizes signed 16-bit samples and appends them.
func (w *Window) WritePCM(chunk []int16) {
	if len(chunk) == 0 {
		return
	}

	pos := int(w.writePos.Load())
	for _, s := range chunk {
		w.slots[pos].Store(math.Float32bits(Int16ToFloat32(s)))
		pos++
		if pos == w.capacity {
			pos = 0
			w.filled.Store(true)
		}
	}
	w.writePos.Store(int64(pos))
}

// Snapshot linearizes the window oldest-first starting at the write cursor.
// The cursor is read once; samples written concurrently near the cursor may
// show up stale, which is tolerated.
func (w *Window) Snapshot() Snapshot {
	samples := make([]float32, w.capacity)
	idx := int(w.writePos.Load())
	var sumAbs float64
	for i := range samples {
		v := math.Float32frombits(w.slots[idx].Load())
		samples[i] = v
		sumAbs += math.Abs(float64(v))
		idx++
		if idx == w.capacity {
			idx = 0
		}
	}
	return Snapshot{Samples: samples, SumAbs: sumAbs}
}

// Reset clears the window and rewinds the cursor.
// Must not be called while a writer is active.
func (w *Window) Reset() {
	for i := range w.slots {
		w.slots[i].Store(0)
	}
	w.writePos.Store(0)
	w.filled.Store(false)
}

// Filled reports whether the cursor has wrapped at least once.
func (w *Window) Filled() bool {
	return w.filled.Load()
}

// Cursor returns the next write position.
func (w *Window) Cursor() int {
	return int(w.writePos.Load())
}

// Capacity returns the number of samples the window holds.
func (w *Window) Capacity() int {
	return w.capacity
}

// Snapshot is a linearized, oldest-first copy of a Window.
type Snapshot struct {
	Samples []float32
	// SumAbs is the sum of absolute sample values, gathered during extraction.
	SumAbs float64
}

// MeanAbs returns the mean absolute amplitude of the snapshot.
func (s Snapshot) MeanAbs() float64 {
	if len(s.Samples) == 0 {
		return 0
	}
	return s.SumAbs / float64(len(s.Samples))
}

// Len returns the number of samples.
func (s Snapshot) Len() int {
	return len(s.Samples)
}

// Package device abstracts the microphone and speaker.
package device

import (
	"context"
	"errors"
	"fmt"
)

const (
	// DefaultSampleRate is the capture rate the classifier expects.
	DefaultSampleRate = 32000
	// DefaultChunkSamples is the per-read chunk size.
	DefaultChunkSamples = 1024
)

// Read error codes reported through ReadError.
const (
	// CodeOverrun means captured data was dropped because nobody was reading.
	CodeOverrun = -1
	// CodeInvalidOperation mirrors a read on a device that is not recording.
	CodeInvalidOperation = -3
)

var (
	// ErrDeviceClosed is returned after Release.
	ErrDeviceClosed = errors.New("device closed")
	// ErrNotStarted is returned by Read before Start.
	ErrNotStarted = errors.New("device not started")
)

// ReadError is a transient capture failure. The capture loop reports it and
// keeps reading.
type ReadError struct {
	Code int
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("audio read error: %d", e.Code)
}

// IsTransient reports whether err is a ReadError.
func IsTransient(err error) bool {
	var re *ReadError
	return errors.As(err, &re)
}

// Source is a mono signed 16-bit capture device at a fixed sample rate.
type Source interface {
	Start() error
	// Read fills buf with up to len(buf) samples and returns the count.
	// A zero count with a nil error means no data was ready.
	Read(ctx context.Context, buf []int16) (int, error)
	Stop() error
	Release() error
	SampleRate() int
}

// Playback is an in-progress playback started by a Sink.
type Playback interface {
	// Release stops the playback and frees the device.
	Release() error
}

// Sink plays mono signed 16-bit PCM.
type Sink interface {
	Play(pcm []int16, sampleRate int) (Playback, error)
}

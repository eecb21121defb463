package device

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/realtime-ai/audioscene/pkg/audio"
)

// FileSourceOptions controls how a FileSource replays its clip.
type FileSourceOptions struct {
	// Realtime paces reads at the capture rate instead of returning at once.
	Realtime bool
	// Loop restarts the clip at the end instead of returning io.EOF.
	Loop bool
}

// FileSource replays a decoded audio file as if it were a microphone.
// Reads return io.EOF once the clip is exhausted.
type FileSource struct {
	sampleRate int
	opts       FileSourceOptions
	pcm        []int16

	mu      sync.Mutex
	pos     int
	started bool
	closed  bool
}

// NewFileSource decodes path and converts it to mono at sampleRate.
func NewFileSource(path string, sampleRate int, opts FileSourceOptions) (*FileSource, error) {
	clip, err := audio.DecodeFile(path)
	if err != nil {
		return nil, err
	}
	src, err := NewClipSource(clip, sampleRate, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Printf("[FileSource] Loaded %s: %.1fs at %d Hz", path, clip.Duration(), clip.SampleRate)
	return src, nil
}

// NewClipSource wraps an already decoded clip.
func NewClipSource(clip *audio.Clip, sampleRate int, opts FileSourceOptions) (*FileSource, error) {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	samples, err := audio.Resample(clip.Samples, clip.SampleRate, sampleRate)
	if err != nil {
		return nil, err
	}
	return &FileSource{
		sampleRate: sampleRate,
		opts:       opts,
		pcm:        audio.ToPCM(samples),
	}, nil
}

func (s *FileSource) SampleRate() int {
	return s.sampleRate
}

// Len is the clip length in samples.
func (s *FileSource) Len() int {
	return len(s.pcm)
}

func (s *FileSource) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrDeviceClosed
	}
	s.started = true
	return nil
}

func (s *FileSource) Read(ctx context.Context, buf []int16) (int, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, ErrDeviceClosed
	}
	if !s.started {
		s.mu.Unlock()
		return 0, &ReadError{Code: CodeInvalidOperation}
	}
	if s.pos >= len(s.pcm) {
		if !s.opts.Loop || len(s.pcm) == 0 {
			s.mu.Unlock()
			return 0, io.EOF
		}
		s.pos = 0
	}
	n := copy(buf, s.pcm[s.pos:])
	s.pos += n
	s.mu.Unlock()

	if s.opts.Realtime {
		d := time.Duration(n) * time.Second / time.Duration(s.sampleRate)
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(d):
		}
	}
	return n, nil
}

// Stop pauses the source; the read position is kept.
func (s *FileSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = false
	return nil
}

func (s *FileSource) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.pcm = nil
	return nil
}

// Rewind moves the read position back to the start of the clip.
func (s *FileSource) Rewind() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pos = 0
}

var _ Source = (*FileSource)(nil)

// Package playback plays captured snapshots and exports them as WAV files.
package playback

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/realtime-ai/audioscene/pkg/audio"
	"github.com/realtime-ai/audioscene/pkg/device"
	"github.com/realtime-ai/audioscene/pkg/trace"
)

// Export tags used for the analyzer's snapshots.
const (
	TagRaw      = "raw"
	TagDenoised = "denoised"
)

// DefaultReleaseMargin is added to the playback duration before the device
// is released.
const DefaultReleaseMargin = 200 * time.Millisecond

var (
	// ErrEmptySnapshot is returned for a nil or empty buffer.
	ErrEmptySnapshot = errors.New("empty buffer")
	// ErrExport wraps I/O failures while writing the WAV file.
	ErrExport = errors.New("export failed")
)

// Snapshots exposes the buffers of the most recent cycle.
// *capture.Analyzer satisfies it.
type Snapshots interface {
	LastRaw() []float32
	LastProcessed() []float32
}

// Config configures a Service.
type Config struct {
	// Sink plays buffers. Nil exports without playing.
	Sink       device.Sink
	Dir        string
	SampleRate int
	// ReleaseMargin defaults to DefaultReleaseMargin.
	ReleaseMargin time.Duration
	// Now defaults to time.Now; used for file names.
	Now func() time.Time
	// Uploader, when set, receives every exported file. Upload failures
	// are logged and do not fail the export.
	Uploader Uploader
}

// Service plays snapshots and writes them to Dir.
type Service struct {
	cfg    Config
	create func(name string) (*os.File, error)
}

// NewService creates a Service. Dir is created on first export.
func NewService(cfg Config) *Service {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = device.DefaultSampleRate
	}
	if cfg.ReleaseMargin <= 0 {
		cfg.ReleaseMargin = DefaultReleaseMargin
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Dir == "" {
		cfg.Dir = "."
	}
	return &Service{cfg: cfg, create: os.Create}
}

// PlayAndExport plays samples and writes them to {tag}_{unixMillis}.wav.
// The playback is released on a timer once it should have finished.
func (s *Service) PlayAndExport(ctx context.Context, samples []float32, tag string) (string, error) {
	if len(samples) == 0 {
		return "", ErrEmptySnapshot
	}
	pcm := audio.ToPCM(samples)

	if s.cfg.Sink != nil {
		pb, err := s.cfg.Sink.Play(pcm, s.cfg.SampleRate)
		if err != nil {
			return "", fmt.Errorf("failed to start playback: %w", err)
		}
		s.scheduleRelease(pb, len(pcm))
	}

	return s.export(ctx, pcm, tag)
}

// PlayRawAndExport plays and exports the last raw snapshot.
func (s *Service) PlayRawAndExport(ctx context.Context, src Snapshots) (string, error) {
	return s.PlayAndExport(ctx, src.LastRaw(), TagRaw)
}

// PlayProcessedAndExport plays and exports the last denoised snapshot.
func (s *Service) PlayProcessedAndExport(ctx context.Context, src Snapshots) (string, error) {
	return s.PlayAndExport(ctx, src.LastProcessed(), TagDenoised)
}

// SaveBuffers writes both snapshots without playing them.
func (s *Service) SaveBuffers(ctx context.Context, raw, processed []float32) (rawPath, processedPath string, err error) {
	if len(raw) == 0 || len(processed) == 0 {
		return "", "", ErrEmptySnapshot
	}
	if rawPath, err = s.export(ctx, audio.ToPCM(raw), TagRaw); err != nil {
		return "", "", err
	}
	if processedPath, err = s.export(ctx, audio.ToPCM(processed), TagDenoised); err != nil {
		return rawPath, "", err
	}
	return rawPath, processedPath, nil
}

// PlaybackDuration estimates how long count samples play at rate, plus margin.
func PlaybackDuration(count, rate int, margin time.Duration) time.Duration {
	return time.Duration(int64(count)*1000/int64(rate))*time.Millisecond + margin
}

func (s *Service) scheduleRelease(pb device.Playback, count int) {
	d := PlaybackDuration(count, s.cfg.SampleRate, s.cfg.ReleaseMargin)
	time.AfterFunc(d, func() {
		if err := pb.Release(); err != nil {
			log.Printf("[Playback] Release failed: %v", err)
		}
	})
}

func (s *Service) export(ctx context.Context, pcm []int16, tag string) (string, error) {
	ctx, span := trace.InstrumentExport(ctx, tag, len(pcm))
	defer span.End()

	path, err := s.writeFile(pcm, tag)
	if err != nil {
		trace.RecordError(span, err)
		trace.Logf(ctx, "[Playback] %v", err)
		return "", err
	}
	trace.Logf(ctx, "[Playback] Exported %d samples to %s", len(pcm), path)

	if s.cfg.Uploader != nil {
		loc, err := s.cfg.Uploader.Upload(ctx, path)
		if err != nil {
			trace.RecordError(span, err)
			trace.Logf(ctx, "[Playback] %v", err)
		} else {
			trace.SetAttributes(span, attribute.String("export.remote", loc))
			trace.Logf(ctx, "[Playback] Uploaded %s to %s", filepath.Base(path), loc)
		}
	}
	return path, nil
}

func (s *Service) writeFile(pcm []int16, tag string) (string, error) {
	if err := os.MkdirAll(s.cfg.Dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %w", ErrExport, err)
	}

	name := fmt.Sprintf("%s_%d.wav", tag, s.cfg.Now().UnixMilli())
	path := filepath.Join(s.cfg.Dir, name)

	f, err := s.create(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExport, err)
	}
	if err := audio.WriteWAV(f, s.cfg.SampleRate, pcm); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("%w: %w", ErrExport, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("%w: %w", ErrExport, err)
	}

	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return path, nil
}

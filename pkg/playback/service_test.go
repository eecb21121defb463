package playback

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realtime-ai/audioscene/pkg/audio"
	"github.com/realtime-ai/audioscene/pkg/device"
)

func fixedNow() time.Time {
	return time.UnixMilli(1700000000123)
}

type snapshots struct{ raw, processed []float32 }

func (s snapshots) LastRaw() []float32       { return s.raw }
func (s snapshots) LastProcessed() []float32 { return s.processed }

func TestPlayAndExport(t *testing.T) {
	dir := t.TempDir()
	sink := &device.MockSink{}
	svc := NewService(Config{Sink: sink, Dir: dir, SampleRate: 1000, ReleaseMargin: 10 * time.Millisecond, Now: fixedNow})

	path, err := svc.PlayAndExport(context.Background(), []float32{0, 0.5, -1, 2}, "raw")
	require.NoError(t, err)
	assert.Equal(t, "raw_1700000000123.wav", filepath.Base(path))

	require.Equal(t, 1, sink.PlayCount())
	assert.Equal(t, []int16{0, 16383, -32767, 32767}, sink.Played[0])
	assert.Equal(t, []int{1000}, sink.Rates)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	info, pcm, err := audio.ReadWAV(f)
	require.NoError(t, err)
	assert.Equal(t, 1000, info.SampleRate)
	assert.Equal(t, 1, info.Channels)
	assert.Equal(t, 8, info.DataLength)
	assert.Equal(t, []int16{0, 16383, -32767, 32767}, pcm)

	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(44+8), st.Size())

	// 4 samples at 1 kHz plus the margin
	require.Eventually(t, func() bool { return sink.Released() == 1 }, time.Second, 5*time.Millisecond)
}

func TestPlayAndExportEmpty(t *testing.T) {
	sink := &device.MockSink{}
	svc := NewService(Config{Sink: sink, Dir: t.TempDir()})

	_, err := svc.PlayAndExport(context.Background(), nil, "raw")
	assert.ErrorIs(t, err, ErrEmptySnapshot)
	_, err = svc.PlayAndExport(context.Background(), []float32{}, "raw")
	assert.ErrorIs(t, err, ErrEmptySnapshot)
	assert.Equal(t, 0, sink.PlayCount())

	_, err = svc.PlayRawAndExport(context.Background(), snapshots{})
	assert.ErrorIs(t, err, ErrEmptySnapshot)
}

func TestPlayAndExportFailures(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	svc := NewService(Config{Dir: filepath.Join(blocker, "sub")})
	_, err := svc.PlayAndExport(context.Background(), []float32{0.1}, "denoised")
	assert.ErrorIs(t, err, ErrExport)

	boom := errors.New("no output device")
	svc = NewService(Config{Sink: &device.MockSink{PlayErr: boom}, Dir: t.TempDir()})
	_, err = svc.PlayAndExport(context.Background(), []float32{0.1}, "raw")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrExport)
}

func TestExportRemovesPartialFile(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(Config{Dir: dir, Now: fixedNow})
	// A read-only handle makes the WAV write fail after the file exists.
	svc.create = func(name string) (*os.File, error) {
		if err := os.WriteFile(name, nil, 0o644); err != nil {
			return nil, err
		}
		return os.Open(name)
	}

	_, err := svc.PlayAndExport(context.Background(), []float32{0.1, 0.2}, TagRaw)
	assert.ErrorIs(t, err, ErrExport)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPlayProcessedAndExport(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(Config{Dir: dir, Now: fixedNow})

	path, err := svc.PlayProcessedAndExport(context.Background(), snapshots{processed: []float32{0.25}})
	require.NoError(t, err)
	assert.Equal(t, "denoised_1700000000123.wav", filepath.Base(path))
}

func TestSaveBuffers(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(Config{Dir: dir, SampleRate: 16000, Now: fixedNow})

	rawPath, processedPath, err := svc.SaveBuffers(context.Background(), []float32{0.1, 0.2}, []float32{0, 0})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "raw_1700000000123.wav"), rawPath)
	assert.Equal(t, filepath.Join(dir, "denoised_1700000000123.wav"), processedPath)

	_, _, err = svc.SaveBuffers(context.Background(), nil, []float32{1})
	assert.ErrorIs(t, err, ErrEmptySnapshot)
}

func TestPlaybackDuration(t *testing.T) {
	assert.Equal(t, 10200*time.Millisecond, PlaybackDuration(320000, 32000, DefaultReleaseMargin))
	assert.Equal(t, 200*time.Millisecond, PlaybackDuration(10, 32000, DefaultReleaseMargin))
}

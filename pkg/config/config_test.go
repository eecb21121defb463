package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realtime-ai/audioscene/pkg/denoise"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 32000, cfg.SampleRate)
	assert.Equal(t, 320000, cfg.WindowSamples())
	assert.Equal(t, 500*time.Millisecond, cfg.StopTimeout)
	assert.Equal(t, []string{"labels_zh.csv", "labels.csv"}, cfg.LabelPaths)

	mode, err := cfg.Mode()
	require.NoError(t, err)
	assert.Equal(t, denoise.ModeStandard, mode)
}

func TestDefaultTraceFromEnv(t *testing.T) {
	t.Setenv("TRACE_EXPORTER", "stdout")
	t.Setenv("TRACE_SAMPLE_RATE", "0.25")
	t.Setenv("ENVIRONMENT", "")

	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "stdout", cfg.Trace.Exporter)
	assert.Equal(t, 0.25, cfg.Trace.SampleRate)
	assert.Equal(t, "development", cfg.Trace.Environment)
}

func TestDefaultFromEnv(t *testing.T) {
	t.Setenv("AUDIOSCENE_SAMPLE_RATE", "16000")
	t.Setenv("AUDIOSCENE_STOP_TIMEOUT", "2s")
	t.Setenv("AUDIOSCENE_NOISE_MODE", "outdoor")
	t.Setenv("AUDIOSCENE_LABELS", " a.csv, ,b.csv ")
	t.Setenv("AUDIOSCENE_WINDOW_SECONDS", "not a number")

	cfg := Default()
	assert.Equal(t, 16000, cfg.SampleRate)
	assert.Equal(t, 10, cfg.WindowSeconds)
	assert.Equal(t, 2*time.Second, cfg.StopTimeout)
	assert.Equal(t, []string{"a.csv", "b.csv"}, cfg.LabelPaths)

	mode, err := cfg.Mode()
	require.NoError(t, err)
	assert.Equal(t, denoise.ModeOutdoor, mode)
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("AUDIOSCENE_EXPORT_DIR=/tmp/exports\n"), 0o644))
	t.Setenv("AUDIOSCENE_EXPORT_DIR", "")
	os.Unsetenv("AUDIOSCENE_EXPORT_DIR")

	cfg, err := Load(path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/exports", cfg.ExportDir)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.SampleRate = 0
	cfg.ChunkSamples = -1
	cfg.NoiseMode = "underwater"
	cfg.LabelPaths = nil
	cfg.Trace.Exporter = "jaeger"
	cfg.Trace.SampleRate = 2

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sample rate")
	assert.Contains(t, err.Error(), "chunk size")
	assert.Contains(t, err.Error(), "underwater")
	assert.Contains(t, err.Error(), "label file")
	assert.Contains(t, err.Error(), "jaeger")
	assert.Contains(t, err.Error(), "sample rate must be within")
}

func TestLoadFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audioscene.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
window_seconds: 5
stop_timeout: 1500ms
noise_mode: meeting
labels: [custom.csv]
history_dir: /var/lib/audioscene
s3:
  bucket: clips
  endpoint: http://localhost:9000
metrics_addr: ":9090"
trace:
  exporter: otlp
  endpoint: collector:4317
`), 0o644))

	cfg := Default()
	require.NoError(t, cfg.LoadFile(path))
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 5, cfg.WindowSeconds)
	assert.Equal(t, 32000, cfg.SampleRate)
	assert.Equal(t, 1500*time.Millisecond, cfg.StopTimeout)
	assert.Equal(t, []string{"custom.csv"}, cfg.LabelPaths)
	assert.Equal(t, "/var/lib/audioscene", cfg.HistoryDir)
	assert.Equal(t, "clips", cfg.S3.Bucket)
	assert.Equal(t, "exports", cfg.S3.Prefix)
	assert.Equal(t, "http://localhost:9000", cfg.S3.Endpoint)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Equal(t, "otlp", cfg.Trace.Exporter)
	assert.Equal(t, "collector:4317", cfg.Trace.Endpoint)
	assert.Equal(t, 1.0, cfg.Trace.SampleRate)

	mode, err := cfg.Mode()
	require.NoError(t, err)
	assert.Equal(t, denoise.ModeMeeting, mode)
}

func TestLoadFileErrors(t *testing.T) {
	cfg := Default()
	assert.ErrorIs(t, cfg.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")), os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("window_seconds: [1, 2"), 0o644))
	assert.Error(t, cfg.LoadFile(path))
}

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realtime-ai/audioscene/pkg/classifier"
	"github.com/realtime-ai/audioscene/pkg/config"
	"github.com/realtime-ai/audioscene/pkg/playback"
)

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "audioscene.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("noise_mode: outdoor\nmodel: from-yaml.onnx\nwindow_seconds: 4\n"), 0o644))
	t.Setenv("AUDIOSCENE_WINDOW_SECONDS", "8")

	cli := &CLI{
		Config:     yamlPath,
		Env:        []string{filepath.Join(dir, "missing.env")},
		Model:      "from-flag.onnx",
		LabelFiles: []string{"x.csv"},
	}
	cfg, err := cli.load()
	require.NoError(t, err)

	assert.Equal(t, "from-flag.onnx", cfg.ModelPath)
	assert.Equal(t, "outdoor", cfg.NoiseMode)
	assert.Equal(t, 4, cfg.WindowSeconds)
	assert.Equal(t, []string{"x.csv"}, cfg.LabelPaths)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cli := &CLI{NoiseMode: "underwater"}
	_, err := cli.load()
	assert.Error(t, err)
}

func TestNewUploader(t *testing.T) {
	cfg := config.Default()
	cfg.S3.Bucket = ""
	assert.Nil(t, newUploader(cfg))

	cfg.S3.Bucket = "clips"
	cfg.S3.Endpoint = "http://localhost:9000"
	up := newUploader(cfg)
	require.NotNil(t, up)
	assert.IsType(t, &playback.S3Uploader{}, up)
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := newPrinter(&buf)

	p.OnStatus("listening")
	p.OnResult(&classifier.Result{
		Predictions: []classifier.Prediction{{Label: "Speech", Confidence: 0.93}},
		Scene:       &classifier.SceneClassification{Scene: "meeting"},
	})
	p.OnError("capture failed: device lost")

	select {
	case <-p.stopped:
		t.Fatal("stopped before the loop ended")
	default:
	}

	p.OnStatus("stopped")
	p.OnStatus("stopped")
	<-p.stopped

	out := buf.String()
	assert.Contains(t, out, "listening")
	assert.Contains(t, out, "meeting")
	assert.Contains(t, out, "Speech")
	assert.Contains(t, out, "(0.93)")
	assert.Contains(t, out, "device lost")
}

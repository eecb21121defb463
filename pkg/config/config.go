// Package config holds runtime settings for the listener. Values come from
// the environment (optionally seeded from .env files), may be overlaid by a
// YAML file and can be overridden on the command line.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/realtime-ai/audioscene/pkg/denoise"
)

// Config is the listener configuration.
type Config struct {
	SampleRate    int           `yaml:"sample_rate"`
	WindowSeconds int           `yaml:"window_seconds"`
	ChunkSamples  int           `yaml:"chunk_samples"`
	StopTimeout   time.Duration `yaml:"stop_timeout"`
	MinAmplitude  float64       `yaml:"min_amplitude"`
	NoiseMode     string        `yaml:"noise_mode"`

	ModelPath   string   `yaml:"model"`
	LibraryPath string   `yaml:"onnxruntime_lib"`
	LabelPaths  []string `yaml:"labels"`
	Threads     int      `yaml:"threads"`

	ExportDir  string `yaml:"export_dir"`
	HistoryDir string `yaml:"history_dir"`

	// S3 upload of exports is enabled when Bucket is set.
	S3 S3Config `yaml:"s3"`

	// MetricsAddr serves Prometheus metrics when non-empty, e.g. ":9090".
	MetricsAddr string `yaml:"metrics_addr"`

	Trace TraceConfig `yaml:"trace"`
}

// TraceConfig selects the span exporter.
type TraceConfig struct {
	// Exporter is "none", "stdout" or "otlp".
	Exporter    string  `yaml:"exporter"`
	Endpoint    string  `yaml:"endpoint"`
	Environment string  `yaml:"environment"`
	SampleRate  float64 `yaml:"sample_rate"`
}

// S3Config locates the bucket exports are copied to.
type S3Config struct {
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
}

// Default returns the configuration derived from the environment.
func Default() *Config {
	return &Config{
		SampleRate:    getEnvInt("AUDIOSCENE_SAMPLE_RATE", 32000),
		WindowSeconds: getEnvInt("AUDIOSCENE_WINDOW_SECONDS", 10),
		ChunkSamples:  getEnvInt("AUDIOSCENE_CHUNK_SAMPLES", 1024),
		StopTimeout:   getEnvDuration("AUDIOSCENE_STOP_TIMEOUT", 500*time.Millisecond),
		MinAmplitude:  getEnvFloat("AUDIOSCENE_MIN_AMPLITUDE", 1e-4),
		NoiseMode:     getEnv("AUDIOSCENE_NOISE_MODE", "standard"),
		ModelPath:     getEnv("AUDIOSCENE_MODEL", "passt.onnx"),
		LibraryPath:   getEnv("ONNXRUNTIME_LIB", ""),
		LabelPaths:    getEnvList("AUDIOSCENE_LABELS", []string{"labels_zh.csv", "labels.csv"}),
		Threads:       getEnvInt("AUDIOSCENE_THREADS", 1),
		ExportDir:     getEnv("AUDIOSCENE_EXPORT_DIR", "."),
		HistoryDir:    getEnv("AUDIOSCENE_HISTORY_DIR", ""),
		S3: S3Config{
			Bucket:   getEnv("AUDIOSCENE_S3_BUCKET", ""),
			Prefix:   getEnv("AUDIOSCENE_S3_PREFIX", "exports"),
			Region:   getEnv("AWS_REGION", "us-east-1"),
			Endpoint: getEnv("AUDIOSCENE_S3_ENDPOINT", ""),
		},
		MetricsAddr: getEnv("AUDIOSCENE_METRICS_ADDR", ""),
		Trace: TraceConfig{
			Exporter:    getEnv("TRACE_EXPORTER", "none"),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Environment: getEnv("ENVIRONMENT", "development"),
			SampleRate:  getEnvFloat("TRACE_SAMPLE_RATE", 1),
		},
	}
}

// Load reads the given .env files (missing files are ignored) and returns
// Default. Variables already set in the environment take precedence.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return Default(), nil
}

// LoadFile overlays the YAML file at path onto c. Keys absent from the file
// keep their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// Mode parses NoiseMode.
func (c *Config) Mode() (denoise.Mode, error) {
	return denoise.ParseMode(c.NoiseMode)
}

// Validate checks the configuration for unusable values.
func (c *Config) Validate() error {
	var errs []error
	if c.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sample rate must be positive, got %d", c.SampleRate))
	}
	if c.WindowSeconds <= 0 {
		errs = append(errs, fmt.Errorf("window must be positive, got %ds", c.WindowSeconds))
	}
	if c.ChunkSamples <= 0 {
		errs = append(errs, fmt.Errorf("chunk size must be positive, got %d", c.ChunkSamples))
	}
	if c.StopTimeout <= 0 {
		errs = append(errs, fmt.Errorf("stop timeout must be positive, got %v", c.StopTimeout))
	}
	if c.MinAmplitude < 0 {
		errs = append(errs, fmt.Errorf("minimum amplitude must not be negative, got %g", c.MinAmplitude))
	}
	if _, err := c.Mode(); err != nil {
		errs = append(errs, err)
	}
	if len(c.LabelPaths) == 0 {
		errs = append(errs, errors.New("at least one label file is required"))
	}
	switch c.Trace.Exporter {
	case "none", "stdout", "otlp":
	default:
		errs = append(errs, fmt.Errorf("unsupported trace exporter %q", c.Trace.Exporter))
	}
	if c.Trace.SampleRate < 0 || c.Trace.SampleRate > 1 {
		errs = append(errs, fmt.Errorf("trace sample rate must be within [0, 1], got %g", c.Trace.SampleRate))
	}
	if c.S3.Bucket != "" && c.S3.Region == "" {
		errs = append(errs, errors.New("s3 region is required when a bucket is set"))
	}
	return errors.Join(errs...)
}

// WindowSamples is the number of samples in one classification window.
func (c *Config) WindowSamples() int {
	return c.SampleRate * c.WindowSeconds
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, p := range strings.Split(value, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Command audioscene listens to the microphone, classifies the acoustic
// scene of a sliding window and adapts noise reduction to it.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/alecthomas/kong"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/realtime-ai/audioscene/pkg/capture"
	"github.com/realtime-ai/audioscene/pkg/classifier"
	"github.com/realtime-ai/audioscene/pkg/config"
	"github.com/realtime-ai/audioscene/pkg/device"
	"github.com/realtime-ai/audioscene/pkg/playback"
	"github.com/realtime-ai/audioscene/pkg/trace"
)

var version = "0.1.0"

// CLI defines the command-line interface.
type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version information."`
	Config  string           `short:"c" type:"path" help:"YAML config file overlaid on the environment."`
	Env     []string         `help:".env files to load." default:".env"`

	Model      string   `help:"ONNX model path." placeholder:"PATH"`
	LabelFiles []string `name:"label-file" help:"Label CSV candidates, tried in order." placeholder:"PATH"`
	NoiseMode  string   `help:"Initial noise mode: standard, meeting or outdoor." placeholder:"MODE"`
	SampleRate int      `help:"Capture sample rate in Hz." placeholder:"HZ"`

	Listen  ListenCmd  `cmd:"" default:"1" help:"Stream from the microphone until interrupted."`
	File    FileCmd    `cmd:"" help:"Stream an audio file (wav, aiff, mp3, ogg) through the pipeline."`
	Once    OnceCmd    `cmd:"" help:"Record one window and classify it."`
	Labels  LabelsCmd  `cmd:"" help:"Show the label table and scene rules."`
	History HistoryCmd `cmd:"" help:"Print stored classification history."`
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("audioscene"),
		kong.Description("Adaptive acoustic-scene listener"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
		kong.Help(styledHelp),
	)

	cfg, err := cli.load()
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}

	err = ctx.Run(cfg)
	ctx.FatalIfErrorf(err)
}

// load builds the configuration: environment and .env files first, then the
// YAML file, then flags.
func (c *CLI) load() (*config.Config, error) {
	cfg, err := config.Load(c.Env...)
	if err != nil {
		return nil, err
	}
	if c.Config != "" {
		if err := cfg.LoadFile(c.Config); err != nil {
			return nil, err
		}
	}
	if c.Model != "" {
		cfg.ModelPath = c.Model
	}
	if len(c.LabelFiles) > 0 {
		cfg.LabelPaths = c.LabelFiles
	}
	if c.NoiseMode != "" {
		cfg.NoiseMode = c.NoiseMode
	}
	if c.SampleRate > 0 {
		cfg.SampleRate = c.SampleRate
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newModel(cfg *config.Config) *classifier.Model {
	return classifier.NewModel(classifier.ModelConfig{
		LoadBackend: func() (classifier.Backend, error) {
			return classifier.NewONNXBackend(classifier.ONNXConfig{
				ModelPath:   cfg.ModelPath,
				LibraryPath: cfg.LibraryPath,
				Threads:     cfg.Threads,
			})
		},
		LabelPaths:  cfg.LabelPaths,
		InputLength: cfg.WindowSamples(),
	})
}

func newAnalyzer(cfg *config.Config, src device.Source, metrics *trace.Metrics) (*capture.Analyzer, error) {
	mode, err := cfg.Mode()
	if err != nil {
		return nil, err
	}
	return capture.NewAnalyzer(capture.Config{
		Source:        src,
		Model:         newModel(cfg),
		WindowSeconds: cfg.WindowSeconds,
		ChunkSamples:  cfg.ChunkSamples,
		StopTimeout:   cfg.StopTimeout,
		MinAmplitude:  cfg.MinAmplitude,
		InitialMode:   mode,
		Metrics:       metrics,
	})
}

// newUploader returns nil when no bucket is configured. Credentials come from
// the standard AWS environment variables.
func newUploader(cfg *config.Config) playback.Uploader {
	if cfg.S3.Bucket == "" {
		return nil
	}
	opts := s3.Options{
		Region: cfg.S3.Region,
		Credentials: aws.NewCredentialsCache(aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
				SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
				SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
				Source:          "environment",
			}, nil
		})),
	}
	if cfg.S3.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.S3.Endpoint)
		opts.UsePathStyle = true
	}
	log.Printf("[Main] Uploading exports to s3://%s/%s", cfg.S3.Bucket, cfg.S3.Prefix)
	return playback.NewS3Uploader(s3.New(opts), cfg.S3.Bucket, cfg.S3.Prefix)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/realtime-ai/audioscene/pkg/capture"
	"github.com/realtime-ai/audioscene/pkg/classifier"
	"github.com/realtime-ai/audioscene/pkg/config"
	"github.com/realtime-ai/audioscene/pkg/device"
	"github.com/realtime-ai/audioscene/pkg/history"
	"github.com/realtime-ai/audioscene/pkg/pipeline"
	"github.com/realtime-ai/audioscene/pkg/playback"
	"github.com/realtime-ai/audioscene/pkg/trace"
)

// drainTimeout bounds the wait for the last inference once input has ended.
const drainTimeout = 30 * time.Second

// ListenCmd streams from the default microphone.
type ListenCmd struct {
	Export      bool   `help:"Save the last raw and denoised windows on exit."`
	Play        bool   `help:"Play the last denoised window on exit (implies --export)."`
	ExportDir   string `help:"Directory for exported WAV files." placeholder:"DIR"`
	HistoryDir  string `help:"Store every result in this Badger directory." placeholder:"DIR"`
	MetricsAddr string `help:"Serve Prometheus metrics on this address, e.g. :9090." placeholder:"ADDR"`
}

func (c *ListenCmd) Run(cfg *config.Config) error {
	c.apply(cfg)
	src, err := device.NewMalgoSource(cfg.SampleRate)
	if err != nil {
		return err
	}
	return stream(cfg, src, c.Export || c.Play, c.Play)
}

func (c *ListenCmd) apply(cfg *config.Config) {
	if c.ExportDir != "" {
		cfg.ExportDir = c.ExportDir
	}
	if c.HistoryDir != "" {
		cfg.HistoryDir = c.HistoryDir
	}
	if c.MetricsAddr != "" {
		cfg.MetricsAddr = c.MetricsAddr
	}
}

// FileCmd streams a decoded audio file as if it were the microphone.
type FileCmd struct {
	ListenCmd `embed:""`
	Path      string `arg:"" type:"existingfile" help:"Audio file to analyze."`
	Realtime  bool   `help:"Pace reads at the capture rate."`
	Loop      bool   `help:"Restart at the end of the file until interrupted."`
}

func (c *FileCmd) Run(cfg *config.Config) error {
	c.apply(cfg)
	src, err := device.NewFileSource(c.Path, cfg.SampleRate, device.FileSourceOptions{
		Realtime: c.Realtime,
		Loop:     c.Loop,
	})
	if err != nil {
		return err
	}
	log.Printf("[Main] Streaming %s (%d samples at %d Hz)", c.Path, src.Len(), cfg.SampleRate)
	return stream(cfg, src, c.Export || c.Play, c.Play)
}

func traceConfig(cfg *config.Config) trace.Config {
	return trace.Config{
		ServiceName:    "audioscene",
		ServiceVersion: version,
		Environment:    cfg.Trace.Environment,
		Exporter:       cfg.Trace.Exporter,
		Endpoint:       cfg.Trace.Endpoint,
		SampleRate:     cfg.Trace.SampleRate,
	}
}

// stream runs the analyzer until a signal arrives or the source ends.
func stream(cfg *config.Config, src device.Source, export, play bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := trace.Initialize(ctx, traceConfig(cfg)); err != nil {
		return err
	}
	defer trace.Shutdown(context.Background())

	g, gctx := errgroup.WithContext(ctx)

	if cfg.MetricsAddr != "" {
		mp, err := trace.InitMetrics(ctx, "audioscene")
		if err != nil {
			return err
		}
		defer mp.Shutdown(context.Background())

		mux := http.NewServeMux()
		mux.Handle("/metrics", mp.Handler())
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			log.Printf("[Main] Serving metrics on %s/metrics", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	analyzer, err := newAnalyzer(cfg, src, trace.DefaultMetrics())
	if err != nil {
		return err
	}
	defer analyzer.Release()

	out := newPrinter(os.Stdout)
	listeners := pipeline.Listeners{out}

	if cfg.HistoryDir != "" {
		store, err := history.Open(history.Options{Dir: cfg.HistoryDir})
		if err != nil {
			return err
		}
		defer store.Close()
		rec := history.NewRecorder(store, analyzer.SessionID)
		defer rec.Flush()
		listeners = append(listeners, rec)
	}

	if err := analyzer.Start(listeners); err != nil {
		return err
	}

	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-out.stopped:
			waitIdle(analyzer)
		}
		analyzer.Stop()
		stop()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	if export {
		return exportLast(cfg, analyzer, play)
	}
	return nil
}

// waitIdle lets the final window's classification finish after the source
// has ended on its own.
func waitIdle(a *capture.Analyzer) {
	deadline := time.Now().Add(drainTimeout)
	for a.InferenceInFlight() && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	// notifications are delivered asynchronously
	time.Sleep(50 * time.Millisecond)
}

func exportLast(cfg *config.Config, a *capture.Analyzer, play bool) error {
	svcCfg := playback.Config{
		Dir:        cfg.ExportDir,
		SampleRate: a.SampleRate(),
		Uploader:   newUploader(cfg),
	}
	ctx := context.Background()

	if !play {
		raw, processed := a.LastSnapshots()
		rawPath, processedPath, err := playback.NewService(svcCfg).SaveBuffers(ctx, raw, processed)
		if err != nil {
			return err
		}
		printKV(os.Stdout, "raw", rawPath)
		printKV(os.Stdout, "denoised", processedPath)
		return nil
	}

	sink, err := device.NewMalgoSink()
	if err != nil {
		return err
	}
	defer sink.Close()
	svcCfg.Sink = sink
	svc := playback.NewService(svcCfg)

	path, err := svc.PlayProcessedAndExport(ctx, a)
	if err != nil {
		return err
	}
	printKV(os.Stdout, "denoised", path)
	// keep the process alive until playback has been released
	time.Sleep(playback.PlaybackDuration(len(a.LastProcessed()), a.SampleRate(), playback.DefaultReleaseMargin))
	return nil
}

// printer renders notifications to the terminal and reports when the capture
// loop has stopped on its own.
type printer struct {
	w       io.Writer
	once    sync.Once
	stopped chan struct{}
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w, stopped: make(chan struct{})}
}

func (p *printer) OnResult(r *classifier.Result) {
	printResult(p.w, r)
}

func (p *printer) OnStatus(s string) {
	fmt.Fprintln(p.w, statusStyle.Render("· "+s))
	if s == "stopped" {
		p.once.Do(func() { close(p.stopped) })
	}
}

func (p *printer) OnError(msg string) {
	if strings.HasPrefix(msg, "capture failed") {
		fmt.Fprintln(p.w, errorStyle.Render("✗ "+msg))
		return
	}
	fmt.Fprintln(p.w, statusStyle.Render("! "+msg))
}

func (p *printer) OnInferenceTime(int64) {}

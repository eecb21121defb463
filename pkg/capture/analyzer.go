// Package capture drives the streaming listen loop: device chunks go into a
// sliding window, and once the window is full each cycle gates, denoises and
// submits a snapshot for classification.
package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/realtime-ai/audioscene/pkg/audio"
	"github.com/realtime-ai/audioscene/pkg/classifier"
	"github.com/realtime-ai/audioscene/pkg/denoise"
	"github.com/realtime-ai/audioscene/pkg/device"
	"github.com/realtime-ai/audioscene/pkg/inference"
	"github.com/realtime-ai/audioscene/pkg/pipeline"
	"github.com/realtime-ai/audioscene/pkg/scene"
	"github.com/realtime-ai/audioscene/pkg/trace"
)

const (
	// DefaultWindowSeconds is the classification window length.
	DefaultWindowSeconds = 10
	// DefaultStopTimeout bounds how long Stop waits for the capture goroutine.
	DefaultStopTimeout = 500 * time.Millisecond
)

var (
	// ErrBusy is returned by CaptureAndClassify while streaming.
	ErrBusy = errors.New("analyzer is streaming")
	// ErrReleased is returned after Release.
	ErrReleased = errors.New("analyzer released")
)

// State is the streaming state.
type State int32

const (
	StateIdle State = iota
	StateStreaming
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateStopping:
		return "stopping"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Model is what the analyzer needs from a classifier. *classifier.Model
// satisfies it.
type Model interface {
	inference.Classifier
	BackendName() (string, error)
	Close() error
}

// Config configures an Analyzer.
type Config struct {
	Source device.Source
	Model  Model

	// WindowSeconds defaults to DefaultWindowSeconds.
	WindowSeconds int
	// ChunkSamples defaults to device.DefaultChunkSamples.
	ChunkSamples int
	// StopTimeout defaults to DefaultStopTimeout.
	StopTimeout time.Duration
	// MinAmplitude defaults to audio.MinAvgAmplitude.
	MinAmplitude float64
	// InitialMode is the noise mode before the first scene is known.
	InitialMode denoise.Mode

	Metrics *trace.Metrics
}

func (c *Config) withDefaults() {
	if c.WindowSeconds <= 0 {
		c.WindowSeconds = DefaultWindowSeconds
	}
	if c.ChunkSamples <= 0 {
		c.ChunkSamples = device.DefaultChunkSamples
	}
	if c.StopTimeout <= 0 {
		c.StopTimeout = DefaultStopTimeout
	}
	if c.MinAmplitude <= 0 {
		c.MinAmplitude = audio.MinAvgAmplitude
	}
}

// Analyzer owns the capture device, the sliding window and the inference
// worker.
type Analyzer struct {
	cfg        Config
	sampleRate int

	bus        pipeline.Bus
	window     *audio.Window
	gate       audio.AmplitudeGate
	controller *scene.Controller
	scheduler  *inference.Scheduler

	mu       sync.Mutex
	state    atomic.Int32
	released bool
	cancel   context.CancelFunc
	done     chan struct{}
	// owned is held by whoever tears the current session down: the capture
	// goroutine on its way out, or Stop after a timeout.
	owned     *atomic.Bool
	notifier  *pipeline.Notifier
	sessionID atomic.Value

	last atomic.Pointer[snapshotPair]
}

// snapshotPair is one cycle's window before and after denoising, stored as a
// unit so readers never mix cycles.
type snapshotPair struct {
	raw       []float32
	processed []float32
	mode      denoise.Mode
}

// NewAnalyzer wires the pipeline. Nothing touches the device or the model
// until Start or CaptureAndClassify.
func NewAnalyzer(cfg Config) (*Analyzer, error) {
	if cfg.Source == nil {
		return nil, errors.New("capture: source is required")
	}
	if cfg.Model == nil {
		return nil, errors.New("capture: model is required")
	}
	cfg.withDefaults()

	a := &Analyzer{
		cfg:        cfg,
		sampleRate: cfg.Source.SampleRate(),
		bus:        pipeline.NewEventBus(),
		gate:       audio.NewAmplitudeGate(cfg.MinAmplitude),
		controller: scene.NewController(),
	}
	a.window = audio.NewWindow(a.sampleRate, cfg.WindowSeconds)
	a.controller.Set(cfg.InitialMode)
	a.scheduler = inference.NewScheduler(inference.Config{
		Classifier: cfg.Model,
		Bus:        a.bus,
		Metrics:    cfg.Metrics,
		OnComplete: a.onResult,
	})
	return a, nil
}

// State returns the current streaming state.
func (a *Analyzer) State() State {
	return State(a.state.Load())
}

// SampleRate is the capture rate.
func (a *Analyzer) SampleRate() int {
	return a.sampleRate
}

// WindowSamples is the snapshot length.
func (a *Analyzer) WindowSamples() int {
	return a.window.Capacity()
}

// Mode returns the noise mode the next cycle will apply.
func (a *Analyzer) Mode() denoise.Mode {
	return a.controller.Mode()
}

// InferenceInFlight reports whether a classification is running.
func (a *Analyzer) InferenceInFlight() bool {
	return a.scheduler.InFlight()
}

// SessionID identifies the current or most recent streaming session.
func (a *Analyzer) SessionID() string {
	id, _ := a.sessionID.Load().(string)
	return id
}

// LastRaw returns the most recent snapshot that passed the amplitude gate, or
// the window recorded by CaptureAndClassify.
func (a *Analyzer) LastRaw() []float32 {
	raw, _ := a.LastSnapshots()
	return raw
}

// LastProcessed returns the denoised version of LastRaw.
func (a *Analyzer) LastProcessed() []float32 {
	_, processed := a.LastSnapshots()
	return processed
}

// LastSnapshots returns LastRaw and LastProcessed from the same cycle.
func (a *Analyzer) LastSnapshots() (raw, processed []float32) {
	if p := a.last.Load(); p != nil {
		return p.raw, p.processed
	}
	return nil, nil
}

// Start begins streaming and delivers notifications to listener. It is a
// no-op while already streaming. Listener methods must not call Stop or
// Release.
func (a *Analyzer) Start(listener pipeline.Listener) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.released {
		return ErrReleased
	}
	if a.State() != StateIdle {
		return nil
	}
	// the previous loop may have ended on its own
	a.stopLocked()

	backend, err := a.cfg.Model.BackendName()
	if err != nil {
		return err
	}
	if err := a.cfg.Source.Start(); err != nil {
		return fmt.Errorf("failed to start capture: %w", err)
	}

	sessionID := uuid.New().String()
	a.sessionID.Store(sessionID)
	a.window.Reset()
	if listener != nil {
		a.notifier = pipeline.NewNotifier(a.bus, listener, 0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.done = make(chan struct{})
	a.owned = &atomic.Bool{}
	a.owned.Store(true)
	a.state.Store(int32(StateStreaming))

	log.Printf("[Analyzer] Streaming started, session %s, backend %s", sessionID, backend)
	a.publish(pipeline.EventStatus, "listening")
	a.publish(pipeline.EventStatus, "inference backend: "+backend)

	go a.run(ctx, sessionID, a.done, a.owned)
	return nil
}

// Stop signals the capture goroutine and waits at most StopTimeout for it.
// In-flight inference is detached; its late events are dropped.
func (a *Analyzer) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLocked()
}

func (a *Analyzer) stopLocked() {
	if a.cancel == nil {
		return
	}
	a.state.CompareAndSwap(int32(StateStreaming), int32(StateStopping))
	a.cancel()

	select {
	case <-a.done:
	case <-time.After(a.cfg.StopTimeout):
		if a.owned.CompareAndSwap(true, false) {
			// the goroutine is stuck in Read; it exits without touching the
			// next session once the read returns
			log.Printf("[Analyzer] Capture goroutine did not exit within %v", a.cfg.StopTimeout)
			a.teardown()
		} else {
			<-a.done
		}
	}

	if a.notifier != nil {
		a.notifier.Close()
		a.notifier = nil
	}
	a.cancel = nil
	a.state.Store(int32(StateIdle))
}

// Release stops streaming, shuts down the inference worker and frees the
// device and the model.
func (a *Analyzer) Release() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.released {
		return nil
	}
	a.stopLocked()
	a.released = true
	a.scheduler.Close()

	return errors.Join(a.cfg.Source.Release(), a.cfg.Model.Close())
}

func (a *Analyzer) run(ctx context.Context, sessionID string, done chan struct{}, owned *atomic.Bool) {
	defer close(done)
	defer func() {
		if owned.CompareAndSwap(true, false) {
			a.teardown()
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Analyzer] Capture loop panic: %v", r)
			a.publish(pipeline.EventError, fmt.Sprintf("capture failed: %v", r))
		}
	}()

	buf := make([]int16, a.cfg.ChunkSamples)
	for ctx.Err() == nil {
		n, err := a.cfg.Source.Read(ctx, buf)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, io.EOF) {
				a.publish(pipeline.EventStatus, "end of input")
				return
			}
			if device.IsTransient(err) {
				a.publish(pipeline.EventError, err.Error())
				continue
			}
			log.Printf("[Analyzer] Capture aborted: %v", err)
			a.publish(pipeline.EventError, fmt.Sprintf("capture failed: %v", err))
			return
		}
		if n == 0 {
			continue
		}
		a.cycle(ctx, sessionID, buf[:n])
	}
}

// cycle handles one device chunk.
func (a *Analyzer) cycle(ctx context.Context, sessionID string, chunk []int16) {
	a.window.WritePCM(chunk)
	if !a.window.Filled() || a.scheduler.InFlight() {
		return
	}

	snap := a.window.Snapshot()
	mode := a.controller.Mode()
	ctx, span := trace.InstrumentSnapshot(ctx, a.sampleRate, snap.Len(), snap.MeanAbs(), mode.String())
	defer span.End()

	if err := a.gate.CheckSnapshot(snap); err != nil {
		trace.SetAttributes(span, trace.ErrorAttrs("signal_too_weak", err.Error())...)
		a.cfg.Metrics.RecordCycle(ctx, trace.OutcomeRejected)
		a.publish(pipeline.EventError, audio.ErrSignalTooWeak.Error())
		return
	}

	processed := denoise.Process(snap.Samples, mode)
	a.last.Store(&snapshotPair{raw: snap.Samples, processed: processed, mode: mode})

	if _, err := a.scheduler.TrySubmit(ctx, sessionID, processed); err != nil {
		trace.Logf(ctx, "[Analyzer] Submit failed: %v", err)
	}
}

func (a *Analyzer) teardown() {
	if err := a.cfg.Source.Stop(); err != nil {
		log.Printf("[Analyzer] Failed to stop source: %v", err)
	}
	a.state.Store(int32(StateIdle))
	a.publish(pipeline.EventStatus, "stopped")
	log.Printf("[Analyzer] Streaming stopped")
}

// onResult runs on the inference worker before the result is published.
// No new snapshot is stored while the worker is busy, so last is the one
// this result was computed from.
func (a *Analyzer) onResult(result *classifier.Result) {
	if p := a.last.Load(); p != nil {
		result.NoiseMode = p.mode.String()
	}
	mode, changed := a.controller.Apply(result)
	if changed {
		log.Printf("[Analyzer] Scene %s, noise mode %s", result.SceneName(), mode)
		a.publish(pipeline.EventStatus, "scene changed: "+result.SceneName())
	}
}

func (a *Analyzer) publish(t pipeline.EventType, payload interface{}) {
	a.bus.Publish(pipeline.Event{
		Type:      t,
		Timestamp: time.Now(),
		SessionID: a.SessionID(),
		Payload:   payload,
	})
}

// CaptureAndClassify records exactly one window of audio and classifies it
// synchronously. A read that returns no samples or io.EOF ends recording
// early and the remainder is zero-padded.
func (a *Analyzer) CaptureAndClassify(ctx context.Context) (*classifier.Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.released {
		return nil, ErrReleased
	}
	if a.State() != StateIdle {
		return nil, ErrBusy
	}

	if err := a.cfg.Source.Start(); err != nil {
		return nil, fmt.Errorf("failed to start capture: %w", err)
	}
	pcm, err := a.record(ctx)
	if stopErr := a.cfg.Source.Stop(); stopErr != nil {
		log.Printf("[Analyzer] Failed to stop source: %v", stopErr)
	}
	if err != nil {
		return nil, err
	}

	samples := audio.FromPCM(pcm)
	// Standard mode is the identity, which is what the one-shot path classifies.
	a.last.Store(&snapshotPair{raw: samples, processed: samples, mode: denoise.ModeStandard})
	result, err := a.cfg.Model.Classify(ctx, samples)
	if err != nil {
		return nil, err
	}
	result.NoiseMode = denoise.ModeStandard.String()
	return result, nil
}

func (a *Analyzer) record(ctx context.Context) ([]int16, error) {
	pcm := make([]int16, a.window.Capacity())
	total := 0
	for total < len(pcm) {
		end := min(total+a.cfg.ChunkSamples, len(pcm))
		n, err := a.cfg.Source.Read(ctx, pcm[total:end])
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("capture failed after %d samples: %w", total, err)
		}
		if n == 0 {
			log.Printf("[Analyzer] Recording ended early at %d/%d samples", total, len(pcm))
			break
		}
		total += n
	}
	return pcm, nil
}

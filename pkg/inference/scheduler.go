// Package inference runs at most one classification at a time on a
// dedicated worker goroutine.
package inference

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/realtime-ai/audioscene/pkg/classifier"
	"github.com/realtime-ai/audioscene/pkg/pipeline"
	"github.com/realtime-ai/audioscene/pkg/trace"
)

// ErrSchedulerClosed is returned by TrySubmit after Close.
var ErrSchedulerClosed = errors.New("scheduler closed")

// Classifier is the subset of classifier.Model the scheduler needs.
type Classifier interface {
	Classify(ctx context.Context, waveform []float32) (*classifier.Result, error)
}

// Admission is the outcome of TrySubmit.
type Admission int

const (
	// Accepted means the snapshot was handed to the worker.
	Accepted Admission = iota
	// Skipped means a classification was already in flight; the snapshot
	// was dropped.
	Skipped
)

func (a Admission) String() string {
	if a == Accepted {
		return "accepted"
	}
	return "skipped"
}

// Config configures a Scheduler.
type Config struct {
	Classifier Classifier
	Bus        pipeline.Bus
	Metrics    *trace.Metrics

	// OnComplete runs on the worker after every successful classification,
	// before the result is published.
	OnComplete func(*classifier.Result)
}

type job struct {
	ctx       context.Context
	sessionID string
	samples   []float32
}

// Scheduler is a single-flight front to a Classifier. TrySubmit never
// blocks: a submission made while another is in flight is dropped.
type Scheduler struct {
	cfg Config

	inFlight atomic.Bool
	jobs     chan job

	closeOnce sync.Once
	closed    chan struct{}
	wg        sync.WaitGroup
}

// NewScheduler starts the worker goroutine.
func NewScheduler(cfg Config) *Scheduler {
	s := &Scheduler{
		cfg:    cfg,
		jobs:   make(chan job, 1),
		closed: make(chan struct{}),
	}
	s.wg.Add(1)
	go s.worker()
	return s
}

// InFlight reports whether a classification is running or queued.
func (s *Scheduler) InFlight() bool {
	return s.inFlight.Load()
}

// TrySubmit hands samples to the worker when nothing is in flight.
// The caller must not modify samples after an Accepted submission.
func (s *Scheduler) TrySubmit(ctx context.Context, sessionID string, samples []float32) (Admission, error) {
	select {
	case <-s.closed:
		return Skipped, ErrSchedulerClosed
	default:
	}

	if !s.inFlight.CompareAndSwap(false, true) {
		s.cfg.Metrics.RecordCycle(ctx, trace.OutcomeSkipped)
		return Skipped, nil
	}

	// the flag guarantees the single slot is free
	s.jobs <- job{ctx: context.WithoutCancel(ctx), sessionID: sessionID, samples: samples}
	s.cfg.Metrics.RecordCycle(ctx, trace.OutcomeAccepted)
	return Accepted, nil
}

// Close stops the worker after the in-flight job, if any, completes.
func (s *Scheduler) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
	})
	s.wg.Wait()
}

func (s *Scheduler) worker() {
	defer s.wg.Done()
	for {
		select {
		case <-s.closed:
			return
		case j := <-s.jobs:
			s.run(j)
		}
	}
}

func (s *Scheduler) run(j job) {
	defer s.inFlight.Store(false)

	ctx, span := trace.InstrumentInference(j.ctx, j.sessionID, len(j.samples))
	defer span.End()

	start := time.Now()
	result, err := s.classify(ctx, j.samples)
	elapsed := time.Since(start)
	s.cfg.Metrics.RecordInference(ctx, elapsed, err)

	if err != nil {
		trace.RecordError(span, err)
		trace.Logf(ctx, "[Scheduler] Classification failed: %v", err)
		s.publish(j.sessionID, pipeline.EventError, fmt.Sprintf("inference failed: %v", err))
		return
	}
	span.SetAttributes(trace.ResultAttrs(result.SceneName(), topLabel(result))...)

	if s.cfg.OnComplete != nil {
		s.cfg.OnComplete(result)
	}

	ms := elapsed.Milliseconds()
	s.publish(j.sessionID, pipeline.EventResult, result)
	s.publish(j.sessionID, pipeline.EventInferenceTime, ms)
	s.publish(j.sessionID, pipeline.EventStatus, fmt.Sprintf("inference done in %d ms", ms))
}

func (s *Scheduler) classify(ctx context.Context, samples []float32) (result *classifier.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("classifier panic: %v", r)
		}
	}()
	result, err = s.cfg.Classifier.Classify(ctx, samples)
	if err == nil && result == nil {
		err = fmt.Errorf("%w: nil result", classifier.ErrMalformedOutput)
	}
	return result, err
}

func (s *Scheduler) publish(sessionID string, t pipeline.EventType, payload interface{}) {
	if s.cfg.Bus == nil {
		return
	}
	s.cfg.Bus.Publish(pipeline.Event{
		Type:      t,
		Timestamp: time.Now(),
		SessionID: sessionID,
		Payload:   payload,
	})
}

func topLabel(r *classifier.Result) string {
	if top, ok := r.Top(); ok {
		return top.Label
	}
	return ""
}

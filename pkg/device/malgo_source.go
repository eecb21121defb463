package device

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"

	"github.com/realtime-ai/audioscene/pkg/audio"
)

// captureQueueDepth is the number of device periods buffered between the
// malgo callback and Read.
const captureQueueDepth = 64

// MalgoSource captures from the default input device through miniaudio.
type MalgoSource struct {
	sampleRate int

	mu      sync.Mutex
	ctx     *malgo.AllocatedContext
	device  *malgo.Device
	started bool
	closed  bool

	frames   chan []byte
	pending  []int16 // owned by Read
	stale    atomic.Bool
	overruns atomic.Int64
}

// NewMalgoSource initializes the audio context. The device opens on Start.
func NewMalgoSource(sampleRate int) (*MalgoSource, error) {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize context: %w", err)
	}
	return &MalgoSource{
		sampleRate: sampleRate,
		ctx:        ctx,
		frames:     make(chan []byte, captureQueueDepth),
	}, nil
}

func (s *MalgoSource) SampleRate() int {
	return s.sampleRate
}

func (s *MalgoSource) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrDeviceClosed
	}
	if s.started {
		return nil
	}

	if s.device == nil {
		deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
		deviceConfig.PeriodSizeInMilliseconds = 20
		deviceConfig.Capture.Format = malgo.FormatS16
		deviceConfig.Capture.Channels = audio.Channels
		deviceConfig.SampleRate = uint32(s.sampleRate)
		deviceConfig.Alsa.NoMMap = 1

		device, err := malgo.InitDevice(s.ctx.Context, deviceConfig, malgo.DeviceCallbacks{
			Data: s.onData,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize capture device: %w", err)
		}
		s.device = device
	}

	if err := s.device.Start(); err != nil {
		return fmt.Errorf("failed to start capture device: %w", err)
	}
	s.started = true
	log.Printf("[Malgo] Capture started at %d Hz", s.sampleRate)
	return nil
}

// onData runs on the miniaudio thread and must not block.
func (s *MalgoSource) onData(_, inputSamples []byte, _ uint32) {
	data := make([]byte, len(inputSamples))
	copy(data, inputSamples)

	select {
	case s.frames <- data:
	default:
		s.overruns.Add(1)
	}
}

func (s *MalgoSource) Read(ctx context.Context, buf []int16) (int, error) {
	s.mu.Lock()
	started, closed := s.started, s.closed
	s.mu.Unlock()

	if closed {
		return 0, ErrDeviceClosed
	}
	if !started {
		return 0, &ReadError{Code: CodeInvalidOperation}
	}
	if s.stale.Swap(false) {
		s.pending = nil
	}
	if n := s.overruns.Swap(0); n > 0 {
		log.Printf("[Malgo] Dropped %d capture periods", n)
		return 0, &ReadError{Code: CodeOverrun}
	}

	for len(s.pending) < len(buf) {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case data := <-s.frames:
			s.pending = append(s.pending, audio.DecodePCM16LE(data)...)
		}
	}

	n := copy(buf, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

// Stop pauses the device and discards captured audio, so the next session
// starts from fresh input.
func (s *MalgoSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.started = false

	var err error
	if s.device != nil {
		err = s.device.Stop()
	}
	s.discard()
	if err != nil {
		return fmt.Errorf("failed to stop capture device: %w", err)
	}
	log.Printf("[Malgo] Capture stopped")
	return nil
}

func (s *MalgoSource) discard() {
	for {
		select {
		case <-s.frames:
		default:
			s.overruns.Store(0)
			s.stale.Store(true)
			return
		}
	}
}

func (s *MalgoSource) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.started = false

	if s.device != nil {
		s.device.Uninit()
		s.device = nil
	}
	if s.ctx != nil {
		if err := s.ctx.Uninit(); err != nil {
			log.Printf("[Malgo] Context uninit error: %v", err)
		}
		s.ctx.Free()
		s.ctx = nil
	}
	return nil
}

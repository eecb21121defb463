package device

import (
	"fmt"
	"log"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/realtime-ai/audioscene/pkg/audio"
)

// MalgoSink plays buffers on the default output device. Each Play opens a
// device at the buffer's sample rate.
type MalgoSink struct {
	ctx *malgo.AllocatedContext
}

// NewMalgoSink initializes the audio context.
func NewMalgoSink() (*MalgoSink, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize context: %w", err)
	}
	return &MalgoSink{ctx: ctx}, nil
}

// Play queues pcm and starts the device. The caller releases the returned
// Playback once the audio has drained.
func (s *MalgoSink) Play(pcm []int16, sampleRate int) (Playback, error) {
	queue := audio.NewPlayoutQueue(sampleRate, audio.Channels)
	queue.Write(audio.EncodePCM16LE(pcm))

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.PeriodSizeInMilliseconds = 20
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = audio.Channels
	deviceConfig.SampleRate = uint32(sampleRate)

	device, err := malgo.InitDevice(s.ctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: func(outputSamples, _ []byte, _ uint32) {
			queue.Fill(outputSamples)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize playback device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return nil, fmt.Errorf("failed to start playback device: %w", err)
	}

	log.Printf("[Malgo] Playing %d samples at %d Hz", len(pcm), sampleRate)
	return &malgoPlayback{device: device, queue: queue}, nil
}

// Close releases the audio context. Outstanding playbacks must be released first.
func (s *MalgoSink) Close() error {
	if s.ctx == nil {
		return nil
	}
	err := s.ctx.Uninit()
	s.ctx.Free()
	s.ctx = nil
	return err
}

type malgoPlayback struct {
	once   sync.Once
	device *malgo.Device
	queue  *audio.PlayoutQueue
}

func (p *malgoPlayback) Release() error {
	var err error
	p.once.Do(func() {
		p.queue.Clear()
		if stopErr := p.device.Stop(); stopErr != nil {
			err = fmt.Errorf("failed to stop playback device: %w", stopErr)
		}
		p.device.Uninit()
	})
	return err
}

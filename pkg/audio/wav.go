package audio

import (
	"errors"
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavBitDepth  = 16
	wavPCMFormat = 1
)

// ErrNotWavFile is returned when a file does not carry a RIFF/WAVE header.
var ErrNotWavFile = errors.New("not a WAV file")

// WAVInfo describes the header of a mono/stereo PCM WAV file.
type WAVInfo struct {
	SampleRate    int
	BitsPerSample int
	Channels      int
	// DataLength is the size of the data chunk in bytes.
	DataLength int
}

// WriteWAV writes pcm as a mono 16-bit little-endian PCM WAV with a 44-byte header.
func WriteWAV(w io.WriteSeeker, sampleRate int, pcm []int16) error {
	enc := wav.NewEncoder(w, sampleRate, wavBitDepth, Channels, wavPCMFormat)

	data := make([]int, len(pcm))
	for i, s := range pcm {
		data[i] = int(s)
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: Channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: wavBitDepth,
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("failed to write wav data: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize wav header: %w", err)
	}
	return nil
}

// WriteWAVFile creates path and writes samples (clamped to [-1, 1]) into it.
func WriteWAVFile(path string, sampleRate int, samples []float32) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := WriteWAV(f, sampleRate, ToPCM(samples)); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

// ReadWAVInfo parses the header of a WAV stream.
func ReadWAVInfo(r io.ReadSeeker) (WAVInfo, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return WAVInfo{}, ErrNotWavFile
	}
	if err := dec.FwdToPCM(); err != nil {
		return WAVInfo{}, fmt.Errorf("failed to locate data chunk: %w", err)
	}
	return WAVInfo{
		SampleRate:    int(dec.SampleRate),
		BitsPerSample: int(dec.BitDepth),
		Channels:      int(dec.NumChans),
		DataLength:    dec.PCMSize,
	}, nil
}

// ReadWAV decodes a 16-bit PCM WAV stream.
func ReadWAV(r io.ReadSeeker) (WAVInfo, []int16, error) {
	info, err := ReadWAVInfo(r)
	if err != nil {
		return WAVInfo{}, nil, err
	}
	if info.BitsPerSample != wavBitDepth {
		return info, nil, fmt.Errorf("unsupported bit depth %d", info.BitsPerSample)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return info, nil, fmt.Errorf("failed to rewind wav stream: %w", err)
	}

	buf, err := wav.NewDecoder(r).FullPCMBuffer()
	if err != nil {
		return info, nil, fmt.Errorf("failed to decode wav data: %w", err)
	}
	pcm := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		pcm[i] = int16(v)
	}
	return info, pcm, nil
}

package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	resampling "github.com/tphakala/go-audio-resampling"
)

var (
	// ErrUnsupportedFormat is returned for file types without a decoder.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	// ErrNotAiffFile is returned when an AIFF stream has no FORM/AIFF header.
	ErrNotAiffFile = errors.New("not an AIFF file")
)

// Clip is decoded mono audio.
type Clip struct {
	SampleRate int
	Samples    []float32
}

// Duration is the clip length in seconds.
func (c *Clip) Duration() float64 {
	if c.SampleRate == 0 {
		return 0
	}
	return float64(len(c.Samples)) / float64(c.SampleRate)
}

// DecodeFile decodes a WAV, AIFF, MP3 or Ogg Vorbis file to mono, choosing
// the decoder by extension.
func DecodeFile(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	clip, err := Decode(f, strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return clip, nil
}

// Decode decodes r using the decoder for format ("wav", "aiff", "mp3", "ogg").
func Decode(r io.ReadSeeker, format string) (*Clip, error) {
	switch format {
	case "wav", "wave":
		return decodeWAV(r)
	case "aif", "aiff":
		return decodeAIFF(r)
	case "mp3":
		return decodeMP3(r)
	case "ogg", "oga":
		return decodeVorbis(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func decodeWAV(r io.ReadSeeker) (*Clip, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrNotWavFile
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode wav data: %w", err)
	}
	return clipFromIntBuffer(buf, int(dec.BitDepth))
}

func decodeAIFF(r io.ReadSeeker) (*Clip, error) {
	dec := aiff.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrNotAiffFile
	}
	dec.ReadInfo()
	format := dec.Format()
	if format == nil {
		return nil, fmt.Errorf("%w: missing COMM chunk", ErrNotAiffFile)
	}

	all := &goaudio.IntBuffer{Format: format, SourceBitDepth: int(dec.BitDepth)}
	chunk := &goaudio.IntBuffer{Format: format, Data: make([]int, 4096)}
	for {
		n, err := dec.PCMBuffer(chunk)
		all.Data = append(all.Data, chunk.Data[:n]...)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to decode aiff data: %w", err)
		}
		if n == 0 || err != nil {
			break
		}
	}
	return clipFromIntBuffer(all, int(dec.BitDepth))
}

func decodeMP3(r io.Reader) (*Clip, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open mp3 stream: %w", err)
	}
	// go-mp3 always yields 16-bit little-endian stereo
	data, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("failed to decode mp3 data: %w", err)
	}
	return &Clip{
		SampleRate: dec.SampleRate(),
		Samples:    Downmix(FromPCM(DecodePCM16LE(data)), 2),
	}, nil
}

func decodeVorbis(r io.Reader) (*Clip, error) {
	data, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode vorbis data: %w", err)
	}
	return &Clip{
		SampleRate: format.SampleRate,
		Samples:    Downmix(data, format.Channels),
	}, nil
}

func clipFromIntBuffer(buf *goaudio.IntBuffer, bitDepth int) (*Clip, error) {
	if buf == nil || buf.Format == nil {
		return nil, errors.New("decoder returned no format")
	}
	if bitDepth <= 0 {
		bitDepth = buf.SourceBitDepth
	}
	if bitDepth <= 0 || bitDepth > 32 {
		return nil, fmt.Errorf("unsupported bit depth %d", bitDepth)
	}

	scale := float32(int64(1) << (bitDepth - 1))
	samples := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = float32(v) / scale
	}
	return &Clip{
		SampleRate: buf.Format.SampleRate,
		Samples:    Downmix(samples, buf.Format.NumChannels),
	}, nil
}

// Downmix averages interleaved channels into mono. A trailing partial frame
// is dropped.
func Downmix(interleaved []float32, channels int) []float32 {
	if channels <= 1 {
		return interleaved
	}
	frames := len(interleaved) / channels
	out := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += interleaved[i*channels+c]
		}
		out[i] = sum / float32(channels)
	}
	return out
}

// Resample converts mono samples between rates. The output always holds
// len(samples)*toRate/fromRate samples.
func Resample(samples []float32, fromRate, toRate int) ([]float32, error) {
	if fromRate == toRate || len(samples) == 0 {
		return samples, nil
	}
	if fromRate <= 0 || toRate <= 0 {
		return nil, fmt.Errorf("invalid sample rates %d -> %d", fromRate, toRate)
	}

	r, err := resampling.New(&resampling.Config{
		InputRate:  float64(fromRate),
		OutputRate: float64(toRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create resampler: %w", err)
	}

	// trailing silence pushes the filter tail out
	in := make([]float64, len(samples)+fromRate/10)
	for i, v := range samples {
		in[i] = float64(v)
	}
	out, err := r.Process(in)
	if err != nil {
		return nil, fmt.Errorf("resample error: %w", err)
	}

	want := int(int64(len(samples)) * int64(toRate) / int64(fromRate))
	res := make([]float32, want)
	for i := 0; i < want && i < len(out); i++ {
		res[i] = float32(out[i])
	}
	return res, nil
}

package audio

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteWAVFile_HeaderRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.wav")
	samples := []float32{0, 0.5, -0.5, 1, -1, 2}

	require.NoError(t, WriteWAVFile(path, 32000, samples))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	info, pcm, err := ReadWAV(f)
	require.NoError(t, err)
	assert.Equal(t, 32000, info.SampleRate)
	assert.Equal(t, 16, info.BitsPerSample)
	assert.Equal(t, 1, info.Channels)
	assert.Equal(t, 2*len(samples), info.DataLength)
	assert.Equal(t, []int16{0, 16383, -16383, 32767, -32767, 32767}, pcm)
}

func TestWriteWAVFile_CanonicalHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "header.wav")
	require.NoError(t, WriteWAVFile(path, 16000, []float32{0.25, -0.25, 0.1, 0}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, data, 44+8)

	assert.Equal(t, "RIFF", string(data[0:4]))
	assert.Equal(t, uint32(36+8), binary.LittleEndian.Uint32(data[4:8]))
	assert.Equal(t, "WAVE", string(data[8:12]))
	assert.Equal(t, "fmt ", string(data[12:16]))
	assert.Equal(t, uint32(16), binary.LittleEndian.Uint32(data[16:20]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(data[20:22]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(data[22:24]))
	assert.Equal(t, uint32(16000), binary.LittleEndian.Uint32(data[24:28]))
	assert.Equal(t, uint32(32000), binary.LittleEndian.Uint32(data[28:32]))
	assert.Equal(t, uint16(2), binary.LittleEndian.Uint16(data[32:34]))
	assert.Equal(t, uint16(16), binary.LittleEndian.Uint16(data[34:36]))
	assert.Equal(t, "data", string(data[36:40]))
	assert.Equal(t, uint32(8), binary.LittleEndian.Uint32(data[40:44]))
}

func TestWriteWAVFile_BadDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "x.wav")
	assert.Error(t, WriteWAVFile(path, 16000, []float32{0.1}))
}

func TestReadWAVInfo_NotWav(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.wav")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a riff file, just text"), 0o644))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	_, err = ReadWAVInfo(f)
	assert.ErrorIs(t, err, ErrNotWavFile)
}

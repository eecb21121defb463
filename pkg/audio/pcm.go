package audio

import "encoding/binary"

const (
	// BytesPerSample is the size of one signed 16-bit sample.
	BytesPerSample = 2
	// Channels is the channel count used for capture, playback and export.
	Channels = 1

	maxInt16 = 32767
)

// Int16ToFloat32 normalizes a PCM sample by dividing by 32767.
func Int16ToFloat32(s int16) float32 {
	return float32(s) / maxInt16
}

// Float32ToInt16 clamps v to [-1, 1] and scales it to a PCM sample.
func Float32ToInt16(v float32) int16 {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int16(v * maxInt16)
}

// ToPCM converts normalized samples to clamped 16-bit PCM.
func ToPCM(samples []float32) []int16 {
	pcm := make([]int16, len(samples))
	for i, v := range samples {
		pcm[i] = Float32ToInt16(v)
	}
	return pcm
}

// FromPCM converts 16-bit PCM to normalized samples.
func FromPCM(pcm []int16) []float32 {
	out := make([]float32, len(pcm))
	for i, s := range pcm {
		out[i] = Int16ToFloat32(s)
	}
	return out
}

// DecodePCM16LE decodes little-endian 16-bit PCM bytes. A trailing odd byte is ignored.
func DecodePCM16LE(data []byte) []int16 {
	pcm := make([]int16, len(data)/BytesPerSample)
	for i := range pcm {
		pcm[i] = int16(binary.LittleEndian.Uint16(data[i*BytesPerSample:]))
	}
	return pcm
}

// EncodePCM16LE encodes 16-bit PCM as little-endian bytes.
func EncodePCM16LE(pcm []int16) []byte {
	data := make([]byte, len(pcm)*BytesPerSample)
	for i, s := range pcm {
		binary.LittleEndian.PutUint16(data[i*BytesPerSample:], uint16(s))
	}
	return data
}

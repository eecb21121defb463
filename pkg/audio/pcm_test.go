package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFloat32ToInt16_Clamps(t *testing.T) {
	assert.Equal(t, int16(32767), Float32ToInt16(1.5))
	assert.Equal(t, int16(-32767), Float32ToInt16(-3))
	assert.Equal(t, int16(16383), Float32ToInt16(0.5))
	assert.Equal(t, int16(0), Float32ToInt16(0))
}

func TestInt16ToFloat32(t *testing.T) {
	assert.Equal(t, float32(1), Int16ToFloat32(32767))
	assert.Equal(t, float32(-1), Int16ToFloat32(-32767))
	assert.InDelta(t, -1.0000305, Int16ToFloat32(-32768), 1e-6)
}

func TestPCMConversionRoundTrip(t *testing.T) {
	pcm := []int16{0, -32767, 32767}
	assert.Equal(t, pcm, ToPCM(FromPCM(pcm)))

	// intermediate values survive within one step of truncation
	for _, s := range []int16{1, -1, 12345, -20000} {
		back := Float32ToInt16(Int16ToFloat32(s))
		assert.InDelta(t, float64(s), float64(back), 1)
	}
}

func TestPCM16LECodec(t *testing.T) {
	pcm := []int16{0x0102, -2, 32767}
	data := EncodePCM16LE(pcm)
	assert.Equal(t, []byte{0x02, 0x01, 0xfe, 0xff, 0xff, 0x7f}, data)
	assert.Equal(t, pcm, DecodePCM16LE(data))

	// trailing odd byte is dropped
	assert.Equal(t, []int16{0x0102}, DecodePCM16LE([]byte{0x02, 0x01, 0x09}))
}

package denoise

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomSignal(n int, seed int64) []float32 {
	r := rand.New(rand.NewSource(seed))
	out := make([]float32, n)
	for i := range out {
		out[i] = r.Float32()*2 - 1
		if i%3 == 0 {
			out[i] *= 0.005 // sprinkle quiet samples
		}
	}
	return out
}

func TestProcess_StandardIsIdentity(t *testing.T) {
	input := randomSignal(4096, 1)
	out := Process(input, ModeStandard)

	require.Len(t, out, len(input))
	assert.Equal(t, input, out)

	// output must be a copy
	out[0] = 42
	assert.NotEqual(t, float32(42), input[0])
}

func TestGate_ZeroesSubThresholdSamples(t *testing.T) {
	for _, mode := range []Mode{ModeMeeting, ModeOutdoor} {
		t.Run(mode.String(), func(t *testing.T) {
			threshold := mode.Params().GateThreshold
			input := randomSignal(2048, 7)
			gated := Gate(input, threshold)

			for i, v := range input {
				abs := v
				if abs < 0 {
					abs = -abs
				}
				if abs < threshold {
					assert.Equal(t, float32(0), gated[i], "index %d", i)
				} else {
					assert.Equal(t, v, gated[i], "index %d", i)
				}
			}
		})
	}
}

func TestSmooth_RampAndRunningSum(t *testing.T) {
	input := []float32{3, 6, 9, 12, 15}
	out := Smooth(input, 3)

	assert.InDeltaSlice(t, []float32{3, 4.5, 6, 9, 12}, out, 1e-6)
}

func TestSmooth_WidthOneCopies(t *testing.T) {
	input := []float32{1, -2, 3}
	assert.Equal(t, input, Smooth(input, 1))
}

func TestProcess_MeetingGatesThenSmooths(t *testing.T) {
	input := []float32{0.001, 0.3, -0.002, 0.6}
	out := Process(input, ModeMeeting)

	// gated: {0, 0.3, 0, 0.6}, then width 3
	assert.InDeltaSlice(t, []float32{0, 0.15, 0.1, 0.3}, out, 1e-6)
}

func TestProcess_OutdoorWindow(t *testing.T) {
	input := []float32{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.007}
	out := Process(input, ModeOutdoor)

	require.Len(t, out, len(input))
	for i := 0; i < 6; i++ {
		assert.InDelta(t, 0.5, out[i], 1e-6)
	}
	// the last sample is gated away: (0.5*4 + 0) / 5
	assert.InDelta(t, 0.4, out[6], 1e-6)
}

func TestProcess_EmptyInput(t *testing.T) {
	assert.Empty(t, Process(nil, ModeOutdoor))
	assert.Empty(t, Process([]float32{}, ModeStandard))
}

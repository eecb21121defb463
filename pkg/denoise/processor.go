package denoise

import "math"

// Process applies the gate and smoothing stages of mode to input and returns
// a new slice. input is never modified. Standard mode returns an exact copy.
func Process(input []float32, mode Mode) []float32 {
	p := mode.Params()
	out := Gate(input, p.GateThreshold)
	if p.SmoothWindow > 1 {
		out = Smooth(out, p.SmoothWindow)
	}
	return out
}

// Gate returns a copy of input where every sample with |x| < threshold is zero.
func Gate(input []float32, threshold float32) []float32 {
	out := make([]float32, len(input))
	for i, v := range input {
		if float32(math.Abs(float64(v))) < threshold {
			continue
		}
		out[i] = v
	}
	return out
}

// Smooth applies a causal moving average of the given width using a running
// sum. The first width-1 outputs average over the samples seen so far.
func Smooth(input []float32, width int) []float32 {
	out := make([]float32, len(input))
	if width <= 1 {
		copy(out, input)
		return out
	}

	var sum float32
	for i, v := range input {
		sum += v
		if i >= width {
			sum -= input[i-width]
		}
		out[i] = sum / float32(min(i+1, width))
	}
	return out
}

package audio

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAmplitudeGate(t *testing.T) {
	gate := NewAmplitudeGate(0)
	assert.Equal(t, MinAvgAmplitude, gate.Floor)

	tests := []struct {
		name    string
		meanAbs float64
		wantErr bool
	}{
		{"silence", 0, true},
		{"just below floor", MinAvgAmplitude / 2, true},
		{"at floor", MinAvgAmplitude, false},
		{"loud", 0.5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := gate.Check(tt.meanAbs)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrSignalTooWeak))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAmplitudeGate_ZeroSnapshotAlwaysRejected(t *testing.T) {
	w := NewWindowSize(320)
	w.Write(make([]float32, 640))

	err := NewAmplitudeGate(MinAvgAmplitude).CheckSnapshot(w.Snapshot())
	assert.ErrorIs(t, err, ErrSignalTooWeak)
}

func TestAmplitudeGate_CustomFloor(t *testing.T) {
	gate := NewAmplitudeGate(0.1)
	assert.Error(t, gate.Check(0.05))
	assert.NoError(t, gate.Check(0.1))
}

package audio

import (
	"errors"
	"fmt"
)

// MinAvgAmplitude is the default mean absolute amplitude floor on the [-1, 1] scale.
const MinAvgAmplitude = 1e-4

// ErrSignalTooWeak is returned when a snapshot is treated as silence.
var ErrSignalTooWeak = errors.New("insufficient signal")

// AmplitudeGate rejects snapshots whose mean absolute amplitude is below Floor.
type AmplitudeGate struct {
	Floor float64
}

// NewAmplitudeGate returns a gate with the given floor, or MinAvgAmplitude if floor <= 0.
func NewAmplitudeGate(floor float64) AmplitudeGate {
	if floor <= 0 {
		floor = MinAvgAmplitude
	}
	return AmplitudeGate{Floor: floor}
}

// Check returns nil when meanAbs passes the gate.
func (g AmplitudeGate) Check(meanAbs float64) error {
	if meanAbs < g.Floor {
		return fmt.Errorf("%w: mean amplitude %.6f below %.6f", ErrSignalTooWeak, meanAbs, g.Floor)
	}
	return nil
}

// CheckSnapshot applies Check to the snapshot's mean absolute amplitude.
func (g AmplitudeGate) CheckSnapshot(s Snapshot) error {
	return g.Check(s.MeanAbs())
}

// Package denoise implements the mode-dependent noise reduction applied to
// window snapshots before classification: a hard per-sample noise gate
// followed by a causal moving-average smoother.
package denoise

import (
	"fmt"
	"strings"
)

// Mode selects a noise reduction parameter set.
type Mode int

const (
	ModeStandard Mode = iota
	ModeMeeting
	ModeOutdoor
)

// Params holds the gate threshold and smoothing window of a Mode.
type Params struct {
	// GateThreshold zeroes samples whose absolute value is below it.
	GateThreshold float32
	// SmoothWindow is the moving average width; 1 disables smoothing.
	SmoothWindow int
}

var modeParams = map[Mode]Params{
	ModeStandard: {GateThreshold: 0, SmoothWindow: 1},
	ModeMeeting:  {GateThreshold: 0.003, SmoothWindow: 3},
	ModeOutdoor:  {GateThreshold: 0.008, SmoothWindow: 5},
}

// Params returns the parameter set of m. Unknown modes fall back to Standard.
func (m Mode) Params() Params {
	if p, ok := modeParams[m]; ok {
		return p
	}
	return modeParams[ModeStandard]
}

// String returns the string representation of Mode
func (m Mode) String() string {
	switch m {
	case ModeStandard:
		return "standard"
	case ModeMeeting:
		return "meeting"
	case ModeOutdoor:
		return "outdoor"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses a mode name as produced by String.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard":
		return ModeStandard, nil
	case "meeting":
		return ModeMeeting, nil
	case "outdoor":
		return ModeOutdoor, nil
	default:
		return ModeStandard, fmt.Errorf("unknown noise mode %q", s)
	}
}

// Package timingstate classifies the node's current timing quality into
// one of four states, purely as a function of PPS freshness, calibration
// validity and recent-reset status.
package timingstate

import "fmt"

// State is one of the four timing-quality tenures.
type State int

const (
	// RAW is the floor state: no usable PPS or calibration reference.
	RAW State = iota
	// CAL applies a stale calibration without a live PPS reference.
	CAL
	// HOLDOVER applies a recently-valid PPS reference that has gone quiet.
	HOLDOVER
	// ACTIVE is a live, recent PPS lock.
	ACTIVE
)

func (s State) String() string {
	switch s {
	case ACTIVE:
		return "ACTIVE"
	case HOLDOVER:
		return "HOLDOVER"
	case CAL:
		return "CAL"
	default:
		return "RAW"
	}
}

// Code is the numeric timing_source field used on per-sample data lines:
// ACTIVE=0, HOLDOVER=1, CAL=2, RAW=3, matching the order of the
// classification table.
func (s State) Code() int {
	switch s {
	case ACTIVE:
		return 0
	case HOLDOVER:
		return 1
	case CAL:
		return 2
	default:
		return 3
	}
}

// SourceName is the human-readable name used on SESSION/STAT lines, which
// distinguishes a GPS-derived lock (PPS_ACTIVE) from an internally
// maintained fallback (INTERNAL_CAL/INTERNAL_RAW).
func (s State) SourceName() string {
	switch s {
	case ACTIVE:
		return "PPS_ACTIVE"
	case HOLDOVER:
		return "HOLDOVER"
	case CAL:
		return "INTERNAL_CAL"
	default:
		return "INTERNAL_RAW"
	}
}

// Thresholds, straight from the classification table.
const (
	activeAgeMs   = 1_500
	holdoverAgeMs = 60_000
	calAgeMs      = 300_000
)

// Inputs bundles the three classification inputs for one evaluation.
type Inputs struct {
	PpsValid        bool
	PpsAgeMs        uint32
	CalibrationValid bool
	RecentReset     bool
	AgeS            float64 // seconds since the state's reference became stale, for the accuracy floor
	Temp            float64
}

// Classify evaluates the state table in order and returns the resulting
// state along with its accuracy floor in microseconds.
func Classify(in Inputs) (State, float64) {
	switch {
	case in.PpsValid && in.PpsAgeMs < activeAgeMs && !in.RecentReset:
		return ACTIVE, 1.0
	case in.PpsValid && in.PpsAgeMs < holdoverAgeMs && !in.RecentReset:
		return HOLDOVER, 1.0 + 0.1*in.AgeS
	case in.CalibrationValid && in.PpsAgeMs < calAgeMs && !in.RecentReset:
		return CAL, 10.0 + 0.3*in.AgeS
	default:
		if in.RecentReset {
			return RAW, 2000.0
		}
		return RAW, 1000.0
	}
}

// Machine tracks the current state across calls so it can emit one-shot
// transition warnings, matching the firmware's "warn once per downgrade"
// behaviour rather than re-warning every loop iteration.
type Machine struct {
	current State
	primed  bool
}

// NewMachine returns a Machine with no prior state.
func NewMachine() *Machine {
	return &Machine{current: RAW}
}

// Current reports the last state Update classified.
func (m *Machine) Current() State { return m.current }

// Update classifies in and returns the new state, its accuracy floor, and
// a non-empty warning line exactly once per downgrade transition
// (ACTIVE→HOLDOVER, HOLDOVER→CAL, CAL→RAW, or any multi-step skip).
func (m *Machine) Update(in Inputs) (state State, accuracyUs float64, warning string) {
	state, accuracyUs = Classify(in)

	if !m.primed {
		m.current = state
		m.primed = true
		return state, accuracyUs, ""
	}

	if state < m.current {
		warning = fmt.Sprintf("timing source degraded %s -> %s", m.current, state)
	}
	m.current = state
	return state, accuracyUs, warning
}

// Package calibrator maintains the local oscillator's smoothed
// parts-per-million frequency correction, learned from successive PPS
// interval measurements and persisted through calstore.
package calibrator

import (
	"fmt"
	"math"

	"github.com/shiwa/seismic-node/internal/calstore"
)

const (
	// RejectThresholdPpm is the reject-and-warn bound on a single interval
	// measurement; it is far looser than MaxAbsPpm because it screens out
	// spurious PPS edges, not normal drift.
	RejectThresholdPpm = 1000.0

	bootstrapEvents   = 10
	tempLearnAfter    = 100
	tempLearnEvery    = 50
	debugEmitEvery    = 10
	tempDeltaMinC     = 1.0
	smoothingOld      = 0.9
	smoothingNew      = 0.1
	nominalIntervalUs = 1_000_000.0
)

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Calibrator tracks the oscillator's ppm correction and an optional
// temperature-compensation coefficient learned from slow drift.
type Calibrator struct {
	store *calstore.Store

	ppm   float64
	valid bool

	eventCount uint32

	referenceTemp   float64
	tempPrimed      bool
	coeffPpmPerC    float64
	tempCompEnabled bool
}

// New loads any persisted ppm value and returns a ready Calibrator. A
// missing or rejected store record leaves the calibrator at ppm=0,
// invalid, which the timing state machine treats as "no calibration".
func New(store *calstore.Store) *Calibrator {
	c := &Calibrator{store: store, referenceTemp: 25.0}
	if ppm, ok := store.Load(); ok {
		c.ppm = float64(ppm)
		c.valid = true
	}
	return c
}

// Ppm reports the current correction in parts-per-million.
func (c *Calibrator) Ppm() float64 { return c.ppm }

// Valid reports whether the calibration has ever been bootstrapped or
// manually set.
func (c *Calibrator) Valid() bool { return c.valid }

// Update processes one accepted PPS interval measurement. inCalState
// indicates whether the timing state machine currently reports CAL, which
// gates whether the temperature-compensation term is applied this round.
// It returns a warning line when the measurement is rejected, and a debug
// line on every tenth accepted event.
func (c *Calibrator) Update(actualIntervalUs, currentTemp float64, inCalState bool) (warning, debug string) {
	if !c.tempPrimed {
		c.referenceTemp = currentTemp
		c.tempPrimed = true
	}

	errorPpm := (actualIntervalUs - nominalIntervalUs) / nominalIntervalUs * nominalIntervalUs
	if math.Abs(errorPpm) >= RejectThresholdPpm {
		return fmt.Sprintf("PPS interval error %.1f ppm exceeds +/-%.0f, rejecting calibration update", errorPpm, RejectThresholdPpm), ""
	}

	c.eventCount++
	if c.eventCount <= bootstrapEvents {
		c.ppm = -errorPpm
	} else {
		c.ppm = smoothingOld*c.ppm + smoothingNew*(-errorPpm)
	}
	c.ppm = clamp(c.ppm, -calstore.MaxAbsPpm, calstore.MaxAbsPpm)
	c.valid = true

	if c.eventCount > tempLearnAfter && c.eventCount%tempLearnEvery == 0 {
		dt := currentTemp - c.referenceTemp
		if math.Abs(dt) > tempDeltaMinC {
			c.coeffPpmPerC = c.ppm / dt
			c.tempCompEnabled = true
		}
	}

	if c.tempCompEnabled && inCalState {
		dt := currentTemp - c.referenceTemp
		c.ppm = clamp(c.ppm+c.coeffPpmPerC*dt, -calstore.MaxAbsPpm, calstore.MaxAbsPpm)
	}

	if err := c.store.Save(float32(c.ppm)); err != nil {
		warning = fmt.Sprintf("failed to persist calibration: %v", err)
	}

	if c.eventCount%debugEmitEvery == 0 {
		debug = fmt.Sprintf("ppm=%.3f interval_us=%.1f", c.ppm, actualIntervalUs)
	}
	return warning, debug
}

// SetManual installs ppm directly, bypassing bootstrap and smoothing, for
// the SET_CAL_PPM command.
func (c *Calibrator) SetManual(ppm float64) error {
	c.ppm = clamp(ppm, -calstore.MaxAbsPpm, calstore.MaxAbsPpm)
	c.valid = true
	return c.store.Save(float32(c.ppm))
}

// Package scheduler drives sample emission timing: the nominal/effective
// interval split that absorbs oscillator error, the fractional phase
// accumulator that keeps long-term rate exact, skip-ahead on foreground
// stalls, and the phase-alignment servo that nudges emission times toward
// PPS edges.
package scheduler

import "math"

// referenceUpdatePeriodSamples resets the sample index and rebases
// base_virtual_micros periodically so no counter grows without bound
// across a long-running stream (~2.8h at 100Hz).
const referenceUpdatePeriodSamples = 1_000_000

// StartMode selects how next_sample_micros is first established.
type StartMode int

const (
	// StartImmediate aligns to the next multiple of nominal_interval_us.
	StartImmediate StartMode = iota
	// StartSynchronized begins at a caller-supplied absolute deadline.
	StartSynchronized
	// StartPPSLocked begins on the n-th subsequent PPS edge.
	StartPPSLocked
)

// Schedule is the sample-timing state for one active stream.
type Schedule struct {
	nominalIntervalUs   float64
	effectiveIntervalUs float64
	ppm                 float64

	phaseAccUs       float64
	nextSampleMicros uint64
	timingBase       uint64
	baseVirtualMicros uint64
	sampleIndex      uint64

	startedOnPPS bool
	oneShotFired bool

	ppsPhaseLockEnabled bool
	servo               *phaseServo

	ppsCountdown int // remaining PPS edges before a PPS-locked start fires; 0 means inactive
}

// NewSchedule builds a Schedule for rateHz, with the continuous
// phase-lock servo enabled by default per the spec's pps_phase_lock_enabled
// default.
func NewSchedule(rateHz float64) *Schedule {
	nominal := math.Floor(1_000_000.0 / rateHz)
	s := &Schedule{
		nominalIntervalUs:   nominal,
		effectiveIntervalUs: nominal,
		ppsPhaseLockEnabled: true,
	}
	return s
}

// SetPpm installs the calibrator's current ppm correction and recomputes
// the effective interval. It takes effect starting with the next step.
func (s *Schedule) SetPpm(ppm float64) {
	s.ppm = ppm
	s.effectiveIntervalUs = s.nominalIntervalUs * (1 - ppm/1_000_000.0)
}

// SetNominalIntervalUs overrides the nominal sample interval directly
// (SET_PRECISE_INTERVAL's micro-tuning) and recomputes the effective
// interval from the currently installed ppm correction.
func (s *Schedule) SetNominalIntervalUs(intervalUs float64) {
	s.nominalIntervalUs = intervalUs
	s.SetPpm(s.ppm)
}

// EffectiveIntervalUs reports the current oscillator-corrected interval.
func (s *Schedule) EffectiveIntervalUs() float64 { return s.effectiveIntervalUs }

// SampleIndex reports samples emitted since the last periodic reference
// update.
func (s *Schedule) SampleIndex() uint64 { return s.sampleIndex }

// SetPhaseLockEnabled toggles the continuous per-PPS servo.
func (s *Schedule) SetPhaseLockEnabled(enabled bool) { s.ppsPhaseLockEnabled = enabled }

// StartImmediateAt aligns next_sample_micros to the next multiple of
// nominal_interval_us strictly after nowVirtual.
func (s *Schedule) StartImmediateAt(nowVirtual uint64) {
	nominal := uint64(s.nominalIntervalUs)
	if nominal == 0 {
		nominal = 1
	}
	aligned := ((nowVirtual / nominal) + 1) * nominal
	s.startAt(aligned, false)
}

// ArmSynchronized is a no-op placeholder kept symmetrical with
// ArmPPSLocked; the synchronized start's spin-wait lives in the caller
// (it owns the real clock), which calls StartAt(target) once the deadline
// is reached.
func (s *Schedule) ArmSynchronized() {}

// ArmPPSLocked arms a PPS-locked start: the n-th subsequent PPS edge
// becomes timing_base.
func (s *Schedule) ArmPPSLocked(n int) {
	if n < 1 {
		n = 1
	}
	s.ppsCountdown = n
}

// PPSLockArmed reports whether a PPS-locked start is still waiting for
// its n-th edge.
func (s *Schedule) PPSLockArmed() bool { return s.ppsCountdown > 0 }

// StartAt sets timing_base and next_sample_micros to t, used by both the
// synchronized start (after the spin-wait) and the n-th PPS edge of a
// PPS-locked start.
func (s *Schedule) StartAt(t uint64, startedOnPPS bool) {
	s.startAt(t, startedOnPPS)
}

func (s *Schedule) startAt(t uint64, startedOnPPS bool) {
	s.nextSampleMicros = t
	s.timingBase = t
	s.baseVirtualMicros = t
	s.sampleIndex = 0
	s.phaseAccUs = 0
	s.startedOnPPS = startedOnPPS
	s.oneShotFired = startedOnPPS
	s.servo = nil
	s.ppsCountdown = 0
}

// Step evaluates one main-loop iteration against nowVirtual. emit is true
// if exactly one sample should be produced this iteration; skipped counts
// whole effective intervals the foreground fell behind by and silently
// absorbed (no catch-up bursts).
func (s *Schedule) Step(nowVirtual uint64) (emit bool, skipped int) {
	if nowVirtual < s.nextSampleMicros {
		return false, 0
	}

	adjust := s.servo.next()
	step := s.effectiveIntervalUs + s.phaseAccUs + adjust
	whole := math.Floor(step)
	s.phaseAccUs = step - whole
	s.nextSampleMicros += uint64(whole)

	if nowVirtual > s.nextSampleMicros && s.effectiveIntervalUs > 0 {
		behind := float64(nowVirtual - s.nextSampleMicros)
		n := int(math.Floor(behind / s.effectiveIntervalUs))
		if n > 0 {
			s.nextSampleMicros += uint64(float64(n) * s.effectiveIntervalUs)
			skipped = n
		}
	}

	s.sampleIndex++
	if s.sampleIndex >= referenceUpdatePeriodSamples {
		s.sampleIndex = 0
		s.baseVirtualMicros = nowVirtual
	}

	return true, skipped
}

// HandlePPSEdge processes one PPS edge against the schedule: it may
// complete a pending PPS-locked start, and otherwise feeds the
// phase-alignment servo (one-shot after PPS first becomes usable
// mid-stream, or continuously when phase-lock is enabled).
//
// readyToStart is true when this edge completes an armed PPS-locked
// start; in that case the caller should not also run ordinary Step logic
// against the pre-start schedule.
func (s *Schedule) HandlePPSEdge(ppsVirtualMicros uint64) (readyToStart bool) {
	if s.ppsCountdown > 0 {
		s.ppsCountdown--
		if s.ppsCountdown == 0 {
			s.startAt(ppsVirtualMicros, true)
			return true
		}
		return false
	}

	oneShot := !s.startedOnPPS && !s.oneShotFired
	if !oneShot && !s.ppsPhaseLockEnabled {
		return false
	}

	deadband := continuousDeadbandUs
	spread := int(math.Round(1_000_000.0 / s.effectiveIntervalUs))
	if oneShot {
		deadband = oneShotDeadbandUs
		spread = oneShotSpreadSamples
		s.oneShotFired = true
	}
	if spread < 1 {
		spread = 1
	}

	signedPhase := signedPhaseError(int64(ppsVirtualMicros), int64(s.timingBase), s.effectiveIntervalUs)
	if math.Abs(signedPhase) <= deadband {
		return false
	}
	s.servo = newPhaseServo(signedPhase, spread)
	return false
}

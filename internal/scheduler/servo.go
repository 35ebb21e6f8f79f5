package scheduler

import "math"

// servoPerSampleClampUs bounds each individual nudge regardless of how
// steep the phase error is, so a single correction never moves a sample
// by more than this many microseconds.
const servoPerSampleClampUs = 20.0

// oneShotDeadbandUs/continuousDeadbandUs are the two servo activation
// dead-bands: looser for the one-time nudge after acquiring PPS mid-stream,
// tighter for the continuous lock that runs on every subsequent edge.
const (
	oneShotDeadbandUs    = 20.0
	continuousDeadbandUs = 5.0

	oneShotSpreadSamples = 200
)

// phaseServo spreads a measured phase error over a bounded run of samples,
// nudging each one by a clamped per-sample amount until the error is
// worked off, without ever touching the long-term rate.
type phaseServo struct {
	perSampleUs float64
	remaining   int
}

func newPhaseServo(signedPhaseUs float64, samplesNeeded int) *phaseServo {
	if samplesNeeded < 1 {
		samplesNeeded = 1
	}
	per := signedPhaseUs / float64(samplesNeeded)
	if per > servoPerSampleClampUs {
		per = servoPerSampleClampUs
	}
	if per < -servoPerSampleClampUs {
		per = -servoPerSampleClampUs
	}
	return &phaseServo{perSampleUs: per, remaining: samplesNeeded}
}

// next returns this sample's adjustment and decrements the remaining
// count. It is nil-safe so a scheduler with no active servo can call it
// unconditionally.
func (p *phaseServo) next() float64 {
	if p == nil || p.remaining <= 0 {
		return 0
	}
	p.remaining--
	return p.perSampleUs
}

func (p *phaseServo) active() bool {
	return p != nil && p.remaining > 0
}

// signedPhaseError computes the signed residual of ppsVirtual against
// timingBase modulo interval, folded into [-interval/2, interval/2].
func signedPhaseError(ppsVirtual, timingBase int64, intervalUs float64) float64 {
	phaseMod := math.Mod(float64(ppsVirtual-timingBase), intervalUs)
	if phaseMod < 0 {
		phaseMod += intervalUs
	}
	if phaseMod > intervalUs/2 {
		return phaseMod - intervalUs
	}
	return phaseMod
}

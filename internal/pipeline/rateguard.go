package pipeline

import (
	"fmt"
	"math"
)

// Rate-change guard thresholds, straight from the external interface.
const (
	rateChangeRejectPpm = 50.0
	rateChangeWarnPpm   = 1000.0
)

// IsRateChangeAllowed evaluates a requested rate change against the
// current rate. A change is rejected outright only while the timing
// source is actively PPS-locked and the change is large; otherwise it is
// always allowed, with a warning line for unusually large jumps.
func IsRateChangeAllowed(newRateHz, curRateHz float64, sourceIsActive bool) (allowed bool, warning string) {
	if curRateHz == 0 {
		return true, ""
	}
	changePpm := math.Abs(newRateHz-curRateHz) / curRateHz * 1_000_000

	if sourceIsActive && changePpm > rateChangeRejectPpm {
		return false, ""
	}
	if changePpm > rateChangeWarnPpm {
		return true, fmt.Sprintf("rate change of %.1f ppm exceeds %.0f ppm, allowing anyway", changePpm, rateChangeWarnPpm)
	}
	return true, ""
}

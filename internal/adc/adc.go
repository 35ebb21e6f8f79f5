// Package adc exposes the single blocking convert-and-read operation the
// rest of the node treats as an external collaborator, with a real
// SPI-backed driver and a synthetic generator for bench use.
package adc

import "time"

// DeadlineTimeout is the data-ready wait bound; a miss zero-fills the
// affected channels rather than blocking the pipeline indefinitely.
const DeadlineTimeout = 10 * time.Millisecond

// Sample holds one reading per configured channel, in raw ADC counts.
type Sample struct {
	Values []int32
}

// Converter is the node's view of the ADC front-end: one blocking read
// across the configured channel count.
type Converter interface {
	// Read performs one convert-and-read cycle. deadlineMissed is true when
	// the data-ready line failed to assert within DeadlineTimeout; in that
	// case Values is zero-filled and the caller is expected to count an
	// adc_deadline_miss rather than treat err as fatal.
	Read(channels int) (sample Sample, deadlineMissed bool, err error)
}

func zeroSample(channels int) Sample {
	return Sample{Values: make([]int32, channels)}
}

// rateTableSps is the per-index maximum samples-per-second of a typical
// delta-sigma front-end's programmable data-rate register, indexed
// 1..16 per the command protocol's SET_ADC_RATE range.
var rateTableSps = [...]float64{
	2.5, 5, 10, 15, 25, 30, 50, 60, 100, 500, 1000, 2000, 3750, 7500, 15000, 30000,
}

// RateSps reports the maximum samples-per-second for a SET_ADC_RATE
// index in 1..16, or 0 for an out-of-range index.
func RateSps(index int) float64 {
	if index < 1 || index > len(rateTableSps) {
		return 0
	}
	return rateTableSps[index-1]
}

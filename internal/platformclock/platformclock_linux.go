//go:build linux

package platformclock

import "golang.org/x/sys/unix"

// RawMicros reads CLOCK_MONOTONIC and truncates it to a wrapping 32-bit
// microsecond counter, the same shape as the MCU micros() counter the
// virtual clock's wraparound and reset heuristics were written against.
func RawMicros() uint32 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return 0
	}
	micros := ts.Sec*1_000_000 + ts.Nsec/1000
	return uint32(micros)
}

// RawMillis reads CLOCK_MONOTONIC truncated to a wrapping 32-bit millisecond
// counter (the MCU's millis()).
func RawMillis() uint32 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return 0
	}
	millis := ts.Sec*1000 + ts.Nsec/1_000_000
	return uint32(millis)
}

// GranularityNs measures clock_gettime resolution: the minimum nonzero
// interval observed across a handful of back-to-back calls.
func GranularityNs() int64 {
	const rounds = 20
	var minDt int64 = 1e9
	for i := 0; i < rounds; i++ {
		var t1, t2 unix.Timespec
		_ = unix.ClockGettime(unix.CLOCK_MONOTONIC, &t1)
		_ = unix.ClockGettime(unix.CLOCK_MONOTONIC, &t2)
		dt := (t2.Sec-t1.Sec)*1e9 + int64(t2.Nsec-t1.Nsec)
		if dt > 0 && dt < minDt {
			minDt = dt
		}
	}
	if minDt == 1e9 {
		return 0
	}
	return minDt
}

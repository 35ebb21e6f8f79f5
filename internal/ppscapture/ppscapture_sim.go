package ppscapture

import (
	"context"
	"time"
)

// SyntheticSource generates PPS edges at a fixed interval (optionally
// jittered), for bench testing without GPS hardware.
type SyntheticSource struct {
	Raw      RawSource
	Interval time.Duration
	// JitterFunc, if set, is added to Interval each edge; used to
	// reproduce a specific oscillator error in tests.
	JitterFunc func() time.Duration
}

// Run implements Source.
func (s *SyntheticSource) Run(ctx context.Context, h *Handoff) error {
	interval := s.Interval
	if interval <= 0 {
		interval = time.Second
	}
	timer := time.NewTimer(interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			h.Publish(Event{CapturedMicros: s.Raw.RawMicros(), CapturedMs: s.Raw.RawMillis()})
			next := interval
			if s.JitterFunc != nil {
				next += s.JitterFunc()
			}
			timer.Reset(next)
		}
	}
}

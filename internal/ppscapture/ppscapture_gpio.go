package ppscapture

import (
	"context"
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

// GPIOEdgeSource captures PPS edges from a generic GPIO pin using edge
// interrupts, for boards without a kernel PPS character device.
type GPIOEdgeSource struct {
	Pin gpio.PinIn
	Raw RawSource
}

// Run implements Source.
func (s *GPIOEdgeSource) Run(ctx context.Context, h *Handoff) error {
	if err := s.Pin.In(gpio.PullDown, gpio.RisingEdge); err != nil {
		return fmt.Errorf("ppscapture: gpio pin setup: %w", err)
	}
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !s.Pin.WaitForEdge(-1) {
			continue
		}
		h.Publish(Event{CapturedMicros: s.Raw.RawMicros(), CapturedMs: s.Raw.RawMillis()})
	}
}

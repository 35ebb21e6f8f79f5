// Package ppscapture models the PPS rising-edge "interrupt": a dedicated
// capture goroutine records the raw microsecond and millisecond counters
// at the instant of the edge and hands them to the foreground through a
// minimal typed, mutex-guarded structure. The capture side performs no
// other work, matching the ISR-does-nothing-else discipline of the source
// this was modelled on.
package ppscapture

import (
	"context"
	"sync"
)

// Event is one captured PPS edge.
type Event struct {
	CapturedMicros uint32
	CapturedMs     uint32
}

// Handoff is the three-field shared state between the capture side and
// the foreground: pending, captured_micros, captured_ms. Publish is the
// sole writer; Take claims and clears in one step so the foreground never
// observes a half-updated event.
type Handoff struct {
	mu      sync.Mutex
	pending bool
	event   Event
}

// Publish records a newly captured edge and marks it pending, overwriting
// any previous unclaimed edge (the foreground is expected to drain once
// per loop iteration, so this should never happen in practice).
func (h *Handoff) Publish(e Event) {
	h.mu.Lock()
	h.event = e
	h.pending = true
	h.mu.Unlock()
}

// Take claims and clears the pending edge, if any.
func (h *Handoff) Take() (Event, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.pending {
		return Event{}, false
	}
	h.pending = false
	return h.event, true
}

// RawSource supplies the raw wrapping counters sampled at edge time.
type RawSource interface {
	RawMicros() uint32
	RawMillis() uint32
}

// Source runs a capture loop that publishes one Event per PPS edge into h
// until ctx is cancelled.
type Source interface {
	Run(ctx context.Context, h *Handoff) error
}

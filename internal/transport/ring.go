package transport

import (
	"sync"
	"time"
)

// bitsPerByte approximates 8N1 framing (8 data bits + start + stop) for
// converting a baud rate into a drain rate in bytes/second.
const bitsPerByte = 10

// RingSink wraps an underlying writer with a simulated bounded
// transmit-buffer: writes increase the simulated occupancy, and time
// passing drains it at the configured rate. This makes back-pressure
// genuinely observable in tests without real UART hardware contention,
// since go.bug.st/serial exposes no buffer-occupancy query of its own.
type RingSink struct {
	mu sync.Mutex
	w  Writer

	capacity  int
	used      int
	drainRate int // bytes/second
	lastDrain time.Time
}

// Writer is the minimal write capability RingSink wraps; satisfied by
// go.bug.st/serial's Port and by any io.Writer.
type Writer interface {
	Write(p []byte) (int, error)
}

// NewRingSink builds a RingSink with the given simulated buffer capacity
// and baud rate.
func NewRingSink(w Writer, capacityBytes, baudRate int) *RingSink {
	drainRate := baudRate / bitsPerByte
	if drainRate <= 0 {
		drainRate = 1
	}
	return &RingSink{
		w:         w,
		capacity:  capacityBytes,
		drainRate: drainRate,
		lastDrain: time.Now(),
	}
}

func (s *RingSink) drainLocked() {
	now := time.Now()
	elapsed := now.Sub(s.lastDrain).Seconds()
	if elapsed <= 0 {
		return
	}
	drained := int(elapsed * float64(s.drainRate))
	if drained <= 0 {
		return
	}
	s.used -= drained
	if s.used < 0 {
		s.used = 0
	}
	s.lastDrain = now
}

// Write passes through to the underlying writer and accounts the bytes
// against the simulated buffer occupancy.
func (s *RingSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	s.drainLocked()
	s.used += len(p)
	s.mu.Unlock()
	return s.w.Write(p)
}

// TxFree reports the simulated remaining buffer space.
func (s *RingSink) TxFree() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drainLocked()
	free := s.capacity - s.used
	if free < 0 {
		return 0
	}
	return free
}

// ForceOccupancy pins the simulated buffer occupancy directly, bypassing
// the normal write/drain accounting. Tests use this to force a sustained
// back-pressure condition (S6) without needing to write capacity-sized
// bursts.
func (s *RingSink) ForceOccupancy(used int) {
	s.mu.Lock()
	s.used = used
	s.lastDrain = time.Now()
	s.mu.Unlock()
}

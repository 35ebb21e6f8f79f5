// Package transport is the node's byte sink: the physical serial link the
// output pipeline streams samples over, modelled as a write plus a query
// for remaining transmit-buffer space so back-pressure is observable.
package transport

import "io"

// Sink is the output pipeline's view of the wire: write bytes, and ask how
// much room is left before the link would start dropping them.
type Sink interface {
	io.Writer
	// TxFree reports the approximate remaining transmit-buffer space in
	// bytes.
	TxFree() int
}

// DirectSink wraps a plain io.Writer with no back-pressure simulation; it
// always reports ample free space, for bench runs that don't care about
// OFLOW behaviour.
type DirectSink struct {
	w io.Writer
}

// NewDirectSink adapts any io.Writer into a Sink that never back-pressures.
func NewDirectSink(w io.Writer) *DirectSink {
	return &DirectSink{w: w}
}

func (d *DirectSink) Write(p []byte) (int, error) { return d.w.Write(p) }

// TxFree always reports effectively unlimited space.
func (d *DirectSink) TxFree() int { return 1 << 30 }

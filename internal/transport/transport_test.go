package transport

import (
	"bytes"
	"testing"
	"time"
)

func TestDirectSink_NeverBackpressures(t *testing.T) {
	var buf bytes.Buffer
	s := NewDirectSink(&buf)
	if s.TxFree() < 1<<20 {
		t.Fatalf("expected ample free space, got %d", s.TxFree())
	}
	n, err := s.Write([]byte("hello"))
	if err != nil || n != 5 {
		t.Fatalf("write failed: n=%d err=%v", n, err)
	}
	if buf.String() != "hello" {
		t.Fatalf("expected passthrough write, got %q", buf.String())
	}
}

func TestRingSink_WriteReducesFreeSpace(t *testing.T) {
	var buf bytes.Buffer
	s := NewRingSink(&buf, 100, 1_000_000) // 100 kB/s drain; the write and the two reads are microseconds apart, far less than the 400us needed to drain 40 bytes
	before := s.TxFree()
	s.Write(make([]byte, 40))
	after := s.TxFree()
	if after >= before {
		t.Fatalf("expected free space to drop after a write: before=%d after=%d", before, after)
	}
}

func TestRingSink_DrainsOverTime(t *testing.T) {
	var buf bytes.Buffer
	s := NewRingSink(&buf, 1000, 10_000) // 1000 bytes/sec drain
	s.ForceOccupancy(1000)
	if s.TxFree() != 0 {
		t.Fatalf("expected zero free space immediately after forcing full occupancy")
	}
	time.Sleep(50 * time.Millisecond)
	if s.TxFree() <= 0 {
		t.Fatalf("expected some free space to have drained after 50ms")
	}
}

func TestRingSink_ForceOccupancySimulatesBackPressure(t *testing.T) {
	var buf bytes.Buffer
	s := NewRingSink(&buf, 100, 1)
	s.ForceOccupancy(95)
	if s.TxFree() > 5 {
		t.Fatalf("expected forced occupancy to reduce free space to <=5, got %d", s.TxFree())
	}
}

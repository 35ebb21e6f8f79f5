package pipeline

import "testing"

func TestBackPressureMonitor_NoReportWhenClear(t *testing.T) {
	m := NewBackPressureMonitor(20, 1000)
	blocked, line := m.Check(100, 0)
	if blocked || line != "" {
		t.Fatalf("expected no block/line when tx_free is above threshold")
	}
}

func TestBackPressureMonitor_ThrottlesReportsToOncePerInterval(t *testing.T) {
	m := NewBackPressureMonitor(20, 1000)

	reports := 0
	for ms := uint32(0); ms < 3000; ms += 10 {
		blocked, line := m.Check(10, ms)
		if !blocked {
			t.Fatalf("expected blocked at ms=%d", ms)
		}
		if line != "" {
			reports++
		}
	}
	if reports != 3 {
		t.Fatalf("expected exactly 3 OFLOW reports over 3s at 1s interval, got %d", reports)
	}
}

func TestBackPressureMonitor_CountersAccumulate(t *testing.T) {
	m := NewBackPressureMonitor(20, 1000)
	for ms := uint32(0); ms < 100; ms += 10 {
		m.Check(5, ms)
	}
	if m.SkippedSamples() != 10 {
		t.Fatalf("expected 10 skipped samples, got %d", m.SkippedSamples())
	}
	if m.OverflowCount() != 10 {
		t.Fatalf("expected 10 overflow events, got %d", m.OverflowCount())
	}
}

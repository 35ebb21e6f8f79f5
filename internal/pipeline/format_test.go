package pipeline

import (
	"strings"
	"testing"
)

func TestDataLine_FullIncludesSourceAndAccuracy(t *testing.T) {
	line := DataLine(FormatFull, 42, 123456, 3, 1000.5, []int32{1, 2, 3})
	want := "42,123456,3,1000.50,1,2,3\n"
	if line != want {
		t.Fatalf("got %q want %q", line, want)
	}
}

func TestDataLine_CompactOmitsSourceAndAccuracy(t *testing.T) {
	line := DataLine(FormatCompact, 42, 123456, 3, 1000.5, []int32{1, 2, 3})
	want := "42,123456,1,2,3\n"
	if line != want {
		t.Fatalf("got %q want %q", line, want)
	}
}

func TestSessionHeader_HasPrefixAndFields(t *testing.T) {
	line := SessionHeader(1, 2, 100, 3, 5, 2, 0, "INTERNAL_RAW", 0)
	if !strings.HasPrefix(line, "SESSION:") {
		t.Fatalf("expected SESSION: prefix, got %q", line)
	}
	if !strings.Contains(line, "INTERNAL_RAW") {
		t.Fatalf("expected source name in session line, got %q", line)
	}
}

func TestHealthBeacon_HasStatPrefix(t *testing.T) {
	line := HealthBeacon("PPS_ACTIVE", 1.0, 0.0, true, 50, 0, 0, 0, 1, 2, 0)
	if !strings.HasPrefix(line, "STAT:") {
		t.Fatalf("expected STAT: prefix, got %q", line)
	}
}

func TestSequenceEventLine_Prefixes(t *testing.T) {
	gap := SequenceEventLine(SequenceGap, 5, 10)
	if !strings.HasPrefix(gap, "SEQUENCE_GAP:") {
		t.Fatalf("expected SEQUENCE_GAP: prefix, got %q", gap)
	}
	reset := SequenceEventLine(SequenceReset, 5000, 0)
	if !strings.HasPrefix(reset, "SEQUENCE_RESET:") {
		t.Fatalf("expected SEQUENCE_RESET: prefix, got %q", reset)
	}
}

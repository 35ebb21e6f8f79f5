package ppscapture

import (
	"context"
	"testing"
	"time"
)

type fakeRaw struct {
	micros, millis uint32
}

func (f *fakeRaw) RawMicros() uint32 { return f.micros }
func (f *fakeRaw) RawMillis() uint32 { return f.millis }

func TestHandoff_TakeClaimsAndClears(t *testing.T) {
	var h Handoff
	if _, ok := h.Take(); ok {
		t.Fatalf("expected no pending event initially")
	}
	h.Publish(Event{CapturedMicros: 100, CapturedMs: 1})
	ev, ok := h.Take()
	if !ok || ev.CapturedMicros != 100 {
		t.Fatalf("expected to claim the published event, got %+v ok=%v", ev, ok)
	}
	if _, ok := h.Take(); ok {
		t.Fatalf("expected Take to clear pending after the first claim")
	}
}

func TestSyntheticSource_PublishesAtInterval(t *testing.T) {
	var h Handoff
	raw := &fakeRaw{micros: 1000, millis: 1}
	src := &SyntheticSource{Raw: raw, Interval: 5 * time.Millisecond}

	ctx, cancel := context.WithTimeout(context.Background(), 18*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- src.Run(ctx, &h) }()

	time.Sleep(30 * time.Millisecond)
	<-done

	count := 0
	for {
		if _, ok := h.Take(); ok {
			count++
			continue
		}
		break
	}
	if count < 1 {
		t.Fatalf("expected at least one published edge, got %d", count)
	}
}

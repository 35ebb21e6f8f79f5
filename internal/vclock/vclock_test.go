package vclock

import "testing"

// fakeSource replays a scripted sequence of (micros, millis) readings.
type fakeSource struct {
	micros []uint32
	millis []uint32
	i      int
}

func (f *fakeSource) RawMicros() uint32 {
	v := f.micros[f.i]
	return v
}

func (f *fakeSource) RawMillis() uint32 {
	v := f.millis[f.i]
	f.i++
	return v
}

func newFake(pairs [][2]uint32) *fakeSource {
	f := &fakeSource{}
	for _, p := range pairs {
		f.micros = append(f.micros, p[0])
		f.millis = append(f.millis, p[1])
	}
	return f
}

func TestNowVirtualMicros_Monotonic(t *testing.T) {
	src := newFake([][2]uint32{
		{1000, 0},
		{2000, 0},
		{3000, 0},
	})
	c := New(src)
	var last uint64
	for i := 0; i < 3; i++ {
		v := c.NowVirtualMicros()
		if v < last {
			t.Fatalf("virtual clock went backward: %d -> %d", last, v)
		}
		last = v
	}
}

func TestNowVirtualMicros_Wraparound(t *testing.T) {
	src := newFake([][2]uint32{
		{4_200_000_000, 4_200_000},
		{100_000_000, 4_201_000}, // wraps: last>4e9, raw<3e8
	})
	c := New(src)
	first := c.NowVirtualMicros()
	second := c.NowVirtualMicros()

	if first != 4_200_000_000 {
		t.Fatalf("unexpected first reading: %d", first)
	}
	wantSecond := wraparoundSpan + 100_000_000
	if second != wantSecond {
		t.Fatalf("wraparound offset wrong: got %d want %d", second, wantSecond)
	}
	if second < first {
		t.Fatalf("wraparound broke monotonicity: %d -> %d", first, second)
	}
	if c.WraparoundCount() != 1 {
		t.Fatalf("expected wraparound_count=1, got %d", c.WraparoundCount())
	}
}

func TestNowVirtualMicros_BackwardJumpIsReset(t *testing.T) {
	src := newFake([][2]uint32{
		{10_000_000, 10_000},
		{500_000, 10_500}, // raw went backward by 9.5e6us, not a wraparound shape
	})
	c := New(src)
	first := c.NowVirtualMicros()
	second := c.NowVirtualMicros()

	if !c.ResetDetected() {
		t.Fatalf("expected reset to be detected")
	}
	if c.ResetCount() != 1 {
		t.Fatalf("expected reset_count=1, got %d", c.ResetCount())
	}
	if second < first {
		t.Fatalf("reset handling broke continuity: %d -> %d", first, second)
	}
}

func TestNowVirtualMicros_ResetJumpsForwardByRaw(t *testing.T) {
	src := newFake([][2]uint32{
		{10_000_000, 10_000},
		{500_000, 10_500}, // raw went backward by 9.5e6us, not a wraparound shape
	})
	c := New(src)
	first := c.NowVirtualMicros()
	second := c.NowVirtualMicros()

	wantSecond := first + 500_000
	if second != wantSecond {
		t.Fatalf("expected reset to jump forward by the new raw reading: got %d want %d", second, wantSecond)
	}
}

func TestNowVirtualMicros_MillisBackwardTriggersReset(t *testing.T) {
	src := newFake([][2]uint32{
		{50_000, 50_000},
		{51_000, 48_000}, // millis went backward by 2000ms
	})
	c := New(src)
	c.NowVirtualMicros()
	c.NowVirtualMicros()

	if !c.ResetDetected() {
		t.Fatalf("expected millis backward jump to trigger reset")
	}
}

func TestRecentReset_ClearsAfterHoldWindow(t *testing.T) {
	src := newFake([][2]uint32{
		{10_000_000, 10_000},
		{500_000, 10_500},
	})
	c := New(src)
	c.NowVirtualMicros()
	c.NowVirtualMicros()

	if !c.RecentReset(10_500) {
		t.Fatalf("expected recent reset immediately after")
	}
	if c.RecentReset(10_500 + ResetHoldMs) {
		t.Fatalf("expected reset to no longer be recent after hold window")
	}
}

func TestNowVirtualMicros_LowValueFromHighTriggersReset(t *testing.T) {
	src := newFake([][2]uint32{
		{20_000_000, 20_000},
		{1_000_000, 1_000}, // both dropped to low values from high readings
	})
	c := New(src)
	c.NowVirtualMicros()
	c.NowVirtualMicros()

	if !c.ResetDetected() {
		t.Fatalf("expected low-from-high readings to trigger reset")
	}
}

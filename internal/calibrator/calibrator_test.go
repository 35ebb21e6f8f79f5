package calibrator

import (
	"io"
	"testing"

	"github.com/shiwa/seismic-node/internal/calstore"
)

// memRWS is a minimal io.ReadWriteSeeker over an in-memory buffer.
type memRWS struct {
	buf []byte
	pos int64
}

func (m *memRWS) Read(p []byte) (int, error) {
	if m.pos >= int64(len(m.buf)) {
		return 0, io.EOF
	}
	n := copy(p, m.buf[m.pos:])
	m.pos += int64(n)
	return n, nil
}

func (m *memRWS) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.buf)) {
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}
	n := copy(m.buf[m.pos:end], p)
	m.pos = end
	return n, nil
}

func (m *memRWS) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		m.pos = offset
	case io.SeekCurrent:
		m.pos += offset
	case io.SeekEnd:
		m.pos = int64(len(m.buf)) + offset
	}
	return m.pos, nil
}

func newCalibrator() *Calibrator {
	return New(calstore.New(&memRWS{}))
}

func TestUpdate_BootstrapSetsDirectly(t *testing.T) {
	c := newCalibrator()
	// 5us fast interval -> error_ppm = -5 under the spec's reduced formula.
	c.Update(999_995, 25.0, false)
	if c.Ppm() != 5.0 {
		t.Fatalf("bootstrap should set ppm = -error_ppm directly, got %v", c.Ppm())
	}
	if !c.Valid() {
		t.Fatalf("expected calibration to be valid after first accepted event")
	}
}

func TestUpdate_SmoothsAfterBootstrap(t *testing.T) {
	c := newCalibrator()
	for i := 0; i < bootstrapEvents; i++ {
		c.Update(1_000_000, 25.0, false)
	}
	before := c.Ppm()
	c.Update(999_990, 25.0, false) // error_ppm = -10 -> target ppm = 10
	after := c.Ppm()
	want := smoothingOld*before + smoothingNew*10.0
	if after != want {
		t.Fatalf("expected smoothed ppm %v, got %v", want, after)
	}
}

func TestUpdate_RejectsLargeError(t *testing.T) {
	c := newCalibrator()
	warn, _ := c.Update(1_500_000, 25.0, false) // 500000us off, way past threshold
	if warn == "" {
		t.Fatalf("expected a rejection warning for a large interval error")
	}
	if c.Valid() {
		t.Fatalf("a rejected measurement must not validate the calibration")
	}
}

func TestUpdate_ClampsToRange(t *testing.T) {
	c := newCalibrator()
	c.Update(1_000_900, 25.0, false) // error_ppm=900, bootstrap sets ppm=-900 -> clamp to -200
	if c.Ppm() != -calstore.MaxAbsPpm {
		t.Fatalf("expected ppm clamped to -%v, got %v", calstore.MaxAbsPpm, c.Ppm())
	}
}

func TestUpdate_DebugEmittedEveryTenth(t *testing.T) {
	c := newCalibrator()
	var lastDebug string
	for i := 1; i <= debugEmitEvery; i++ {
		_, debug := c.Update(1_000_000, 25.0, false)
		lastDebug = debug
	}
	if lastDebug == "" {
		t.Fatalf("expected a debug line on the 10th accepted event")
	}
}

func TestSetManual_OverridesAndPersists(t *testing.T) {
	rws := &memRWS{}
	store := calstore.New(rws)
	c := New(store)
	if err := c.SetManual(42.5); err != nil {
		t.Fatalf("SetManual: %v", err)
	}
	if c.Ppm() != 42.5 || !c.Valid() {
		t.Fatalf("expected manual ppm to be installed and valid")
	}

	reloaded := New(calstore.New(rws))
	if reloaded.Ppm() != 42.5 || !reloaded.Valid() {
		t.Fatalf("expected manual override to survive a simulated power-cycle, got ppm=%v valid=%v", reloaded.Ppm(), reloaded.Valid())
	}
}

func TestSetManual_Clamps(t *testing.T) {
	c := newCalibrator()
	_ = c.SetManual(9000)
	if c.Ppm() != calstore.MaxAbsPpm {
		t.Fatalf("expected manual override to clamp to %v, got %v", calstore.MaxAbsPpm, c.Ppm())
	}
}

func TestUpdate_TemperatureLearnCadenceKeepsPpmClamped(t *testing.T) {
	c := newCalibrator()
	for i := 0; i < tempLearnAfter+tempLearnEvery; i++ {
		c.Update(1_000_000, 30.0, false) // constant 30C, equal to the primed reference, so dt=0
	}
	// reference temp was primed at 30 on the first call, so dt stays 0 and
	// the coefficient never engages; this just exercises the cadence path
	// without crashing or mis-clamping.
	if c.Ppm() < -calstore.MaxAbsPpm || c.Ppm() > calstore.MaxAbsPpm {
		t.Fatalf("ppm escaped clamp range: %v", c.Ppm())
	}
}

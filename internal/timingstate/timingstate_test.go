package timingstate

import "testing"

func TestClassify_Active(t *testing.T) {
	s, acc := Classify(Inputs{PpsValid: true, PpsAgeMs: 500})
	if s != ACTIVE {
		t.Fatalf("want ACTIVE, got %s", s)
	}
	if acc != 1.0 {
		t.Fatalf("want accuracy 1.0, got %v", acc)
	}
}

func TestClassify_Holdover(t *testing.T) {
	s, acc := Classify(Inputs{PpsValid: true, PpsAgeMs: 5_000, AgeS: 5})
	if s != HOLDOVER {
		t.Fatalf("want HOLDOVER, got %s", s)
	}
	want := 1.0 + 0.1*5
	if acc != want {
		t.Fatalf("want accuracy %v, got %v", want, acc)
	}
}

func TestClassify_Cal(t *testing.T) {
	s, _ := Classify(Inputs{PpsValid: false, CalibrationValid: true, PpsAgeMs: 120_000})
	if s != CAL {
		t.Fatalf("want CAL, got %s", s)
	}
}

func TestClassify_Raw(t *testing.T) {
	s, acc := Classify(Inputs{})
	if s != RAW {
		t.Fatalf("want RAW, got %s", s)
	}
	if acc != 1000.0 {
		t.Fatalf("want accuracy 1000, got %v", acc)
	}
}

func TestClassify_RawAfterRecentReset(t *testing.T) {
	s, acc := Classify(Inputs{PpsValid: true, PpsAgeMs: 100, RecentReset: true})
	if s != RAW {
		t.Fatalf("recent reset must force RAW regardless of PPS validity, got %s", s)
	}
	if acc != 2000.0 {
		t.Fatalf("want accuracy 2000 during reset window, got %v", acc)
	}
}

func TestMachine_WarnsOnceOnDowngrade(t *testing.T) {
	m := NewMachine()

	_, _, warn := m.Update(Inputs{PpsValid: true, PpsAgeMs: 100})
	if warn != "" {
		t.Fatalf("first observation must not warn, got %q", warn)
	}

	_, _, warn = m.Update(Inputs{PpsValid: true, PpsAgeMs: 5_000})
	if warn == "" {
		t.Fatalf("expected a downgrade warning on ACTIVE->HOLDOVER")
	}

	_, _, warn = m.Update(Inputs{PpsValid: true, PpsAgeMs: 5_000})
	if warn != "" {
		t.Fatalf("expected no repeat warning while state is unchanged, got %q", warn)
	}
}

func TestMachine_NoWarningOnUpgrade(t *testing.T) {
	m := NewMachine()
	m.Update(Inputs{})                                  // primes at RAW
	_, _, warn := m.Update(Inputs{PpsValid: true, PpsAgeMs: 10})
	if warn != "" {
		t.Fatalf("upgrades must not emit a warning, got %q", warn)
	}
	if m.Current() != ACTIVE {
		t.Fatalf("expected ACTIVE after upgrade, got %s", m.Current())
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault_IsFullyPopulated(t *testing.T) {
	c := Default()
	if c.ADC.Backend == "" || c.PPS.Backend == "" || c.Serial.Port == "" {
		t.Fatalf("expected Default to populate every backend/port field, got %+v", c)
	}
	if c.Stream.RateHz == 0 || c.Stream.Channels == 0 {
		t.Fatalf("expected Default to populate stream rate and channel count, got %+v", c.Stream)
	}
	if c.Beacon.IntervalMs == 0 {
		t.Fatalf("expected Default to populate the beacon interval")
	}
}

func TestLoad_FillsUnsetFieldsFromDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.yaml")
	yamlDoc := "stream:\n  rate_hz: 250\n  channels: 4\nserial:\n  port: /dev/ttyUSB3\n"
	if err := os.WriteFile(path, []byte(yamlDoc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if c.Stream.RateHz != 250 || c.Stream.Channels != 4 {
		t.Fatalf("expected the YAML overrides to take effect, got %+v", c.Stream)
	}
	if c.Serial.Port != "/dev/ttyUSB3" {
		t.Fatalf("expected the YAML serial port override, got %q", c.Serial.Port)
	}

	d := Default()
	if c.Serial.Baud != d.Serial.Baud {
		t.Fatalf("expected an unset baud to fall back to the default %d, got %d", d.Serial.Baud, c.Serial.Baud)
	}
	if c.ADC.Backend != d.ADC.Backend {
		t.Fatalf("expected an unset ADC backend to fall back to the default %q, got %q", d.ADC.Backend, c.ADC.Backend)
	}
	if c.Calibration.StorePath != d.Calibration.StorePath {
		t.Fatalf("expected an unset calibration store path to fall back to the default")
	}
}

func TestLoad_MissingFileReturnsError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml")); err == nil {
		t.Fatalf("expected Load to fail for a missing file")
	}
}

func TestLoad_InvalidYAMLReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("stream: [this is not a mapping"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected Load to fail for malformed YAML")
	}
}

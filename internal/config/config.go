// Package config loads the node's on-disk configuration: ADC wiring,
// transport device paths, calibration storage, and the defaults applied
// to a freshly booted stream before any SET_* command has run.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the node's top-level configuration.
type Config struct {
	ADC         ADCConfig         `yaml:"adc"`
	PPS         PPSConfig         `yaml:"pps"`
	Serial      SerialConfig      `yaml:"serial"`
	Calibration CalibrationConfig `yaml:"calibration"`
	Stream      StreamConfig      `yaml:"stream"`
	Beacon      BeaconConfig      `yaml:"beacon"`
}

// ADCConfig selects the converter backend and its SPI wiring.
type ADCConfig struct {
	Backend  string `yaml:"backend"` // "spi" or "synthetic"
	SPIBus   string `yaml:"spi_bus"`
	SPIHzMax int64  `yaml:"spi_hz_max"`
	DRDYPin  string `yaml:"drdy_pin"`
}

// PPSConfig selects the PPS capture backend and its device path.
type PPSConfig struct {
	Backend string `yaml:"backend"` // "kernel", "gpio", or "synthetic"
	Device  string `yaml:"device"`  // /dev/ppsN for "kernel"
	Pin     string `yaml:"pin"`     // GPIO pin name for "gpio"
}

// SerialConfig is the host-facing transport.
type SerialConfig struct {
	Port           string `yaml:"port"`
	Baud           int    `yaml:"baud"`
	BufferBytes    int    `yaml:"buffer_bytes"`
	OflowThreshold int    `yaml:"oflow_threshold_bytes"`
}

// CalibrationConfig is the persisted oscillator correction.
type CalibrationConfig struct {
	StorePath string `yaml:"store_path"`
}

// StreamConfig carries the defaults applied before any SET_* command.
type StreamConfig struct {
	RateHz             float64 `yaml:"rate_hz"`
	Channels           int     `yaml:"channels"`
	Gain               int     `yaml:"gain"`
	Filter             int     `yaml:"filter"`
	Dithering          int     `yaml:"dithering"`
	OutputFormat       string  `yaml:"output_format"` // "FULL" or "COMPACT"
	SequenceValidation bool    `yaml:"sequence_validation"`
}

// BeaconConfig controls the 1 Hz STAT health beacon.
type BeaconConfig struct {
	IntervalMs uint32 `yaml:"interval_ms"`
}

// Default returns the node's built-in configuration.
func Default() *Config {
	return &Config{
		ADC: ADCConfig{
			Backend:  "synthetic",
			SPIBus:   "/dev/spidev0.0",
			SPIHzMax: 1_000_000,
			DRDYPin:  "GPIO17",
		},
		PPS: PPSConfig{
			Backend: "synthetic",
			Device:  "/dev/pps0",
			Pin:     "GPIO18",
		},
		Serial: SerialConfig{
			Port:           "/dev/ttyUSB0",
			Baud:           115200,
			BufferBytes:    2048,
			OflowThreshold: 20,
		},
		Calibration: CalibrationConfig{
			StorePath: "/var/lib/seismic-node/cal.bin",
		},
		Stream: StreamConfig{
			RateHz:             100,
			Channels:           3,
			Gain:               1,
			Filter:             1,
			Dithering:          0,
			OutputFormat:       "FULL",
			SequenceValidation: true,
		},
		Beacon: BeaconConfig{
			IntervalMs: 1000,
		},
	}
}

// Load reads and parses a YAML config file, filling in any unset field
// from Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c := *Default()
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&c)
	return &c, nil
}

func applyDefaults(c *Config) {
	d := Default()
	if c.ADC.Backend == "" {
		c.ADC.Backend = d.ADC.Backend
	}
	if c.ADC.SPIBus == "" {
		c.ADC.SPIBus = d.ADC.SPIBus
	}
	if c.ADC.SPIHzMax == 0 {
		c.ADC.SPIHzMax = d.ADC.SPIHzMax
	}
	if c.ADC.DRDYPin == "" {
		c.ADC.DRDYPin = d.ADC.DRDYPin
	}
	if c.PPS.Backend == "" {
		c.PPS.Backend = d.PPS.Backend
	}
	if c.PPS.Device == "" {
		c.PPS.Device = d.PPS.Device
	}
	if c.PPS.Pin == "" {
		c.PPS.Pin = d.PPS.Pin
	}
	if c.Serial.Port == "" {
		c.Serial.Port = d.Serial.Port
	}
	if c.Serial.Baud == 0 {
		c.Serial.Baud = d.Serial.Baud
	}
	if c.Serial.BufferBytes == 0 {
		c.Serial.BufferBytes = d.Serial.BufferBytes
	}
	if c.Serial.OflowThreshold == 0 {
		c.Serial.OflowThreshold = d.Serial.OflowThreshold
	}
	if c.Calibration.StorePath == "" {
		c.Calibration.StorePath = d.Calibration.StorePath
	}
	if c.Stream.RateHz == 0 {
		c.Stream.RateHz = d.Stream.RateHz
	}
	if c.Stream.Channels == 0 {
		c.Stream.Channels = d.Stream.Channels
	}
	if c.Stream.Gain == 0 {
		c.Stream.Gain = d.Stream.Gain
	}
	if c.Stream.Filter == 0 {
		c.Stream.Filter = d.Stream.Filter
	}
	if c.Stream.OutputFormat == "" {
		c.Stream.OutputFormat = d.Stream.OutputFormat
	}
	if c.Beacon.IntervalMs == 0 {
		c.Beacon.IntervalMs = d.Beacon.IntervalMs
	}
}

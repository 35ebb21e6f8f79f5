// Package engine wires the node's six core components (virtual clock,
// PPS capture, timing state machine, oscillator calibrator, sample
// scheduler, output pipeline) plus the ambient ADC, transport,
// calibration-store and temperature collaborators into one daemon that
// drives the command protocol and the main sampling loop.
package engine

import (
	"fmt"
	"math"
	"os"

	"periph.io/x/conn/v3/driver/driverreg"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/shiwa/seismic-node/internal/adc"
	"github.com/shiwa/seismic-node/internal/calibrator"
	"github.com/shiwa/seismic-node/internal/calstore"
	"github.com/shiwa/seismic-node/internal/config"
	"github.com/shiwa/seismic-node/internal/logger"
	"github.com/shiwa/seismic-node/internal/pipeline"
	"github.com/shiwa/seismic-node/internal/platformclock"
	"github.com/shiwa/seismic-node/internal/ppscapture"
	"github.com/shiwa/seismic-node/internal/scheduler"
	"github.com/shiwa/seismic-node/internal/tempsensor"
	"github.com/shiwa/seismic-node/internal/timingstate"
	"github.com/shiwa/seismic-node/internal/transport"
	"github.com/shiwa/seismic-node/internal/vclock"
)

// minAdcThroughputMarginFactor is the "channels × oversample × stream_rate
// × 2" throughput floor §7's AdcTimeout verifier checks the configured
// ADC rate against, expressed here as the factor applied to the nominal
// per-channel conversion budget.
const minAdcThroughputMarginFactor = 2

// Engine is the node daemon: everything the command dispatcher and the
// main loop need, built once at startup from a config.Config.
type Engine struct {
	cfg *config.Config

	raw   platformclock.Source
	clock *vclock.Clock

	ppsHandoff *ppscapture.Handoff
	ppsSource  ppscapture.Source

	timing *timingstate.Machine
	calib  *calibrator.Calibrator
	temp   tempsensor.Sensor

	sched *scheduler.Schedule
	pipe  *pipeline.Pipeline
	sink  transport.Sink

	bootID   uint32
	streamID uint32

	streaming         bool
	headerSent        bool
	rateHz            float64
	channels          int
	gain              int
	filter            int
	adcRateIdx        int
	preciseIntervalUs int // 0 means "derive nominal interval from rateHz"

	streamStartSamples uint64

	ppsValid       bool
	ppsLastVirtual uint64
	ppsLastMs      uint32

	lastState        timingstate.State
	lastAccuracyUs   float64
	beaconPrimed     bool
	lastBeaconMs     uint32
	throughputWarned bool

	lastTempC float64
}

// New builds an Engine from cfg, opening the configured ADC, PPS, serial
// and calibration-store backends.
func New(cfg *config.Config) (*Engine, error) {
	calFile, err := openCalibrationFile(cfg.Calibration.StorePath)
	if err != nil {
		return nil, fmt.Errorf("engine: calibration store: %w", err)
	}
	calStore := calstore.New(calFile)

	conv, err := openConverter(cfg.ADC)
	if err != nil {
		return nil, fmt.Errorf("engine: adc: %w", err)
	}

	ppsHandoff := &ppscapture.Handoff{}
	raw := platformclock.Source{}
	ppsSource, err := openPpsSource(cfg.PPS, raw)
	if err != nil {
		return nil, fmt.Errorf("engine: pps: %w", err)
	}

	sink, err := openSink(cfg.Serial)
	if err != nil {
		return nil, fmt.Errorf("engine: transport: %w", err)
	}

	temp := openTempSensor()

	e := &Engine{
		cfg:        cfg,
		raw:        raw,
		clock:      vclock.New(raw),
		ppsHandoff: ppsHandoff,
		ppsSource:  ppsSource,
		timing:     timingstate.NewMachine(),
		calib:      calibrator.New(calStore),
		temp:       temp,
		sink:       sink,
		pipe:       pipeline.New(sink, conv, cfg.Stream.Channels, cfg.Stream.Dithering, cfg.Serial.OflowThreshold),
		bootID:     uint32(os.Getpid()),
		rateHz:     cfg.Stream.RateHz,
		channels:   cfg.Stream.Channels,
		gain:       cfg.Stream.Gain,
		filter:     cfg.Stream.Filter,
		adcRateIdx: 9,
		lastTempC:  25.0,
		lastState:  timingstate.RAW,
	}
	if cfg.Stream.OutputFormat == "COMPACT" {
		e.pipe.SetFormat(pipeline.FormatCompact)
	}
	e.pipe.SequenceValidator().SetEnabled(cfg.Stream.SequenceValidation)
	return e, nil
}

func openCalibrationFile(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
}

func openConverter(cfg config.ADCConfig) (adc.Converter, error) {
	switch cfg.Backend {
	case "spi":
		if _, err := host.Init(); err != nil {
			return nil, fmt.Errorf("host init: %w", err)
		}
		var drdy = gpioreg.ByName(cfg.DRDYPin)
		return adc.OpenSPIConverter(cfg.SPIBus, physic.Frequency(cfg.SPIHzMax)*physic.Hertz, drdy)
	default:
		return adc.NewSyntheticConverter(1, 2000), nil
	}
}

func openPpsSource(cfg config.PPSConfig, raw ppscapture.RawSource) (ppscapture.Source, error) {
	switch cfg.Backend {
	case "kernel":
		return &ppscapture.LinuxKernelSource{Path: cfg.Device, Raw: raw}, nil
	case "gpio":
		if _, err := driverreg.Init(); err != nil {
			return nil, fmt.Errorf("driverreg init: %w", err)
		}
		pin := gpioreg.ByName(cfg.Pin)
		return &ppscapture.GPIOEdgeSource{Pin: pin, Raw: raw}, nil
	default:
		return &ppscapture.SyntheticSource{Raw: raw}, nil
	}
}

func openSink(cfg config.SerialConfig) (transport.Sink, error) {
	if cfg.Port == "" || cfg.Port == "-" {
		return transport.NewRingSink(discardWriter{}, cfg.BufferBytes, cfg.Baud), nil
	}
	return transport.OpenSerial(cfg.Port, cfg.Baud)
}

func openTempSensor() tempsensor.Sensor {
	return tempsensor.ConstantSensor{Celsius: 25.0}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func (e *Engine) writeLine(line string) {
	if line == "" {
		return
	}
	if line[len(line)-1] != '\n' {
		line += "\n"
	}
	if _, err := e.sink.Write([]byte(line)); err != nil {
		logger.Error("write to sink: %v", err)
	}
}

func (e *Engine) ppsAgeMs(nowMs uint32) uint32 {
	if !e.ppsValid {
		return math.MaxUint32
	}
	if nowMs < e.ppsLastMs {
		return 0
	}
	return nowMs - e.ppsLastMs
}

func (e *Engine) nominalIntervalUs() float64 {
	if e.preciseIntervalUs > 0 {
		return float64(e.preciseIntervalUs)
	}
	return math.Floor(1_000_000.0 / e.rateHz)
}

// checkThroughput implements the one-shot AdcTimeout throughput verifier:
// it warns when the configured ADC rate cannot sustain
// channels x oversample x stream_rate x 2.
func (e *Engine) checkThroughput(dithering int) {
	if e.throughputWarned {
		return
	}
	overSample := 1.0
	if dithering >= 2 {
		overSample = float64(dithering)
	}
	needed := float64(e.channels) * overSample * e.rateHz * minAdcThroughputMarginFactor
	available := adc.RateSps(e.adcRateIdx)
	if available > 0 && needed > available {
		e.throughputWarned = true
		e.writeLine(fmt.Sprintf("WARNING:adc rate insufficient for %d channels x%.0f oversample at %.1fHz (needs %.0f sps, have %.0f sps)",
			e.channels, overSample, e.rateHz, needed, available))
	}
}

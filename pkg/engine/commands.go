package engine

import (
	"fmt"
	"time"

	"github.com/shiwa/seismic-node/internal/pipeline"
	"github.com/shiwa/seismic-node/internal/scheduler"
	"github.com/shiwa/seismic-node/internal/timingstate"
)

// syncSpinFarThreshold/syncSpinNearThreshold are the two spin-wait
// regime boundaries spec.md's synchronized start describes: sleep in
// coarse 200us chunks far from the deadline, then a single sleep that
// lands just short of it, then busy-wait the remainder.
const (
	syncSpinFarThresholdUs  = 3000
	syncSpinNearThresholdUs = 50
	syncSpinFarSleep        = 200 * time.Microsecond
)

// Streaming implements command.Engine.
func (e *Engine) Streaming() bool { return e.streaming }

func (e *Engine) beginStream(rateHz float64) {
	e.rateHz = rateHz
	e.sched = scheduler.NewSchedule(rateHz)
	e.sched.SetPpm(e.calib.Ppm())
	e.pipe.SetChannels(e.channels)
	e.headerSent = false
	e.streamStartSamples = e.pipe.SamplesGenerated()
	e.streaming = true
	e.checkThroughput(e.cfg.Stream.Dithering)
}

func (e *Engine) emitSessionHeader() {
	if e.headerSent {
		return
	}
	e.streamID++
	e.headerSent = true
	line := pipeline.SessionHeader(e.bootID, e.streamID, e.rateHz, e.channels, e.filter, e.gain,
		e.cfg.Stream.Dithering, e.lastState.SourceName(), e.calib.Ppm())
	e.writeLine(line)
}

// StartStream implements command.Engine.
func (e *Engine) StartStream(rateHz float64) error {
	if allowed, warn := pipeline.IsRateChangeAllowed(rateHz, e.rateHz, e.lastState == timingstate.ACTIVE); !allowed {
		return fmt.Errorf("rate change rejected while PPS active")
	} else if warn != "" {
		e.writeLine("WARNING:" + warn)
	}
	e.beginStream(rateHz)
	e.sched.StartImmediateAt(e.clock.NowVirtualMicros())
	return nil
}

// StartStreamSync implements command.Engine. It spin-waits to the
// deadline before returning, matching the firmware's single-threaded
// cooperative model: a synchronized start is itself a suspension point
// and nothing else runs on the foreground until it completes.
func (e *Engine) StartStreamSync(rateHz float64, delayMs int) error {
	e.beginStream(rateHz)
	target := e.clock.NowVirtualMicros() + uint64(delayMs)*1000
	for {
		now := e.clock.NowVirtualMicros()
		if now >= target {
			break
		}
		remaining := target - now
		switch {
		case remaining >= syncSpinFarThresholdUs:
			time.Sleep(syncSpinFarSleep)
		case remaining >= syncSpinNearThresholdUs:
			time.Sleep(time.Duration(remaining-syncSpinNearThresholdUs) * time.Microsecond)
		default:
			// inside 50us of the deadline: busy-wait.
		}
	}
	e.sched.StartAt(target, false)
	return nil
}

// StartStreamPPS implements command.Engine.
func (e *Engine) StartStreamPPS(rateHz float64, n int) error {
	e.beginStream(rateHz)
	e.sched.ArmPPSLocked(n)
	return nil
}

// StopStream implements command.Engine.
func (e *Engine) StopStream() uint64 {
	count := e.pipe.SamplesGenerated() - e.streamStartSamples
	e.streaming = false
	e.headerSent = false
	e.sched = nil
	return count
}

// SetAdcRate implements command.Engine.
func (e *Engine) SetAdcRate(index int) error {
	e.adcRateIdx = index
	e.checkThroughput(e.cfg.Stream.Dithering)
	return nil
}

// SetGain implements command.Engine.
func (e *Engine) SetGain(index int) error {
	e.gain = index
	return nil
}

// SetFilter implements command.Engine.
func (e *Engine) SetFilter(index int) error {
	e.filter = index
	return nil
}

// SetDithering implements command.Engine.
func (e *Engine) SetDithering(n int) error {
	e.cfg.Stream.Dithering = n
	e.pipe.SetDithering(n)
	e.throughputWarned = false
	e.checkThroughput(n)
	return nil
}

// SetChannels implements command.Engine.
func (e *Engine) SetChannels(n int) error {
	e.channels = n
	e.pipe.SetChannels(n)
	return nil
}

// SetPreciseInterval implements command.Engine.
func (e *Engine) SetPreciseInterval(intervalUs int) error {
	impliedRate := 1_000_000.0 / float64(intervalUs)
	if allowed, warn := pipeline.IsRateChangeAllowed(impliedRate, e.rateHz, e.lastState == timingstate.ACTIVE); !allowed {
		return fmt.Errorf("interval change rejected while PPS active")
	} else if warn != "" {
		e.writeLine("WARNING:" + warn)
	}
	e.preciseIntervalUs = intervalUs
	if e.sched != nil {
		e.sched.SetNominalIntervalUs(e.nominalIntervalUs())
	}
	return nil
}

// SetCalPpm implements command.Engine.
func (e *Engine) SetCalPpm(ppm float64) error {
	if err := e.calib.SetManual(ppm); err != nil {
		return err
	}
	if e.sched != nil {
		e.sched.SetPpm(e.calib.Ppm())
	}
	return nil
}

// SetOutputFormat implements command.Engine.
func (e *Engine) SetOutputFormat(format string) error {
	if format == "COMPACT" {
		e.pipe.SetFormat(pipeline.FormatCompact)
	} else {
		e.pipe.SetFormat(pipeline.FormatFull)
	}
	e.cfg.Stream.OutputFormat = format
	return nil
}

// SetSequenceValidation implements command.Engine.
func (e *Engine) SetSequenceValidation(on bool) error {
	e.pipe.SequenceValidator().SetEnabled(on)
	e.cfg.Stream.SequenceValidation = on
	return nil
}

// Status implements command.Engine.
func (e *Engine) Status() string {
	streaming := 0
	if e.streaming {
		streaming = 1
	}
	return fmt.Sprintf("STATUS:%d,%.3f,%d,%d,%d,%d,%d,%d",
		streaming, e.rateHz, e.channels, e.gain, e.filter, e.cfg.Stream.Dithering,
		e.pipe.SamplesGenerated(), e.pipe.AdcDeadlineMisses())
}

// TimingStatus implements command.Engine.
func (e *Engine) TimingStatus() string {
	nowMs := e.raw.RawMillis()
	return pipeline.HealthBeacon(e.lastState.SourceName(), e.lastAccuracyUs, e.calib.Ppm(),
		e.ppsValid, e.ppsAgeMs(nowMs), uint64(e.clock.WraparoundCount()),
		e.pipe.BackPressure().OverflowCount(), e.pipe.BackPressure().SkippedSamples(),
		e.bootID, e.streamID, e.pipe.AdcDeadlineMisses())
}

// Filter implements command.Engine.
func (e *Engine) Filter() string { return fmt.Sprintf("FILTER:%d", e.filter) }

// Dithering implements command.Engine.
func (e *Engine) Dithering() string { return fmt.Sprintf("DITHERING:%d", e.cfg.Stream.Dithering) }

// OutputFormat implements command.Engine.
func (e *Engine) OutputFormat() string { return fmt.Sprintf("OUTPUT_FORMAT:%s", e.cfg.Stream.OutputFormat) }

// SequenceValidation implements command.Engine.
func (e *Engine) SequenceValidation() string {
	state := "OFF"
	if e.cfg.Stream.SequenceValidation {
		state = "ON"
	}
	return fmt.Sprintf("SEQUENCE_VALIDATION:%s", state)
}

// Reset implements command.Engine.
func (e *Engine) Reset() {
	e.streaming = false
	e.headerSent = false
	e.sched = nil
	e.pipe.ResetSequence()
}

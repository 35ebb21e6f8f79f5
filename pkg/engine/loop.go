package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/shiwa/seismic-node/internal/command"
	"github.com/shiwa/seismic-node/internal/logger"
	"github.com/shiwa/seismic-node/internal/ppscapture"
	"github.com/shiwa/seismic-node/internal/timingstate"
)

// mainLoopTick bounds how long any one iteration waits before re-checking
// the schedule and the PPS handoff; it plays the role of the foreground's
// idle spin in the single-threaded cooperative model, not a sample clock
// of its own.
const mainLoopTick = 100 * time.Microsecond

// ppsMinPlausibleIntervalUs/ppsMaxPlausibleIntervalUs bound an accepted
// PPS-to-PPS interval to 900ms..1100ms; anything outside this range is a
// missed or spurious edge and is not fed to the calibrator.
const (
	ppsMinPlausibleIntervalUs = 900_000.0
	ppsMaxPlausibleIntervalUs = 1_100_000.0
)

// Run drives the node's main loop until ctx is cancelled: it starts the
// PPS capture source in the background, ticks the scheduler and timing
// state machine, and dispatches incoming command lines. Responses and
// data lines are written to the configured sink as they are produced.
func (e *Engine) Run(ctx context.Context, cmdLines <-chan string) error {
	ppsDone := make(chan error, 1)
	go func() { ppsDone <- e.ppsSource.Run(ctx, e.ppsHandoff) }()

	ticker := time.NewTicker(mainLoopTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-ppsDone:
			if err != nil && ctx.Err() == nil {
				logger.Error("pps capture stopped: %v", err)
			}
		case line, ok := <-cmdLines:
			if !ok {
				cmdLines = nil
				continue
			}
			e.writeLine(command.Dispatch(e, line))
		case <-ticker.C:
			e.tick()
		}
	}
}

// tick runs one foreground iteration: drain any pending PPS edge, refresh
// the timing-state classification, step the sample scheduler if a stream
// is active, and emit the 1Hz health beacon when due.
func (e *Engine) tick() {
	now := e.clock.NowVirtualMicros()
	nowMs := e.raw.RawMillis()

	if ev, ok := e.ppsHandoff.Take(); ok {
		e.handlePPSEvent(ev)
	}

	if warning := e.updateTimingState(nowMs); warning != "" {
		e.writeLine("WARNING:" + warning)
	}

	if e.streaming && e.sched != nil && !e.sched.PPSLockArmed() {
		if emit, skipped := e.sched.Step(now); emit {
			e.emitSessionHeader()
			res := e.pipe.Emit(nowMs, now, e.lastState.Code(), e.lastAccuracyUs)
			e.writeLine(res.OflowLine)
			e.writeLine(res.SeqEventLine)
			if skipped > 0 {
				e.writeLine(fmt.Sprintf("DEBUG:skipped %d effective interval(s)", skipped))
			}
		}
	}

	e.maybeEmitBeacon(nowMs)
}

// handlePPSEvent converts a captured edge to virtual time, feeds a
// plausible interval to the calibrator, and lets an active schedule react
// to the edge (completing a PPS-locked start or nudging the phase servo).
func (e *Engine) handlePPSEvent(ev ppscapture.Event) {
	virtual := e.clock.VirtualFromRaw(ev.CapturedMicros)

	if e.ppsValid {
		intervalUs := float64(virtual - e.ppsLastVirtual)
		if intervalUs >= ppsMinPlausibleIntervalUs && intervalUs <= ppsMaxPlausibleIntervalUs {
			if temp, err := e.temp.ReadCelsius(); err == nil {
				e.lastTempC = temp
			}
			warn, debug := e.calib.Update(intervalUs, e.lastTempC, e.lastState == timingstate.CAL)
			if warn != "" {
				e.writeLine("WARNING:" + warn)
			}
			if debug != "" {
				e.writeLine("DEBUG:" + debug)
			}
			if e.sched != nil {
				e.sched.SetPpm(e.calib.Ppm())
			}
		}
	}

	e.ppsValid = true
	e.ppsLastVirtual = virtual
	e.ppsLastMs = ev.CapturedMs

	if e.streaming && e.sched != nil {
		e.sched.HandlePPSEdge(virtual)
	}
}

// updateTimingState re-classifies the timing source for this tick and
// records the result for Status/TimingStatus/Emit to read.
func (e *Engine) updateTimingState(nowMs uint32) string {
	ageMs := e.ppsAgeMs(nowMs)
	state, acc, warning := e.timing.Update(timingstate.Inputs{
		PpsValid:         e.ppsValid,
		PpsAgeMs:         ageMs,
		CalibrationValid: e.calib.Valid(),
		RecentReset:      e.clock.RecentReset(nowMs),
		AgeS:             float64(ageMs) / 1000.0,
		Temp:             e.lastTempC,
	})
	e.lastState = state
	e.lastAccuracyUs = acc
	return warning
}

// maybeEmitBeacon writes the 1Hz (or as configured) STAT: line at most
// once per cfg.Beacon.IntervalMs.
func (e *Engine) maybeEmitBeacon(nowMs uint32) {
	if !e.beaconPrimed {
		e.beaconPrimed = true
		e.lastBeaconMs = nowMs
		return
	}
	if nowMs-e.lastBeaconMs < uint32(e.cfg.Beacon.IntervalMs) {
		return
	}
	e.lastBeaconMs = nowMs
	e.writeLine(e.TimingStatus())
}

// Package pipeline is the output stage: it turns one scheduled tick into
// a formatted sample line (or an OFLOW/SEQUENCE_* report), applying
// dithering oversample averaging, back-pressure throttling and sequence
// validation along the way.
package pipeline

import (
	"time"

	"github.com/shiwa/seismic-node/internal/adc"
	"github.com/shiwa/seismic-node/internal/transport"
)

// ditheringDelay separates successive oversamples of the same tick, per
// channel, to decorrelate quantisation noise between them.
const ditheringDelay = 50 * time.Microsecond

// Pipeline owns everything downstream of "a sample is due": reading the
// converter (with optional dithering), formatting a line, checking
// back-pressure, validating the sequence number, and writing to the sink.
type Pipeline struct {
	sink transport.Sink
	conv adc.Converter

	seq *SequenceValidator
	bp  *BackPressureMonitor

	format    OutputFormat
	channels  int
	dithering int

	sequence          uint16
	samplesGenerated  uint64
	adcDeadlineMisses uint64
}

// New builds a Pipeline writing to sink, reading from conv, with channels
// active channels and the given dithering oversample multiplier (0
// disables oversampling). oflowThresholdBytes configures the back-pressure
// monitor's tx-free trigger; callers pass 0 to take DefaultTxFreeThresholdBytes.
func New(sink transport.Sink, conv adc.Converter, channels, dithering, oflowThresholdBytes int) *Pipeline {
	if oflowThresholdBytes <= 0 {
		oflowThresholdBytes = DefaultTxFreeThresholdBytes
	}
	return &Pipeline{
		sink:      sink,
		conv:      conv,
		seq:       NewSequenceValidator(),
		bp:        NewBackPressureMonitor(oflowThresholdBytes, DefaultOflowReportIntervalMs),
		format:    FormatFull,
		channels:  channels,
		dithering: dithering,
	}
}

// SetFormat switches between full and compact line formats.
func (p *Pipeline) SetFormat(f OutputFormat) { p.format = f }

// SetChannels changes the active channel count. Callers are responsible
// for only doing this while not streaming, per the command protocol.
func (p *Pipeline) SetChannels(n int) { p.channels = n }

// SetDithering changes the oversample multiplier (0, 2, 3 or 4).
func (p *Pipeline) SetDithering(n int) { p.dithering = n }

// SequenceValidator exposes the validator so SET_SEQUENCE_VALIDATION can
// toggle it.
func (p *Pipeline) SequenceValidator() *SequenceValidator { return p.seq }

// ResetSequence resets the outgoing sequence counter and the validator's
// expectation together, used by RESET and stream restarts.
func (p *Pipeline) ResetSequence() {
	p.sequence = 0
	p.seq = NewSequenceValidator()
}

// AdcDeadlineMisses reports the cumulative count of ADC data-ready
// timeouts.
func (p *Pipeline) AdcDeadlineMisses() uint64 { return p.adcDeadlineMisses }

// SamplesGenerated reports the cumulative count of emitted data lines.
func (p *Pipeline) SamplesGenerated() uint64 { return p.samplesGenerated }

// BackPressure exposes the monitor for status queries and the health
// beacon.
func (p *Pipeline) BackPressure() *BackPressureMonitor { return p.bp }

// EmitResult bundles everything one Emit call can produce; a field is
// empty/zero when that line or condition didn't apply this call.
type EmitResult struct {
	DataLine     string
	OflowLine    string
	SeqEventLine string
	Dropped      bool // true when back-pressure dropped this sample entirely
}

// Emit performs one scheduler-tick's worth of output: back-pressure check
// first, then (if not dropped) an ADC read, sequence validation, and line
// formatting.
func (p *Pipeline) Emit(nowMs uint32, timestamp uint64, timingSourceCode int, accuracyUs float64) EmitResult {
	txFree := p.sink.TxFree()
	blocked, oflow := p.bp.Check(txFree, nowMs)
	if blocked {
		return EmitResult{OflowLine: oflow, Dropped: true}
	}

	values := p.readChannels()

	expected := p.seq.Expected()
	kind := p.seq.Check(p.sequence)
	var seqLine string
	if kind != SequenceOK {
		seqLine = SequenceEventLine(kind, expected, p.sequence)
	}

	line := DataLine(p.format, p.sequence, timestamp, timingSourceCode, accuracyUs, values)
	p.sink.Write([]byte(line))

	p.sequence++
	p.samplesGenerated++

	return EmitResult{DataLine: line, SeqEventLine: seqLine}
}

// readChannels performs one convert-and-read cycle per channel, averaging
// dithering oversamples when enabled.
func (p *Pipeline) readChannels() []int32 {
	oversamples := 1
	if p.dithering >= 2 {
		oversamples = p.dithering
	}

	sums := make([]int64, p.channels)
	for i := 0; i < oversamples; i++ {
		sample, missed, err := p.conv.Read(p.channels)
		if missed {
			p.adcDeadlineMisses++
		}
		if err == nil {
			for ch := 0; ch < p.channels && ch < len(sample.Values); ch++ {
				sums[ch] += int64(sample.Values[ch])
			}
		}
		if i < oversamples-1 {
			time.Sleep(ditheringDelay)
		}
	}

	values := make([]int32, p.channels)
	for ch := range values {
		values[ch] = int32(sums[ch] / int64(oversamples))
	}
	return values
}

// Package command parses and dispatches the node's line-oriented ASCII
// control protocol against an Engine, one handler per command.
package command

import (
	"fmt"
	"strings"
)

// Command is one parsed protocol line.
type Command struct {
	Name string
	Args []string
}

// Parse splits a line into its command name and comma-separated
// arguments. A line with no ':' is a bare command with no arguments.
func Parse(line string) Command {
	line = strings.TrimRight(line, "\r\n")
	line = strings.TrimSpace(line)
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return Command{Name: line}
	}
	name := line[:idx]
	rest := line[idx+1:]
	var args []string
	if rest != "" {
		args = strings.Split(rest, ",")
	}
	return Command{Name: name, Args: args}
}

// Engine is everything the dispatcher needs from the rest of the node.
// Handlers are written against this interface rather than a concrete
// engine type so the protocol layer stays testable in isolation.
type Engine interface {
	Streaming() bool

	StartStream(rateHz float64) error
	StartStreamSync(rateHz float64, delayMs int) error
	StartStreamPPS(rateHz float64, n int) error
	StopStream() uint64

	SetAdcRate(index int) error
	SetGain(index int) error
	SetFilter(index int) error
	SetDithering(n int) error
	SetChannels(n int) error
	SetPreciseInterval(intervalUs int) error
	SetCalPpm(ppm float64) error
	SetOutputFormat(format string) error
	SetSequenceValidation(on bool) error

	Status() string
	TimingStatus() string
	Filter() string
	Dithering() string
	OutputFormat() string
	SequenceValidation() string

	Reset()
}

type handlerFunc func(Engine, []string) string

var queryHandlers = map[string]handlerFunc{
	"GET_STATUS":              func(e Engine, _ []string) string { return e.Status() },
	"GET_TIMING_STATUS":       func(e Engine, _ []string) string { return e.TimingStatus() },
	"GET_FILTER":              func(e Engine, _ []string) string { return e.Filter() },
	"GET_DITHERING":           func(e Engine, _ []string) string { return e.Dithering() },
	"GET_OUTPUT_FORMAT":       func(e Engine, _ []string) string { return e.OutputFormat() },
	"GET_SEQUENCE_VALIDATION": func(e Engine, _ []string) string { return e.SequenceValidation() },
}

var mutatingHandlers = map[string]handlerFunc{
	"START_STREAM":            handleStartStream,
	"START_STREAM_SYNC":       handleStartStreamSync,
	"START_STREAM_PPS":        handleStartStreamPPS,
	"STOP_STREAM":             handleStopStream,
	"SET_ADC_RATE":            handleSetAdcRate,
	"SET_GAIN":                handleSetGain,
	"SET_FILTER":              handleSetFilter,
	"SET_DITHERING":           handleSetDithering,
	"SET_CHANNELS":            handleSetChannels,
	"SET_PRECISE_INTERVAL":    handleSetPreciseInterval,
	"SET_CAL_PPM":             handleSetCalPpm,
	"SET_OUTPUT_FORMAT":       handleSetOutputFormat,
	"SET_SEQUENCE_VALIDATION": handleSetSequenceValidation,
	"RESET":                   handleReset,
}

// Dispatch parses line and runs the matching handler, returning the
// response line. An unrecognised command name yields an ERROR: line
// rather than a panic or silent drop.
func Dispatch(eng Engine, line string) string {
	cmd := Parse(line)
	if cmd.Name == "" {
		return "ERROR:empty command"
	}
	if h, ok := queryHandlers[cmd.Name]; ok {
		return h(eng, cmd.Args)
	}
	if h, ok := mutatingHandlers[cmd.Name]; ok {
		return h(eng, cmd.Args)
	}
	return fmt.Sprintf("ERROR:unknown command %s", cmd.Name)
}

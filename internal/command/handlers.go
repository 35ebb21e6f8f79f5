package command

import (
	"fmt"
	"strconv"
	"strings"
)

func errorf(format string, args ...interface{}) string {
	return "ERROR:" + fmt.Sprintf(format, args...)
}

func parseFloatArg(args []string, i int) (float64, bool) {
	if i >= len(args) {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(args[i]), 64)
	return v, err == nil
}

func parseIntArg(args []string, i int) (int, bool) {
	if i >= len(args) {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSpace(args[i]))
	return v, err == nil
}

func handleStartStream(e Engine, args []string) string {
	rate, ok := parseFloatArg(args, 0)
	if !ok || rate <= 0 || rate > 1000 {
		return errorf("START_STREAM requires 0<rate_hz<=1000")
	}
	if err := e.StartStream(rate); err != nil {
		return errorf("%v", err)
	}
	return fmt.Sprintf("OK:streaming at %g Hz", rate)
}

func handleStartStreamSync(e Engine, args []string) string {
	rate, ok := parseFloatArg(args, 0)
	if !ok || rate <= 0 || rate > 1000 {
		return errorf("START_STREAM_SYNC requires 0<rate_hz<=1000")
	}
	delayMs, ok := parseIntArg(args, 1)
	if !ok || delayMs < 0 || delayMs >= 10000 {
		return errorf("START_STREAM_SYNC requires 0<=delay_ms<10000")
	}
	if err := e.StartStreamSync(rate, delayMs); err != nil {
		return errorf("%v", err)
	}
	return fmt.Sprintf("OK:synchronized start armed at %g Hz in %dms", rate, delayMs)
}

func handleStartStreamPPS(e Engine, args []string) string {
	rate, ok := parseFloatArg(args, 0)
	if !ok || rate <= 0 || rate > 1000 {
		return errorf("START_STREAM_PPS requires 0<rate_hz<=1000")
	}
	n, ok := parseIntArg(args, 1)
	if !ok || n < 1 || n > 5 {
		return errorf("START_STREAM_PPS requires 1<=n<=5")
	}
	if err := e.StartStreamPPS(rate, n); err != nil {
		return errorf("%v", err)
	}
	return fmt.Sprintf("OK:PPS-locked start armed at %g Hz on edge %d", rate, n)
}

func handleStopStream(e Engine, _ []string) string {
	count := e.StopStream()
	return fmt.Sprintf("OK:stopped after %d samples", count)
}

func handleSetAdcRate(e Engine, args []string) string {
	if e.Streaming() {
		return errorf("SET_ADC_RATE not allowed while streaming")
	}
	idx, ok := parseIntArg(args, 0)
	if !ok || idx < 1 || idx > 16 {
		return errorf("SET_ADC_RATE requires 1<=index<=16")
	}
	if err := e.SetAdcRate(idx); err != nil {
		return errorf("%v", err)
	}
	return "OK:adc rate set"
}

func handleSetGain(e Engine, args []string) string {
	if e.Streaming() {
		return errorf("SET_GAIN not allowed while streaming")
	}
	idx, ok := parseIntArg(args, 0)
	if !ok || idx < 1 || idx > 6 {
		return errorf("SET_GAIN requires 1<=index<=6")
	}
	if err := e.SetGain(idx); err != nil {
		return errorf("%v", err)
	}
	return "OK:gain set"
}

func handleSetFilter(e Engine, args []string) string {
	if e.Streaming() {
		return errorf("SET_FILTER not allowed while streaming")
	}
	idx, ok := parseIntArg(args, 0)
	if !ok || idx < 1 || idx > 5 {
		return errorf("SET_FILTER requires 1<=index<=5")
	}
	if err := e.SetFilter(idx); err != nil {
		return errorf("%v", err)
	}
	return "OK:filter set"
}

func handleSetDithering(e Engine, args []string) string {
	n, ok := parseIntArg(args, 0)
	if !ok || (n != 0 && n != 2 && n != 3 && n != 4) {
		return errorf("SET_DITHERING requires 0, 2, 3, or 4")
	}
	if err := e.SetDithering(n); err != nil {
		return errorf("%v", err)
	}
	return "OK:dithering set"
}

func handleSetChannels(e Engine, args []string) string {
	if e.Streaming() {
		return errorf("SET_CHANNELS not allowed while streaming")
	}
	n, ok := parseIntArg(args, 0)
	if !ok || n < 1 || n > 3 {
		return errorf("SET_CHANNELS requires 1<=channels<=3")
	}
	if err := e.SetChannels(n); err != nil {
		return errorf("%v", err)
	}
	return "OK:channels set"
}

func handleSetPreciseInterval(e Engine, args []string) string {
	us, ok := parseIntArg(args, 0)
	if !ok || us < 9900 || us > 10100 {
		return errorf("SET_PRECISE_INTERVAL requires 9900<=interval_us<=10100")
	}
	if err := e.SetPreciseInterval(us); err != nil {
		return errorf("%v", err)
	}
	return "OK:precise interval set"
}

func handleSetCalPpm(e Engine, args []string) string {
	ppm, ok := parseFloatArg(args, 0)
	if !ok {
		return errorf("SET_CAL_PPM requires a numeric ppm value")
	}
	if err := e.SetCalPpm(ppm); err != nil {
		return errorf("%v", err)
	}
	return fmt.Sprintf("OK:calibration set to %g ppm", ppm)
}

func handleSetOutputFormat(e Engine, args []string) string {
	if len(args) < 1 {
		return errorf("SET_OUTPUT_FORMAT requires COMPACT or FULL")
	}
	format := strings.ToUpper(strings.TrimSpace(args[0]))
	if format != "COMPACT" && format != "FULL" {
		return errorf("SET_OUTPUT_FORMAT requires COMPACT or FULL")
	}
	if err := e.SetOutputFormat(format); err != nil {
		return errorf("%v", err)
	}
	return "OK:output format set"
}

func handleSetSequenceValidation(e Engine, args []string) string {
	if len(args) < 1 {
		return errorf("SET_SEQUENCE_VALIDATION requires ON or OFF")
	}
	val := strings.ToUpper(strings.TrimSpace(args[0]))
	if val != "ON" && val != "OFF" {
		return errorf("SET_SEQUENCE_VALIDATION requires ON or OFF")
	}
	if err := e.SetSequenceValidation(val == "ON"); err != nil {
		return errorf("%v", err)
	}
	return "OK:sequence validation set"
}

func handleReset(e Engine, _ []string) string {
	e.Reset()
	return "OK:reset"
}

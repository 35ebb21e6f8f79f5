package pipeline

import (
	"fmt"
	"strconv"
	"strings"
)

// OutputFormat selects between the two line formats.
type OutputFormat int

const (
	// FormatFull includes timing_source and accuracy_us per line.
	FormatFull OutputFormat = iota
	// FormatCompact omits them, for minimal bandwidth.
	FormatCompact
)

// DataLine renders one sample line in the given format.
//
// Full:    seq,timestamp,timing_source,accuracy_us,v1,v2,v3
// Compact: seq,timestamp,v1,v2,v3
func DataLine(format OutputFormat, seq uint16, timestamp uint64, timingSourceCode int, accuracyUs float64, values []int32) string {
	var b strings.Builder
	b.WriteString(strconv.FormatUint(uint64(seq), 10))
	b.WriteByte(',')
	b.WriteString(strconv.FormatUint(timestamp, 10))
	if format == FormatFull {
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(timingSourceCode))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(accuracyUs, 'f', 2, 64))
	}
	for _, v := range values {
		b.WriteByte(',')
		b.WriteString(strconv.FormatInt(int64(v), 10))
	}
	b.WriteByte('\n')
	return b.String()
}

// SessionHeader renders the once-per-stream SESSION: line.
func SessionHeader(bootID, streamID uint32, rateHz float64, channels int, filter, gain, dithering int, sourceName string, ppm float64) string {
	return fmt.Sprintf("SESSION:%d,%d,%s,%d,%d,%d,%d,%s,%.2f\n",
		bootID, streamID, strconv.FormatFloat(rateHz, 'f', -1, 64), channels, filter, gain, dithering, sourceName, ppm)
}

// HealthBeacon renders the 1Hz STAT: line.
func HealthBeacon(sourceName string, accuracyUs, ppm float64, ppsValid bool, ppsAgeMs uint32, wraparounds, overflows, skipped uint64, bootID, streamID uint32, adcDeadlineMisses uint64) string {
	ppsValidInt := 0
	if ppsValid {
		ppsValidInt = 1
	}
	return fmt.Sprintf("STAT:%s,%.2f,%.2f,%d,%d,%d,%d,%d,%d,%d,%d\n",
		sourceName, accuracyUs, ppm, ppsValidInt, ppsAgeMs, wraparounds, overflows, skipped, bootID, streamID, adcDeadlineMisses)
}

// SequenceEventLine renders a SEQUENCE_GAP: or SEQUENCE_RESET: line.
func SequenceEventLine(kind SequenceKind, expected, actual uint16) string {
	prefix := "SEQUENCE_GAP"
	if kind == SequenceReset {
		prefix = "SEQUENCE_RESET"
	}
	return fmt.Sprintf("%s:%d,%d\n", prefix, expected, actual)
}

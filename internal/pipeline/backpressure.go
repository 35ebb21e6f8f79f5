package pipeline

import "fmt"

// DefaultTxFreeThresholdBytes and DefaultOflowReportIntervalMs are the
// back-pressure defaults named in the external interface.
const (
	DefaultTxFreeThresholdBytes  = 20
	DefaultOflowReportIntervalMs = 1000
)

// BackPressureMonitor watches the sink's remaining transmit-buffer space
// and throttles OFLOW reporting to at most one line per report interval,
// even while back-pressure persists across many samples.
type BackPressureMonitor struct {
	thresholdBytes   int
	reportIntervalMs uint32

	skippedSamples uint64
	overflowCount  uint64

	everReported bool
	lastReportMs uint32
}

// NewBackPressureMonitor builds a monitor with the given threshold and
// report interval.
func NewBackPressureMonitor(thresholdBytes int, reportIntervalMs uint32) *BackPressureMonitor {
	return &BackPressureMonitor{thresholdBytes: thresholdBytes, reportIntervalMs: reportIntervalMs}
}

// Check evaluates txFree at nowMs. blocked is true when the sample should
// be dropped rather than emitted; line is non-empty at most once per
// reportIntervalMs while blocked remains true.
func (m *BackPressureMonitor) Check(txFree int, nowMs uint32) (blocked bool, line string) {
	if txFree >= m.thresholdBytes {
		return false, ""
	}

	m.overflowCount++
	m.skippedSamples++

	if !m.everReported || nowMs-m.lastReportMs >= m.reportIntervalMs {
		m.everReported = true
		m.lastReportMs = nowMs
		line = fmt.Sprintf("OFLOW:%d,%d,%d", m.skippedSamples, m.overflowCount, txFree)
	}
	return true, line
}

// SkippedSamples and OverflowCount feed the health beacon's counters.
func (m *BackPressureMonitor) SkippedSamples() uint64 { return m.skippedSamples }
func (m *BackPressureMonitor) OverflowCount() uint64  { return m.overflowCount }

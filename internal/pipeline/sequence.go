package pipeline

// SequenceKind classifies a sequence-number mismatch.
type SequenceKind int

const (
	// SequenceOK means the observed value matched what was expected.
	SequenceOK SequenceKind = iota
	// SequenceGap means the value advanced unexpectedly but not by a large
	// backward jump; informational only.
	SequenceGap
	// SequenceReset means a large backward jump occurred, classified as a
	// sequence reset rather than a gap.
	SequenceReset
)

// resetBackwardThreshold is the backward-jump size past which a mismatch
// is classified as a reset instead of a gap.
const resetBackwardThreshold = 1000

// SequenceValidator tracks the expected next sequence number mod 2^16 and
// classifies mismatches without ever halting emission: every check
// realigns to the observed value so the stream continues.
type SequenceValidator struct {
	expected uint16
	primed   bool
	enabled  bool
}

// NewSequenceValidator returns a validator with reporting enabled by
// default.
func NewSequenceValidator() *SequenceValidator {
	return &SequenceValidator{enabled: true}
}

// SetEnabled toggles gap/reset reporting. Disabling does not stop the
// validator from tracking state, only from reporting mismatches.
func (v *SequenceValidator) SetEnabled(enabled bool) { v.enabled = enabled }

// Enabled reports whether gap/reset reporting is active.
func (v *SequenceValidator) Enabled() bool { return v.enabled }

// Expected reports the next sequence number the validator currently
// expects, before a Check call realigns it.
func (v *SequenceValidator) Expected() uint16 { return v.expected }

// Check evaluates actual against the expected next sequence number,
// realigns internal state to actual, and returns the resulting
// classification.
func (v *SequenceValidator) Check(actual uint16) SequenceKind {
	if !v.primed {
		v.expected = actual
		v.primed = true
	}

	kind := SequenceOK
	if actual != v.expected && v.enabled {
		// backward is how far actual lies below expected; it is only a
		// backward jump when actual < expected, and only a reset when that
		// jump exceeds resetBackwardThreshold. Everything else is a gap.
		backward := v.expected - actual
		if actual < v.expected && backward > resetBackwardThreshold {
			kind = SequenceReset
		} else {
			kind = SequenceGap
		}
	}
	v.expected = actual + 1
	return kind
}

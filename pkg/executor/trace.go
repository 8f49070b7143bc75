package executor

import "time"

// TraceEntry records one step visit (spec.md §4.5).
type TraceEntry struct {
	StepID        string `json:"step_id"`
	StepName      string `json:"step_name,omitempty"`
	NanosElapsed  int64  `json:"nanos_elapsed"`
	OutcomeSummary string `json:"outcome"`
}

// tracer appends entries to a per-run buffer. The executor calls record
// unconditionally at each step; record itself no-ops when tracing is
// disabled, so the disabled cost is one boolean check per step rather
// than a buffer allocation and append (spec.md §9, "zero cost when
// disabled").
type tracer struct {
	enabled bool
	start   time.Time
	entries []TraceEntry
}

func newTracer(enabled bool, start time.Time) *tracer {
	t := &tracer{enabled: enabled, start: start}
	if enabled {
		t.entries = make([]TraceEntry, 0, 16)
	}
	return t
}

func (t *tracer) record(stepID, stepName, outcome string) {
	if !t.enabled {
		return
	}
	t.entries = append(t.entries, TraceEntry{
		StepID:        stepID,
		StepName:      stepName,
		NanosElapsed:  time.Since(t.start).Nanoseconds(),
		OutcomeSummary: outcome,
	})
}

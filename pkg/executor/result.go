package executor

import "github.com/pama-lee/ordo/pkg/value"

// Result is the success variant of Execute's output (spec.md §6,
// "Executor input/output"): {code, message, output, duration_us, trace?}.
type Result struct {
	Code         string                   `json:"code"`
	Message      string                   `json:"message,omitempty"`
	Output       map[string]value.Value   `json:"output,omitempty"`
	DurationMicros int64                  `json:"duration_us"`
	Trace        []TraceEntry             `json:"trace,omitempty"`
}

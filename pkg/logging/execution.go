package logging

// ExecutionLogger tags every log line for one Execute call with the
// ruleset's name/version and a generated execution ID, so a process
// running many rulesets concurrently can still grep one run out of the
// stream.
type ExecutionLogger struct {
	*ContextLogger
}

// NewExecutionLogger builds an ExecutionLogger on top of l, stamping
// rulesetName/rulesetVersion and a fresh request ID onto every entry.
func NewExecutionLogger(l *Logger, rulesetName, rulesetVersion string) *ExecutionLogger {
	cl := l.WithRequestID(NewRequestID()).WithFields(map[string]interface{}{
		"ruleset":         rulesetName,
		"ruleset_version": rulesetVersion,
	})
	return &ExecutionLogger{ContextLogger: cl}
}

// Step logs a single step transition during traversal.
func (e *ExecutionLogger) Step(stepID, kind, outcome string) {
	e.InfoWithFields("step", map[string]interface{}{
		"step_id": stepID,
		"kind":    kind,
		"outcome": outcome,
	})
}

// Terminal logs the result a run finished with.
func (e *ExecutionLogger) Terminal(code string, durationMicros int64) {
	e.InfoWithFields("terminal", map[string]interface{}{
		"code":            code,
		"duration_micros": durationMicros,
	})
}

// Failed logs the error class and message an Execute call aborted with.
func (e *ExecutionLogger) Failed(stepID, class, message string) {
	e.ErrorWithFields("execution failed", map[string]interface{}{
		"step_id": stepID,
		"class":   class,
		"error":   message,
	})
}

package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// StartExecutionSpan starts the span for one ruleset Execute call, tagged
// with the ruleset's name/version so a trace backend can group runs by
// ruleset. Callers must End() the returned span.
func StartExecutionSpan(ctx context.Context, rulesetName, rulesetVersion string) (context.Context, trace.Span) {
	return StartSpan(ctx, "ordo.execute",
		SpanKind.Internal,
		trace.WithAttributes(
			attribute.String("ordo.ruleset.name", rulesetName),
			attribute.String("ordo.ruleset.version", rulesetVersion),
		),
	)
}

// RecordStep adds a step-transition event to the current span.
func RecordStep(ctx context.Context, stepID, kind, outcome string) {
	AddEvent(ctx, "step",
		attribute.String("ordo.step.id", stepID),
		attribute.String("ordo.step.kind", kind),
		attribute.String("ordo.step.outcome", outcome),
	)
}

// EndExecution closes the span started by StartExecutionSpan, recording
// the terminal result code on success or the error on failure.
func EndExecution(ctx context.Context, span trace.Span, resultCode string, err error) {
	defer span.End()
	if err != nil {
		SetError(ctx, err)
		return
	}
	SetAttributes(ctx, attribute.String("ordo.result.code", resultCode))
}

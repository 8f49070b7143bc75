package tracing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/pama-lee/ordo/pkg/tracing"
)

func TestStartExecutionSpanTagsRuleset(t *testing.T) {
	recorder := withRecorder(t)

	ctx, span := tracing.StartExecutionSpan(context.Background(), "vip_discount", "3")
	tracing.RecordStep(ctx, "check_vip", "decision", "branch:vip_discount")
	tracing.EndExecution(ctx, span, "VIP", nil)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(spans))
	}
	got := spans[0]
	if got.Name() != "ordo.execute" {
		t.Fatalf("name = %q, want ordo.execute", got.Name())
	}

	attrs := map[string]string{}
	for _, a := range got.Attributes() {
		attrs[string(a.Key)] = a.Value.AsString()
	}
	if attrs["ordo.ruleset.name"] != "vip_discount" {
		t.Fatalf("attrs = %+v, missing ruleset name", attrs)
	}
	if attrs["ordo.ruleset.version"] != "3" {
		t.Fatalf("attrs = %+v, missing ruleset version", attrs)
	}
	if attrs["ordo.result.code"] != "VIP" {
		t.Fatalf("attrs = %+v, missing result code", attrs)
	}

	if len(got.Events()) != 1 {
		t.Fatalf("events = %d, want 1", len(got.Events()))
	}
	event := got.Events()[0]
	if event.Name != "step" {
		t.Fatalf("event name = %q, want step", event.Name)
	}
}

func TestEndExecutionRecordsError(t *testing.T) {
	recorder := withRecorder(t)

	ctx, span := tracing.StartExecutionSpan(context.Background(), "vip_discount", "3")
	tracing.EndExecution(ctx, span, "", errors.New("depth exceeded"))

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(spans))
	}
	if spans[0].Status().Description != "depth exceeded" {
		t.Fatalf("status description = %q, want depth exceeded", spans[0].Status().Description)
	}
}

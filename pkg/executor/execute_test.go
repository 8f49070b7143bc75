package executor_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/pama-lee/ordo/pkg/executor"
	"github.com/pama-lee/ordo/pkg/logging"
	"github.com/pama-lee/ordo/pkg/ordoerr"
	"github.com/pama-lee/ordo/pkg/ruleset"
	"github.com/pama-lee/ordo/pkg/value"
	"github.com/pama-lee/ordo/pkg/vm"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func input(t *testing.T, json string) value.Value {
	t.Helper()
	v, err := value.FromJSON([]byte(json))
	if err != nil {
		t.Fatalf("input: %v", err)
	}
	return v
}

func fixedClock(t *testing.T) vm.Clock {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, "2026-01-01T00:00:00Z")
	if err != nil {
		t.Fatalf("parse time: %v", err)
	}
	return vm.NewFixedClock(ts)
}

// vipDiscountRuleSet builds scenario S1: a Decision step on user.vip
// leading to one of two Terminals.
func vipDiscountRuleSet(fieldMissing string) *ruleset.RuleSet {
	vipOutput := ruleset.ExprMap{}
	vipOutput.Set("discount", "0.2")
	normalOutput := ruleset.ExprMap{}
	normalOutput.Set("discount", "0.05")

	return &ruleset.RuleSet{
		Config: ruleset.Config{
			Name:         "vip_discount",
			EntryStep:    "check_vip",
			FieldMissing: fieldMissing,
		},
		Steps: map[string]ruleset.Step{
			"check_vip": {
				ID:   "check_vip",
				Kind: ruleset.KindDecision,
				Branches: []ruleset.Branch{
					{Condition: "user.vip == true", NextStep: "vip_discount"},
				},
				DefaultNext: "normal_discount",
			},
			"vip_discount": {
				ID:   "vip_discount",
				Kind: ruleset.KindTerminal,
				Result: &ruleset.TerminalResult{
					Code:   "VIP",
					Output: vipOutput,
				},
			},
			"normal_discount": {
				ID:   "normal_discount",
				Kind: ruleset.KindTerminal,
				Result: &ruleset.TerminalResult{
					Code:   "NORMAL",
					Output: normalOutput,
				},
			},
		},
	}
}

func TestS1VIPDiscountVIPTrue(t *testing.T) {
	r := vipDiscountRuleSet("lenient")
	res, execErr := executor.Execute(r, input(t, `{"user":{"vip":true}}`), executor.Options{Clock: fixedClock(t)})
	if execErr != nil {
		t.Fatalf("execute: %v", execErr)
	}
	if res.Code != "VIP" {
		t.Fatalf("code = %q, want VIP", res.Code)
	}
	d := res.Output["discount"]
	if d.Kind() != value.KindFloat || d.AsFloat() != 0.2 {
		t.Fatalf("discount = %v, want 0.2", d)
	}
}

func TestS1VIPDiscountVIPFalse(t *testing.T) {
	r := vipDiscountRuleSet("lenient")
	res, execErr := executor.Execute(r, input(t, `{"user":{"vip":false}}`), executor.Options{Clock: fixedClock(t)})
	if execErr != nil {
		t.Fatalf("execute: %v", execErr)
	}
	if res.Code != "NORMAL" {
		t.Fatalf("code = %q, want NORMAL", res.Code)
	}
}

func TestS1VIPDiscountMissingLenient(t *testing.T) {
	r := vipDiscountRuleSet("lenient")
	res, execErr := executor.Execute(r, input(t, `{"user":{}}`), executor.Options{Clock: fixedClock(t)})
	if execErr != nil {
		t.Fatalf("execute: %v", execErr)
	}
	if res.Code != "NORMAL" {
		t.Fatalf("code = %q, want NORMAL", res.Code)
	}
}

func TestS1VIPDiscountMissingStrict(t *testing.T) {
	r := vipDiscountRuleSet("strict")
	_, execErr := executor.Execute(r, input(t, `{"user":{}}`), executor.Options{Clock: fixedClock(t)})
	if execErr == nil {
		t.Fatalf("expected MissingField error under strict policy")
	}
	if _, ok := execErr.Err.(*value.MissingFieldError); !ok {
		t.Fatalf("err = %T, want *value.MissingFieldError", execErr.Err)
	}
}

// TestS2ActionBindingAndReuse: an Action binds tax, then a Terminal
// reuses both the input and the bound variable.
func TestS2ActionBindingAndReuse(t *testing.T) {
	output := ruleset.ExprMap{}
	output.Set("total_with_tax", "order.total + tax")

	r := &ruleset.RuleSet{
		Config: ruleset.Config{Name: "tax", EntryStep: "set_tax", FieldMissing: "lenient"},
		Steps: map[string]ruleset.Step{
			"set_tax": {
				ID:   "set_tax",
				Kind: ruleset.KindAction,
				Assignments: []ruleset.Assignment{
					{Name: "tax", Value: "order.total * 0.1"},
				},
				NextStep: "done",
			},
			"done": {
				ID:   "done",
				Kind: ruleset.KindTerminal,
				Result: &ruleset.TerminalResult{
					Code:   "OK",
					Output: output,
				},
			},
		},
	}

	res, execErr := executor.Execute(r, input(t, `{"order":{"total":100}}`), executor.Options{Clock: fixedClock(t)})
	if execErr != nil {
		t.Fatalf("execute: %v", execErr)
	}
	got := res.Output["total_with_tax"]
	if got.AsFloat() != 110 {
		t.Fatalf("total_with_tax = %v, want 110", got)
	}
}

// TestS3CoalesceAndConditional exercises exists()/coalesce() inside a
// single Terminal message expression.
func TestS3CoalesceAndConditional(t *testing.T) {
	r := &ruleset.RuleSet{
		Config: ruleset.Config{Name: "greet", EntryStep: "greet", FieldMissing: "lenient"},
		Steps: map[string]ruleset.Step{
			"greet": {
				ID:   "greet",
				Kind: ruleset.KindTerminal,
				Result: &ruleset.TerminalResult{
					Code:    "OK",
					Message: `if exists(user.nickname) then user.nickname else coalesce(user.name, "Anonymous")`,
				},
			},
		},
	}

	cases := []struct {
		json string
		want string
	}{
		{`{"user":{"name":"Bob"}}`, "Bob"},
		{`{"user":{}}`, "Anonymous"},
		{`{"user":{"nickname":"B"}}`, "B"},
	}
	for _, c := range cases {
		res, execErr := executor.Execute(r, input(t, c.json), executor.Options{Clock: fixedClock(t)})
		if execErr != nil {
			t.Fatalf("execute(%s): %v", c.json, execErr)
		}
		if res.Message != c.want {
			t.Fatalf("execute(%s): message = %q, want %q", c.json, res.Message, c.want)
		}
	}
}

// TestS4DepthBound exercises two mutually referencing Action steps with
// a configured max_depth, expecting DepthExceeded after exactly
// max_depth step transitions.
func TestS4DepthBound(t *testing.T) {
	r := &ruleset.RuleSet{
		Config: ruleset.Config{
			Name:         "ping_pong",
			EntryStep:    "ping",
			FieldMissing: "lenient",
			MaxDepth:     100,
		},
		Steps: map[string]ruleset.Step{
			"ping": {
				ID:          "ping",
				Kind:        ruleset.KindAction,
				Assignments: []ruleset.Assignment{{Name: "n", Value: "1"}},
				NextStep:    "pong",
			},
			"pong": {
				ID:          "pong",
				Kind:        ruleset.KindAction,
				Assignments: []ruleset.Assignment{{Name: "n", Value: "1"}},
				NextStep:    "ping",
			},
		},
	}

	enableTrace := true
	_, execErr := executor.Execute(r, input(t, `{}`), executor.Options{Clock: fixedClock(t), EnableTrace: &enableTrace})
	if execErr == nil {
		t.Fatalf("expected DepthExceeded")
	}
	if execErr.Class != executor.ClassPermanent {
		t.Fatalf("class = %v, want permanent", execErr.Class)
	}
	if _, ok := execErr.Err.(*ordoerr.DepthExceeded); !ok {
		t.Fatalf("err = %T: %v, want *ordoerr.DepthExceeded", execErr.Err, execErr.Err)
	}
}

// TestExecuteIsDeterministic checks property 5: execute(r, i) with a
// fixed clock is a pure function of (r, i).
func TestExecuteIsDeterministic(t *testing.T) {
	r := vipDiscountRuleSet("lenient")
	in := input(t, `{"user":{"vip":true}}`)

	res1, err1 := executor.Execute(r, in, executor.Options{Clock: fixedClock(t)})
	res2, err2 := executor.Execute(r, in, executor.Options{Clock: fixedClock(t)})
	if err1 != nil || err2 != nil {
		t.Fatalf("execute errs: %v / %v", err1, err2)
	}
	if res1.Code != res2.Code || res1.Output["discount"].AsFloat() != res2.Output["discount"].AsFloat() {
		t.Fatalf("non-deterministic results: %+v vs %+v", res1, res2)
	}
}

// TestExecuteLogsSteps checks that an attached Logger observes every step
// transition and the terminal outcome, without affecting the result.
func TestExecuteLogsSteps(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.NewLogger(logging.LoggerConfig{
		Format:  logging.JSONFormat,
		Outputs: []io.Writer{&buf},
	})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	defer logger.Close()

	r := vipDiscountRuleSet("lenient")
	res, execErr := executor.Execute(r, input(t, `{"user":{"vip":true}}`), executor.Options{
		Clock:  fixedClock(t),
		Logger: logger,
	})
	if execErr != nil {
		t.Fatalf("execute: %v", execErr)
	}
	if res.Code != "VIP" {
		t.Fatalf("code = %q, want VIP", res.Code)
	}

	logger.Sync()
	out := buf.String()
	if !strings.Contains(out, `"ruleset":"vip_discount"`) {
		t.Fatalf("expected ruleset field in logged output:\n%s", out)
	}
	if !strings.Contains(out, `"outcome":"branch:vip_discount"`) {
		t.Fatalf("expected decision step logged:\n%s", out)
	}
	if !strings.Contains(out, `"code":"VIP"`) {
		t.Fatalf("expected terminal code logged:\n%s", out)
	}
}

// TestExecuteTracesSteps checks that an attached Context produces a span
// covering the whole run with one event per step transition, and that the
// span carries the ruleset's result code on success.
func TestExecuteTracesSteps(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(sdktrace.NewTracerProvider())

	r := vipDiscountRuleSet("lenient")
	res, execErr := executor.Execute(r, input(t, `{"user":{"vip":true}}`), executor.Options{
		Clock:   fixedClock(t),
		Context: context.Background(),
	})
	if execErr != nil {
		t.Fatalf("execute: %v", execErr)
	}
	if res.Code != "VIP" {
		t.Fatalf("code = %q, want VIP", res.Code)
	}

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(spans))
	}
	span := spans[0]
	if span.Name() != "ordo.execute" {
		t.Fatalf("span name = %q, want ordo.execute", span.Name())
	}

	var sawResultCode bool
	for _, a := range span.Attributes() {
		if string(a.Key) == "ordo.result.code" && a.Value.AsString() == "VIP" {
			sawResultCode = true
		}
	}
	if !sawResultCode {
		t.Fatalf("expected ordo.result.code=VIP attribute, got %+v", span.Attributes())
	}

	if len(span.Events()) != 1 || span.Events()[0].Name != "step" {
		t.Fatalf("expected one step event, got %+v", span.Events())
	}
}

// TestExecuteNoTracingWithoutContext checks that leaving Context unset
// records no spans, confirming tracing is opt-in.
func TestExecuteNoTracingWithoutContext(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(sdktrace.NewTracerProvider())

	r := vipDiscountRuleSet("lenient")
	_, execErr := executor.Execute(r, input(t, `{"user":{"vip":true}}`), executor.Options{Clock: fixedClock(t)})
	if execErr != nil {
		t.Fatalf("execute: %v", execErr)
	}
	if len(recorder.Ended()) != 0 {
		t.Fatalf("expected no spans without Context, got %d", len(recorder.Ended()))
	}
}

package executor

import (
	"context"
	"strconv"
	"time"

	"github.com/pama-lee/ordo/pkg/config"
	"github.com/pama-lee/ordo/pkg/logging"
	"github.com/pama-lee/ordo/pkg/ordoerr"
	"github.com/pama-lee/ordo/pkg/ruleset"
	"github.com/pama-lee/ordo/pkg/tracing"
	"github.com/pama-lee/ordo/pkg/value"
	"github.com/pama-lee/ordo/pkg/vm"
	"go.opentelemetry.io/otel/trace"
)

// Options configures a single Execute call. Clock defaults to the system
// clock when nil; External is optional, consulted only by a ruleset's
// call_external() expressions (spec.md §6). Logger is optional; when nil,
// Execute logs nothing. Context is optional; when non-nil, Execute wraps
// the run in an OpenTelemetry span (see pkg/tracing) and uses ctx as the
// span's parent. Stream is optional; when non-nil, Execute publishes one
// StreamEvent per step transition plus a final terminal event (see
// pkg/stream for the WebSocket-backed implementation).
type Options struct {
	Clock       vm.Clock
	External    vm.ExternalCall
	EnableTrace *bool // overrides Config.EnableTrace when non-nil
	Logger      *logging.Logger
	Context     context.Context
	Stream      Publisher
}

// StreamEvent is one step transition (or the terminal result) from a single
// Execute call, shaped for delivery to a Publisher.
type StreamEvent struct {
	Ruleset     string    `json:"ruleset"`
	Version     string    `json:"version"`
	ExecutionID string    `json:"execution_id"`
	StepID      string    `json:"step_id,omitempty"`
	Kind        string    `json:"kind,omitempty"` // "decision", "action" or "terminal"
	Outcome     string    `json:"outcome,omitempty"`
	Code        string    `json:"code,omitempty"` // set on the terminal event
	Error       string    `json:"error,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Publisher receives StreamEvents as an Execute call progresses. Execute
// never blocks materially on Publish: implementations are expected to
// buffer or drop rather than apply backpressure to rule evaluation.
type Publisher interface {
	Publish(event StreamEvent) error
}

// Execute runs r against input once, per the traversal algorithm in
// spec.md §4.5. It validates and compiles r on first use (both are
// idempotent and cached on r), then walks the step graph to a Terminal,
// a DepthExceeded, or a Timeout — or returns the first ExecutionError an
// expression evaluation raised.
//
// Execute is pure with respect to r and input: it never mutates either.
func Execute(r *ruleset.RuleSet, input value.Value, opts Options) (result *Result, execErr *ExecutionError) {
	if !r.IsValidated() {
		if err := r.Validate(); err != nil {
			return nil, &ExecutionError{Class: ClassPermanent, Err: err}
		}
	}
	if !r.IsCompiled() {
		if err := r.Compile(); err != nil {
			return nil, &ExecutionError{Class: ClassPermanent, Err: err}
		}
	}

	policy, err := r.Config.Policy()
	if err != nil {
		return nil, &ExecutionError{Class: ClassPermanent, Err: err}
	}

	maxDepth := r.Config.MaxDepth
	if maxDepth <= 0 {
		maxDepth = config.DefaultMaxDepth
	}
	timeoutMillis := r.Config.TimeoutMillis
	if timeoutMillis <= 0 {
		timeoutMillis = config.DefaultTimeoutMillis
	}

	clock := opts.Clock
	if clock == nil {
		clock = vm.SystemClock{}
	}

	enableTrace := r.Config.EnableTrace
	if opts.EnableTrace != nil {
		enableTrace = *opts.EnableTrace
	}

	start := time.Now()
	deadline := start.Add(time.Duration(timeoutMillis) * time.Millisecond)

	sc := newScope(input, policy, value.Null())
	machine := vm.New(sc, clock, opts.External, policy, value.Null())
	tr := newTracer(enableTrace, start)

	var elog *logging.ExecutionLogger
	if opts.Logger != nil {
		elog = logging.NewExecutionLogger(opts.Logger, r.Config.Name, r.Config.Version)
	}

	ctx := opts.Context
	var span trace.Span
	if ctx != nil {
		ctx, span = tracing.StartExecutionSpan(ctx, r.Config.Name, r.Config.Version)
		defer func() {
			code := ""
			var spanErr error
			if execErr != nil {
				spanErr = execErr.Err
			} else if result != nil {
				code = result.Code
			}
			tracing.EndExecution(ctx, span, code, spanErr)
		}()
	}

	var executionID string
	if opts.Stream != nil {
		executionID = r.Config.Name + "@" + r.Config.Version + "-" + strconv.FormatInt(start.UnixNano(), 36)
	}

	currentID := r.Config.EntryStep
	stepCount := 0

	for {
		if stepCount >= maxDepth {
			execErr := &ExecutionError{
				StepID: currentID,
				Class:  ClassPermanent,
				Err:    &ordoerr.DepthExceeded{MaxDepth: maxDepth},
			}
			if elog != nil {
				elog.Failed(currentID, execErr.Class.String(), execErr.Err.Error())
			}
			return nil, execErr
		}
		if time.Now().After(deadline) {
			execErr := &ExecutionError{
				StepID: currentID,
				Class:  ClassTransient,
				Err:    &ordoerr.Timeout{TimeoutMillis: timeoutMillis},
			}
			if elog != nil {
				elog.Failed(currentID, execErr.Class.String(), execErr.Err.Error())
			}
			return nil, execErr
		}

		step, ok := r.Steps[currentID]
		if !ok {
			execErr := &ExecutionError{StepID: currentID, Class: ClassPermanent, Err: errStepNotFound(currentID)}
			if elog != nil {
				elog.Failed(currentID, execErr.Class.String(), execErr.Err.Error())
			}
			return nil, execErr
		}

		switch step.Kind {
		case ruleset.KindDecision:
			nextID, outcome, execErr := runDecision(machine, &step)
			if execErr != nil {
				if elog != nil {
					elog.Failed(step.ID, execErr.Class.String(), execErr.Err.Error())
				}
				return nil, execErr
			}
			tr.record(step.ID, step.Name, outcome)
			if elog != nil {
				elog.Step(step.ID, "decision", outcome)
			}
			if span != nil {
				tracing.RecordStep(ctx, step.ID, "decision", outcome)
			}
			if opts.Stream != nil {
				publishStep(opts.Stream, r, executionID, step.ID, "decision", outcome)
			}
			currentID = nextID

		case ruleset.KindAction:
			outcome, execErr := runAction(machine, sc, &step)
			if execErr != nil {
				if elog != nil {
					elog.Failed(step.ID, execErr.Class.String(), execErr.Err.Error())
				}
				return nil, execErr
			}
			tr.record(step.ID, step.Name, outcome)
			if elog != nil {
				elog.Step(step.ID, "action", outcome)
			}
			if span != nil {
				tracing.RecordStep(ctx, step.ID, "action", outcome)
			}
			if opts.Stream != nil {
				publishStep(opts.Stream, r, executionID, step.ID, "action", outcome)
			}
			currentID = step.NextStep

		case ruleset.KindTerminal:
			result, execErr := runTerminal(machine, &step)
			if execErr != nil {
				if elog != nil {
					elog.Failed(step.ID, execErr.Class.String(), execErr.Err.Error())
				}
				return nil, execErr
			}
			tr.record(step.ID, step.Name, "terminal:"+result.Code)
			result.DurationMicros = time.Since(start).Microseconds()
			result.Trace = tr.entries
			if elog != nil {
				elog.Terminal(result.Code, result.DurationMicros)
			}
			if opts.Stream != nil {
				publishStep(opts.Stream, r, executionID, step.ID, "terminal", result.Code)
			}
			return result, nil

		default:
			execErr := &ExecutionError{StepID: step.ID, Class: ClassPermanent, Err: errUnknownStepKind(step.ID)}
			if elog != nil {
				elog.Failed(step.ID, execErr.Class.String(), execErr.Err.Error())
			}
			return nil, execErr
		}

		stepCount++
	}
}

// publishStep sends one StreamEvent to pub, best-effort: a Publish error
// never interrupts rule evaluation.
func publishStep(pub Publisher, r *ruleset.RuleSet, executionID, stepID, kind, outcomeOrCode string) {
	event := StreamEvent{
		Ruleset:     r.Config.Name,
		Version:     r.Config.Version,
		ExecutionID: executionID,
		StepID:      stepID,
		Kind:        kind,
		Timestamp:   time.Now(),
	}
	if kind == "terminal" {
		event.Code = outcomeOrCode
	} else {
		event.Outcome = outcomeOrCode
	}
	_ = pub.Publish(event)
}

func runDecision(machine *vm.VM, step *ruleset.Step) (nextID string, outcome string, execErr *ExecutionError) {
	for i := range step.Branches {
		b := &step.Branches[i]
		prog, err := b.CompiledCondition()
		if err != nil {
			return "", "", stepError(step.ID, err)
		}
		v, err := machine.Run(prog)
		if err != nil {
			return "", "", stepError(step.ID, err)
		}
		cond, err := machine.CoerceBool(v)
		if err != nil {
			return "", "", stepError(step.ID, err)
		}
		if cond {
			return b.NextStep, "branch:" + b.NextStep, nil
		}
	}
	return step.DefaultNext, "default:" + step.DefaultNext, nil
}

func runAction(machine *vm.VM, sc *scope, step *ruleset.Step) (outcome string, execErr *ExecutionError) {
	for i := range step.Assignments {
		a := &step.Assignments[i]
		prog, err := a.CompiledValue()
		if err != nil {
			return "", stepError(step.ID, err)
		}
		v, err := machine.Run(prog)
		if err != nil {
			return "", stepError(step.ID, err)
		}
		sc.bind(a.Name, v)
	}
	return "assignments:" + formatAssignmentNames(step.Assignments), nil
}

func formatAssignmentNames(assignments []ruleset.Assignment) string {
	names := ""
	for i, a := range assignments {
		if i > 0 {
			names += ","
		}
		names += a.Name
	}
	return names
}

func runTerminal(machine *vm.VM, step *ruleset.Step) (*Result, *ExecutionError) {
	res := step.Result
	result := &Result{Code: res.Code}

	if res.Message != "" {
		prog, err := res.CompiledMessage()
		if err != nil {
			return nil, stepError(step.ID, err)
		}
		v, err := machine.Run(prog)
		if err != nil {
			return nil, stepError(step.ID, err)
		}
		result.Message = v.String()
	}

	if res.Output.Len() > 0 {
		result.Output = make(map[string]value.Value, res.Output.Len())
		for _, key := range res.Output.Keys() {
			prog, err := res.CompiledOutput(key)
			if err != nil {
				return nil, stepError(step.ID, err)
			}
			v, err := machine.Run(prog)
			if err != nil {
				return nil, stepError(step.ID, err)
			}
			result.Output[key] = v
		}
	}

	return result, nil
}

package executor

import (
	"fmt"

	"github.com/pama-lee/ordo/pkg/ordoerr"
	"github.com/pama-lee/ordo/pkg/value"
)

// ErrorClass distinguishes a permanent failure (the same ruleset and
// input will fail again no matter how many times it's retried) from a
// transient one (retrying, possibly with more time or budget, could
// succeed), grounded on the FlowError permanent/transient split the
// broader corpus uses for step-level failure classification.
type ErrorClass int

const (
	ClassPermanent ErrorClass = iota
	ClassTransient
)

func (c ErrorClass) String() string {
	if c == ClassTransient {
		return "transient"
	}
	return "permanent"
}

// ExecutionError is the failure variant of Execute's result (spec.md
// §4.5's "ExecutionResult | ExecutionError"). It names the step that
// produced the failure and classifies it, so a host retrying at the
// transport layer can distinguish "bad input" from "ruleset bug" without
// parsing message strings.
type ExecutionError struct {
	StepID string
	Class  ErrorClass
	Err    error
}

func (e *ExecutionError) Unwrap() error { return e.Err }

func (e *ExecutionError) Error() string {
	if e.StepID == "" {
		return fmt.Sprintf("execution error (%s): %s", e.Class, e.Err)
	}
	return fmt.Sprintf("execution error in step %q (%s): %s", e.StepID, e.Class, e.Err)
}

// Kind delegates to the wrapped error's Kind when it carries one, so
// ExecutionError still participates in ordoerr.Format/Classify.
func (e *ExecutionError) Kind() ordoerr.Kind {
	if k, ok := e.Err.(ordoerr.Kinded); ok {
		return k.Kind()
	}
	return ordoerr.KindTypeError
}

// classify assigns an ErrorClass to an expression-evaluation failure.
// Every evaluation-time kind from spec.md §7 (TypeError, DomainError,
// DivisionByZero, ArithmeticError, ConversionError, MissingField) is a
// pure function of the same ruleset and input, so it is permanent: the
// rule itself is wrong, not the environment. Timeout depends on
// wall-clock conditions outside the ruleset's control, so it is the one
// transient kind the executor produces.
func classify(err error) ErrorClass {
	switch err.(type) {
	case *ordoerr.Timeout:
		return ClassTransient
	case *value.TypeError, *value.DomainError, *value.DivisionByZero,
		*value.ArithmeticError, *value.ConversionError, *value.MissingFieldError,
		*ordoerr.DepthExceeded:
		return ClassPermanent
	default:
		return ClassPermanent
	}
}

func stepError(stepID string, err error) *ExecutionError {
	return &ExecutionError{StepID: stepID, Class: classify(err), Err: err}
}

// Package ordoerr is the shared tagged error-kind taxonomy used across the
// engine (spec.md §7), plus CLI-facing color formatting adapted from the
// reference compiler's diagnostics.
package ordoerr

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Kind identifies a stable error category. Stable names matter more than
// Go type identity here — a host classifying errors across a process
// boundary (e.g. a JSON API) should switch on Kind().String().
type Kind int

const (
	KindSyntaxError Kind = iota
	KindUnknownFunction
	KindArityError
	KindValidationError
	KindTypeError
	KindDomainError
	KindDivisionByZero
	KindArithmeticError
	KindConversionError
	KindMissingField
	KindDepthExceeded
	KindTimeout
	KindSignatureError
	KindIntegrityError
	KindFormatError
)

func (k Kind) String() string {
	switch k {
	case KindSyntaxError:
		return "SyntaxError"
	case KindUnknownFunction:
		return "UnknownFunction"
	case KindArityError:
		return "ArityError"
	case KindValidationError:
		return "ValidationError"
	case KindTypeError:
		return "TypeError"
	case KindDomainError:
		return "DomainError"
	case KindDivisionByZero:
		return "DivisionByZero"
	case KindArithmeticError:
		return "ArithmeticError"
	case KindConversionError:
		return "ConversionError"
	case KindMissingField:
		return "MissingField"
	case KindDepthExceeded:
		return "DepthExceeded"
	case KindTimeout:
		return "Timeout"
	case KindSignatureError:
		return "SignatureError"
	case KindIntegrityError:
		return "IntegrityError"
	case KindFormatError:
		return "FormatError"
	default:
		return "UnknownError"
	}
}

// Kinded is implemented by every error this package's Classify/Format
// functions know how to fully render; errors that don't implement it are
// still formatted, just without a stable Kind tag.
type Kinded interface {
	error
	Kind() Kind
}

// Error is a discriminated, kind-tagged error carrying optional source
// position context, mirroring the reference CompileError/RuntimeError
// shape (file, line, column, snippet, suggestion) under a single type
// parameterized by Kind rather than two near-duplicate structs.
type Error struct {
	ErrKind  Kind
	Message  string
	Line     int
	Column   int
	Snippet  string
	Suggestion string
	Step     string // step id, when the error occurred during execution of a specific step
}

func (e *Error) Kind() Kind { return e.ErrKind }

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.ErrKind.String())
	if e.Step != "" {
		fmt.Fprintf(&b, " in step %q", e.Step)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " at line %d, column %d", e.Line, e.Column)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

// New builds a plain, position-less Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{ErrKind: kind, Message: message}
}

// WithPosition attaches source position and a snippet to err, returning a
// new *Error (or wrapping err's message if it isn't already one).
func WithPosition(err error, line, col int, source string) *Error {
	if err == nil {
		return nil
	}
	snippet := ExtractSnippet(source, line)
	if e, ok := err.(*Error); ok {
		e.Line = line
		e.Column = col
		e.Snippet = snippet
		return e
	}
	return &Error{ErrKind: KindSyntaxError, Message: err.Error(), Line: line, Column: col, Snippet: snippet}
}

// ExtractSnippet returns the line at (1-indexed) lineNum from source, or
// "" if out of range.
func ExtractSnippet(source string, lineNum int) string {
	if lineNum <= 0 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if lineNum > len(lines) {
		return ""
	}
	return lines[lineNum-1]
}

// fatal reports whether a kind should render in the CLI's fatal (red) vs.
// warning (yellow) style. Every current kind is fatal; Lint warnings are
// rendered separately by cmd/ordo and never carry a Kind.
func (k Kind) fatal() bool { return true }

// Format renders err for terminal output: bold kind, red for fatal kinds,
// yellow for warnings, with source position and snippet when present —
// the same layout the reference CLI uses for compiler diagnostics, but
// through fatih/color instead of raw ANSI escapes.
func Format(err error) string {
	if err == nil {
		return ""
	}
	kinded, ok := err.(Kinded)
	if !ok {
		return color.New(color.Bold, color.FgRed).Sprint("Error: ") + err.Error() + "\n"
	}

	kindColor := color.New(color.Bold, color.FgRed)
	if !kinded.Kind().fatal() {
		kindColor = color.New(color.Bold, color.FgYellow)
	}

	var b strings.Builder
	b.WriteString(kindColor.Sprint(kinded.Kind().String()))

	if e, ok := err.(*Error); ok {
		if e.Step != "" {
			fmt.Fprintf(&b, " in step %s", color.New(color.FgCyan).Sprint(e.Step))
		}
		if e.Line > 0 {
			fmt.Fprintf(&b, " at %s", color.New(color.FgBlue).Sprintf("line %d, column %d", e.Line, e.Column))
		}
		b.WriteString(": ")
		b.WriteString(e.Message)
		if e.Snippet != "" {
			fmt.Fprintf(&b, "\n  %s %s\n", color.New(color.FgHiBlack).Sprintf("%4d |", e.Line), e.Snippet)
		}
		if e.Suggestion != "" {
			fmt.Fprintf(&b, "\n  %s %s", color.New(color.Bold, color.FgGreen).Sprint("help:"), e.Suggestion)
		}
		return b.String()
	}

	b.WriteString(": ")
	b.WriteString(kinded.Error())
	return b.String()
}

// ValidationError carries every structural problem ruleset.Validate found,
// rather than just the first (spec.md §4.4).
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Kind() Kind { return KindValidationError }

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "validation error: " + e.Problems[0]
	}
	var b strings.Builder
	fmt.Fprintf(&b, "validation error: %d problems found:\n", len(e.Problems))
	for _, p := range e.Problems {
		fmt.Fprintf(&b, "  - %s\n", p)
	}
	return b.String()
}

// DepthExceeded is raised by the executor when a run's step count reaches
// its ruleset's configured max_depth.
type DepthExceeded struct {
	MaxDepth int
}

func (e *DepthExceeded) Kind() Kind { return KindDepthExceeded }
func (e *DepthExceeded) Error() string {
	return fmt.Sprintf("execution exceeded max_depth (%d steps)", e.MaxDepth)
}

// Timeout is raised by the executor when a run's wall-clock deadline has
// passed at a step boundary.
type Timeout struct {
	TimeoutMillis int
}

func (e *Timeout) Kind() Kind { return KindTimeout }
func (e *Timeout) Error() string {
	return fmt.Sprintf("execution exceeded timeout_ms (%d ms)", e.TimeoutMillis)
}

// SignatureError is raised by the .ordo loader when a signature is
// missing, untrusted, or fails verification.
type SignatureError struct {
	Message string
}

func (e *SignatureError) Kind() Kind   { return KindSignatureError }
func (e *SignatureError) Error() string { return "signature error: " + e.Message }

// IntegrityError is raised by the .ordo loader when the CRC-32 check
// fails.
type IntegrityError struct {
	Message string
}

func (e *IntegrityError) Kind() Kind   { return KindIntegrityError }
func (e *IntegrityError) Error() string { return "integrity error: " + e.Message }

// FormatError is raised by the .ordo loader for a malformed container
// (bad magic, unsupported version, truncated header).
type FormatError struct {
	Message string
}

func (e *FormatError) Kind() Kind   { return KindFormatError }
func (e *FormatError) Error() string { return "format error: " + e.Message }

// Package ruleset models a named, versioned collection of steps with a
// designated entry step (spec.md §4.4), and lowers their embedded
// expressions to bytecode ahead of execution.
package ruleset

import (
	"github.com/pama-lee/ordo/pkg/bytecode"
	"github.com/pama-lee/ordo/pkg/value"
)

// Config is the "config" block of the ruleset JSON schema (spec.md §6).
type Config struct {
	Name          string `json:"name" yaml:"name"`
	Version       string `json:"version,omitempty" yaml:"version,omitempty"`
	EntryStep     string `json:"entry_step" yaml:"entry_step"`
	FieldMissing  string `json:"field_missing" yaml:"field_missing"`
	MaxDepth      int    `json:"max_depth,omitempty" yaml:"max_depth,omitempty"`
	TimeoutMillis int    `json:"timeout_ms,omitempty" yaml:"timeout_ms,omitempty"`
	EnableTrace   bool   `json:"enable_trace,omitempty" yaml:"enable_trace,omitempty"`
}

// Policy parses Config.FieldMissing into a value.MissingPolicy.
func (c Config) Policy() (value.MissingPolicy, error) {
	return value.ParseMissingPolicy(c.FieldMissing)
}

// StepKind discriminates the three step variants.
type StepKind int

const (
	KindDecision StepKind = iota
	KindAction
	KindTerminal
)

func (k StepKind) String() string {
	switch k {
	case KindDecision:
		return "decision"
	case KindAction:
		return "action"
	case KindTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Branch is one Decision arm: if Condition evaluates Bool true, traversal
// continues at NextStep.
type Branch struct {
	Condition string `json:"condition" yaml:"condition"`
	NextStep  string `json:"next_step" yaml:"next_step"`

	compiled *bytecode.Program
}

// Assignment binds Value's result to Name in the run's variable scope.
type Assignment struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`

	compiled *bytecode.Program
}

// TerminalResult is the {code, message, output} a Terminal step emits.
type TerminalResult struct {
	Code    string   `json:"code" yaml:"code"`
	Message string   `json:"message,omitempty" yaml:"message,omitempty"`
	Output  ExprMap  `json:"output,omitempty" yaml:"output,omitempty"`

	compiledMessage *bytecode.Program
	compiledOutput  map[string]*bytecode.Program
}

// ExprMap is an insertion-ordered string-to-expression-source map. The
// wire schema (spec.md §6) represents "output" as a JSON object, but the
// Go map type Go's encoding/json decodes one into does not preserve key
// order; since §5 requires terminal outputs to evaluate in declared
// order, ExprMap tracks that order explicitly, the same way value.Object
// does for runtime values.
type ExprMap struct {
	keys   []string
	values map[string]string
}

// Keys returns the keys in declared order.
func (m ExprMap) Keys() []string { return m.keys }

// Get returns the expression source for key and whether it was present.
func (m ExprMap) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Len returns the number of entries.
func (m ExprMap) Len() int { return len(m.keys) }

// Set inserts or overwrites key. A fresh key is appended to the end of
// the declared order; overwriting an existing key does not move it.
func (m *ExprMap) Set(key, expr string) {
	if m.values == nil {
		m.values = make(map[string]string)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = expr
}

// Step is a single node in the ruleset flow. Exactly one of the
// kind-specific field groups is meaningful, selected by Kind — the closed
// sum type is expressed as a discriminant plus payload fields rather than
// an interface hierarchy, matching how Value and Expr are modeled.
type Step struct {
	ID   string   `json:"id" yaml:"id"`
	Name string   `json:"name,omitempty" yaml:"name,omitempty"`
	Kind StepKind `json:"-" yaml:"-"`

	// Decision
	Branches    []Branch `json:"branches,omitempty" yaml:"branches,omitempty"`
	DefaultNext string   `json:"default_next,omitempty" yaml:"default_next,omitempty"`

	// Action
	Assignments []Assignment `json:"assignments,omitempty" yaml:"assignments,omitempty"`
	NextStep    string       `json:"next_step,omitempty" yaml:"next_step,omitempty"`

	// Terminal
	Result *TerminalResult `json:"result,omitempty" yaml:"result,omitempty"`
}

// RuleSet is the top-level document: a Config plus its step graph, keyed
// by interned step id for flat, copy-free lookup during traversal
// (spec.md §9, "Implementers should use step-id lookup via a hash table").
type RuleSet struct {
	Config Config          `json:"config" yaml:"config"`
	Steps  map[string]Step `json:"steps" yaml:"steps"`

	Signature *Signature `json:"_signature,omitempty" yaml:"_signature,omitempty"`

	validated bool
	compiled  bool
}

// Signature is the embedded in-document signature block (spec.md §4.6).
type Signature struct {
	Algorithm string `json:"algorithm" yaml:"algorithm"`
	PublicKey string `json:"public_key" yaml:"public_key"`
	Signature string `json:"signature" yaml:"signature"`
	SignedAt  string `json:"signed_at" yaml:"signed_at"`
}

// IsValidated reports whether Validate has already run successfully.
func (r *RuleSet) IsValidated() bool { return r.validated }

// IsCompiled reports whether Compile has already run successfully.
func (r *RuleSet) IsCompiled() bool { return r.compiled }

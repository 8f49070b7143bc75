// Package executor implements the ruleset traversal algorithm (spec.md
// §4.5): it walks a validated, compiled ruleset's step graph, evaluating
// each step's expressions through pkg/vm against a per-run scope.
package executor

import "github.com/pama-lee/ordo/pkg/value"

// scope implements vm.Scope. Variable scope resolution (spec.md §4.5):
// identifier lookup resolves first in the assignment scope (variables
// bound by prior Action steps in this run), then in the input document.
// A field path rooted at a name that exists only in the input reads from
// the input; one rooted at an assigned variable reads from the scope.
// Assignments never mutate the input.
type scope struct {
	bindings map[string]value.Value
	input    value.Value
	policy   value.MissingPolicy
	def      value.Value
}

func newScope(input value.Value, policy value.MissingPolicy, def value.Value) *scope {
	return &scope{bindings: make(map[string]value.Value), input: input, policy: policy, def: def}
}

func (s *scope) bind(name string, v value.Value) {
	s.bindings[name] = v
}

func (s *scope) ResolvePath(segments []string) (value.Value, error) {
	if len(segments) == 0 {
		return value.Null(), nil
	}
	if root, ok := s.bindings[segments[0]]; ok {
		if len(segments) == 1 {
			return root, nil
		}
		return value.Field(root, segments[1:], s.policy, s.def)
	}
	return value.Field(s.input, segments, s.policy, s.def)
}

func (s *scope) Exists(segments []string) bool {
	if len(segments) == 0 {
		return false
	}
	if root, ok := s.bindings[segments[0]]; ok {
		if len(segments) == 1 {
			return true
		}
		_, err := value.Field(root, segments[1:], value.Strict, value.Null())
		return err == nil
	}
	_, err := value.Field(s.input, segments, value.Strict, value.Null())
	return err == nil
}

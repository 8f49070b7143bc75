package ruleset

import (
	"fmt"

	"github.com/pama-lee/ordo/pkg/bytecode"
	"github.com/pama-lee/ordo/pkg/lang"
)

// Compile lowers every embedded Condition and value Expression to
// bytecode and caches it on the owning step, per spec.md §4.4. Idempotent:
// calling it again on an already-compiled ruleset is a cheap no-op.
func (r *RuleSet) Compile() error {
	if r.compiled {
		return nil
	}
	for id, step := range r.Steps {
		if err := compileStep(&step); err != nil {
			return fmt.Errorf("ruleset: compiling step %q: %w", id, err)
		}
		r.Steps[id] = step
	}
	r.compiled = true
	return nil
}

func compileStep(step *Step) error {
	switch step.Kind {
	case KindDecision:
		for i := range step.Branches {
			prog, err := compileSource(step.Branches[i].Condition)
			if err != nil {
				return fmt.Errorf("branch %d condition: %w", i, err)
			}
			step.Branches[i].compiled = prog
		}
	case KindAction:
		for i := range step.Assignments {
			prog, err := compileSource(step.Assignments[i].Value)
			if err != nil {
				return fmt.Errorf("assignment %d value: %w", i, err)
			}
			step.Assignments[i].compiled = prog
		}
	case KindTerminal:
		if step.Result == nil {
			return fmt.Errorf("terminal step has no result")
		}
		if step.Result.Message != "" {
			prog, err := compileSource(step.Result.Message)
			if err != nil {
				return fmt.Errorf("result message: %w", err)
			}
			step.Result.compiledMessage = prog
		}
		if step.Result.Output.Len() > 0 {
			step.Result.compiledOutput = make(map[string]*bytecode.Program, step.Result.Output.Len())
			for _, key := range step.Result.Output.Keys() {
				expr, _ := step.Result.Output.Get(key)
				prog, err := compileSource(expr)
				if err != nil {
					return fmt.Errorf("output %q: %w", key, err)
				}
				step.Result.compiledOutput[key] = prog
			}
		}
	}
	return nil
}

func compileSource(src string) (*bytecode.Program, error) {
	e, err := lang.Parse(src)
	if err != nil {
		return nil, err
	}
	if err := lang.Validate(e); err != nil {
		return nil, err
	}
	e = lang.Optimize(e)
	return bytecode.Compile(e)
}

// CompiledCondition returns the cached bytecode for a Decision branch's
// condition, compiling it on demand if Compile hasn't run yet.
func (b *Branch) CompiledCondition() (*bytecode.Program, error) {
	if b.compiled != nil {
		return b.compiled, nil
	}
	prog, err := compileSource(b.Condition)
	if err != nil {
		return nil, err
	}
	b.compiled = prog
	return prog, nil
}

// CompiledValue returns the cached bytecode for an Action assignment's
// value expression, compiling it on demand if needed.
func (a *Assignment) CompiledValue() (*bytecode.Program, error) {
	if a.compiled != nil {
		return a.compiled, nil
	}
	prog, err := compileSource(a.Value)
	if err != nil {
		return nil, err
	}
	a.compiled = prog
	return prog, nil
}

// CompiledMessage returns the cached bytecode for a Terminal's message
// expression, or nil if the result has none.
func (t *TerminalResult) CompiledMessage() (*bytecode.Program, error) {
	if t.Message == "" {
		return nil, nil
	}
	if t.compiledMessage != nil {
		return t.compiledMessage, nil
	}
	prog, err := compileSource(t.Message)
	if err != nil {
		return nil, err
	}
	t.compiledMessage = prog
	return prog, nil
}

// CompiledOutput returns the cached bytecode for a Terminal's named output
// expression, compiling on demand if needed.
func (t *TerminalResult) CompiledOutput(key string) (*bytecode.Program, error) {
	if prog, ok := t.compiledOutput[key]; ok {
		return prog, nil
	}
	expr, ok := t.Output.Get(key)
	if !ok {
		return nil, fmt.Errorf("ruleset: no output named %q", key)
	}
	prog, err := compileSource(expr)
	if err != nil {
		return nil, err
	}
	if t.compiledOutput == nil {
		t.compiledOutput = make(map[string]*bytecode.Program)
	}
	t.compiledOutput[key] = prog
	return prog, nil
}

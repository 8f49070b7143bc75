package ruleset

import (
	"fmt"

	"github.com/pama-lee/ordo/pkg/ast"
	"github.com/pama-lee/ordo/pkg/lang"
	"github.com/pama-lee/ordo/pkg/value"
)

// Warning is one non-fatal structural smell reported by Lint. Unlike
// Validate's problems, a Warning never blocks execution or validation.
type Warning struct {
	StepID  string
	Message string
}

func (w Warning) String() string {
	if w.StepID == "" {
		return w.Message
	}
	return fmt.Sprintf("%s: %s", w.StepID, w.Message)
}

// Lint reports structural smells that Validate deliberately does not
// treat as errors: unreachable decision branches, terminals nothing
// refers to, and assignments overwritten before they could be read
// (spec.md's Non-goals exclude a full dataflow analysis; this is a
// conservative same-step check only).
func (r *RuleSet) Lint() []Warning {
	var warnings []Warning

	referenced := map[string]bool{r.Config.EntryStep: true}
	for _, step := range r.Steps {
		switch step.Kind {
		case KindDecision:
			for _, b := range step.Branches {
				referenced[b.NextStep] = true
			}
			referenced[step.DefaultNext] = true
		case KindAction:
			referenced[step.NextStep] = true
		}
	}

	for id, step := range r.Steps {
		switch step.Kind {
		case KindDecision:
			warnings = append(warnings, lintUnreachableBranches(id, step)...)
		case KindAction:
			warnings = append(warnings, lintOverwrittenAssignments(id, step)...)
		case KindTerminal:
			if !referenced[id] {
				warnings = append(warnings, Warning{StepID: id, Message: "terminal step is never referenced by any other step"})
			}
		}
	}
	return warnings
}

// lintUnreachableBranches flags any branch after one whose condition
// constant-folds to literal true: the optimizer already proved that
// earlier branch always fires, so nothing after it can ever be selected.
func lintUnreachableBranches(id string, step Step) []Warning {
	var warnings []Warning
	sawAlwaysTrue := false
	for i, b := range step.Branches {
		if sawAlwaysTrue {
			warnings = append(warnings, Warning{
				StepID:  id,
				Message: fmt.Sprintf("branch %d (%q) is unreachable: an earlier branch's condition always matches", i, b.Condition),
			})
			continue
		}
		if isAlwaysTrueConst(b.Condition) {
			sawAlwaysTrue = true
		}
	}
	return warnings
}

func isAlwaysTrueConst(src string) bool {
	e, err := lang.Parse(src)
	if err != nil {
		return false
	}
	folded := lang.Optimize(e)
	lit, ok := folded.(*ast.Literal)
	return ok && lit.Value.Kind() == value.KindBool && lit.Value.AsBool()
}

// lintOverwrittenAssignments flags an assignment whose name is bound
// again later in the same Action step without being read by any
// assignment in between — the earlier binding is dead.
func lintOverwrittenAssignments(id string, step Step) []Warning {
	var warnings []Warning
	lastIndex := map[string]int{}
	for i, a := range step.Assignments {
		if prev, ok := lastIndex[a.Name]; ok {
			overwritten := true
			for j := prev + 1; j < i; j++ {
				e, err := lang.Parse(step.Assignments[j].Value)
				if err != nil {
					overwritten = false // can't prove it's dead if the expression doesn't even parse
					break
				}
				if referencesName(e, a.Name) {
					overwritten = false
					break
				}
			}
			if overwritten {
				warnings = append(warnings, Warning{
					StepID:  id,
					Message: fmt.Sprintf("assignment to %q at position %d is overwritten at position %d before being read", a.Name, prev, i),
				})
			}
		}
		lastIndex[a.Name] = i
	}
	return warnings
}

// referencesName reports whether e contains a FieldPath rooted at name.
func referencesName(e ast.Expr, name string) bool {
	switch n := e.(type) {
	case *ast.FieldPath:
		return len(n.Segments) > 0 && n.Segments[0] == name
	case *ast.Literal, *ast.ErrorLiteral:
		return false
	case *ast.ArrayLiteral:
		for _, el := range n.Elements {
			if referencesName(el, name) {
				return true
			}
		}
		return false
	case *ast.Index:
		return referencesName(n.Target, name) || referencesName(n.Index, name)
	case *ast.Unary:
		return referencesName(n.Operand, name)
	case *ast.Binary:
		return referencesName(n.Left, name) || referencesName(n.Right, name)
	case *ast.Call:
		for _, arg := range n.Args {
			if referencesName(arg, name) {
				return true
			}
		}
		return false
	case *ast.If:
		return referencesName(n.Cond, name) || referencesName(n.Then, name) || referencesName(n.Else, name)
	case *ast.Coalesce:
		for _, arg := range n.Args {
			if referencesName(arg, name) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

package ruleset

import (
	"fmt"

	"github.com/pama-lee/ordo/pkg/lang"
	"github.com/pama-lee/ordo/pkg/ordoerr"
)

// Validate checks every invariant from spec.md §4.4, accumulating ALL
// violations rather than stopping at the first (in contrast to
// pkg/lang.Validate, which reports only the first problem in a single
// expression). A successful Validate call marks the ruleset validated so
// Execute can skip re-validation.
func (r *RuleSet) Validate() error {
	var problems []string

	// 1. Entry step exists.
	if r.Config.EntryStep == "" {
		problems = append(problems, "config.entry_step is empty")
	} else if _, ok := r.Steps[r.Config.EntryStep]; !ok {
		problems = append(problems, fmt.Sprintf("entry step %q does not exist", r.Config.EntryStep))
	}

	if _, err := r.Config.Policy(); err != nil {
		problems = append(problems, err.Error())
	}

	for id, step := range r.Steps {
		if step.ID != "" && step.ID != id {
			problems = append(problems, fmt.Sprintf("step %q has mismatched id field %q", id, step.ID))
		}

		switch step.Kind {
		case KindDecision:
			// 3. Each Decision has a non-empty branch list and a default target.
			if len(step.Branches) == 0 {
				problems = append(problems, fmt.Sprintf("decision step %q has no branches", id))
			}
			if step.DefaultNext == "" {
				problems = append(problems, fmt.Sprintf("decision step %q has no default_next", id))
			} else {
				checkTarget(&problems, r.Steps, id, step.DefaultNext)
			}
			for i, b := range step.Branches {
				if b.Condition == "" {
					problems = append(problems, fmt.Sprintf("decision step %q branch %d has an empty condition", id, i))
					continue
				}
				if _, err := parseAndValidate(b.Condition); err != nil {
					problems = append(problems, fmt.Sprintf("decision step %q branch %d condition: %s", id, i, err))
				}
				if b.NextStep == "" {
					problems = append(problems, fmt.Sprintf("decision step %q branch %d has no next_step", id, i))
					continue
				}
				checkTarget(&problems, r.Steps, id, b.NextStep)
			}

		case KindAction:
			for i, a := range step.Assignments {
				if a.Name == "" {
					problems = append(problems, fmt.Sprintf("action step %q assignment %d has no name", id, i))
				}
				if _, err := parseAndValidate(a.Value); err != nil {
					problems = append(problems, fmt.Sprintf("action step %q assignment %d value: %s", id, i, err))
				}
			}
			if step.NextStep == "" {
				problems = append(problems, fmt.Sprintf("action step %q has no next_step", id))
			} else {
				checkTarget(&problems, r.Steps, id, step.NextStep)
			}

		case KindTerminal:
			if step.Result == nil {
				problems = append(problems, fmt.Sprintf("terminal step %q has no result", id))
				break
			}
			if step.Result.Code == "" {
				problems = append(problems, fmt.Sprintf("terminal step %q result has no code", id))
			}
			if step.Result.Message != "" {
				if _, err := parseAndValidate(step.Result.Message); err != nil {
					problems = append(problems, fmt.Sprintf("terminal step %q message: %s", id, err))
				}
			}
			for _, key := range step.Result.Output.Keys() {
				expr, _ := step.Result.Output.Get(key)
				if _, err := parseAndValidate(expr); err != nil {
					problems = append(problems, fmt.Sprintf("terminal step %q output %q: %s", id, key, err))
				}
			}

		default:
			problems = append(problems, fmt.Sprintf("step %q has an unrecognized kind", id))
		}
	}

	// 5. At least one Terminal is reachable from the entry via forward
	// traversal. Computed by a separate forward-reachability pass seeded
	// from entry, since the checkTarget calls above only check direct
	// references, not transitive reachability.
	if r.Config.EntryStep != "" {
		if !hasReachableTerminal(r.Steps, r.Config.EntryStep) {
			problems = append(problems, "no terminal step is reachable from the entry step")
		}
	}

	if len(problems) > 0 {
		r.validated = false
		return &ordoerr.ValidationError{Problems: problems}
	}
	r.validated = true
	return nil
}

// checkTarget is invariant 2: every next_step reference names a step that
// exists.
func checkTarget(problems *[]string, steps map[string]Step, from, to string) {
	if _, ok := steps[to]; !ok {
		*problems = append(*problems, fmt.Sprintf("step %q references non-existent step %q", from, to))
	}
}

func parseAndValidate(src string) (interface{}, error) {
	e, err := lang.Parse(src)
	if err != nil {
		return nil, err
	}
	if err := lang.Validate(e); err != nil {
		return nil, err
	}
	return e, nil
}

// hasReachableTerminal walks the step graph forward from start (bounded
// by a visited set, since decisions may legitimately cycle per spec.md §9)
// looking for any Terminal.
func hasReachableTerminal(steps map[string]Step, start string) bool {
	visited := map[string]bool{}
	var walk func(id string) bool
	walk = func(id string) bool {
		if visited[id] {
			return false
		}
		visited[id] = true
		step, ok := steps[id]
		if !ok {
			return false
		}
		switch step.Kind {
		case KindTerminal:
			return true
		case KindDecision:
			for _, b := range step.Branches {
				if b.NextStep == "" {
					continue
				}
				if _, ok := steps[b.NextStep]; ok && walk(b.NextStep) {
					return true
				}
			}
			if step.DefaultNext != "" {
				if _, ok := steps[step.DefaultNext]; ok && walk(step.DefaultNext) {
					return true
				}
			}
		case KindAction:
			if step.NextStep != "" {
				if _, ok := steps[step.NextStep]; ok && walk(step.NextStep) {
					return true
				}
			}
		}
		return false
	}
	return walk(start)
}

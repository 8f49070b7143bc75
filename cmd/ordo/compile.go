package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/pama-lee/ordo/pkg/bytecode"
	"github.com/pama-lee/ordo/pkg/ruleset"
)

func runCompile(cmd *cobra.Command, args []string) error {
	path := args[0]
	disasm, _ := cmd.Flags().GetBool("disasm")

	r, err := loadRuleSet(path)
	if err != nil {
		return err
	}
	if err := r.Validate(); err != nil {
		return fmt.Errorf("%s: invalid: %w", path, err)
	}

	start := time.Now()
	if err := r.Compile(); err != nil {
		return fmt.Errorf("%s: compile failed: %w", path, err)
	}
	elapsed := time.Since(start)

	printSuccess(fmt.Sprintf("compiled %s in %s", path, elapsed))

	if disasm {
		printDisassembly(r)
	}
	return nil
}

// printDisassembly walks every compiled expression in the ruleset, in a
// stable step order, and prints its bytecode listing.
func printDisassembly(r *ruleset.RuleSet) {
	ids := make([]string, 0, len(r.Steps))
	for id := range r.Steps {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		step := r.Steps[id]
		switch step.Kind {
		case ruleset.KindDecision:
			for i := range step.Branches {
				b := &step.Branches[i]
				prog, err := b.CompiledCondition()
				if err != nil {
					continue
				}
				printf("-- %s: branch[%d] %q\n%s\n", id, i, b.Condition, bytecode.Disassemble(prog))
			}
		case ruleset.KindAction:
			for i := range step.Assignments {
				a := &step.Assignments[i]
				prog, err := a.CompiledValue()
				if err != nil {
					continue
				}
				printf("-- %s: %s = %s\n%s\n", id, a.Name, a.Value, bytecode.Disassemble(prog))
			}
		case ruleset.KindTerminal:
			if step.Result == nil {
				continue
			}
			if step.Result.Message != "" {
				if prog, err := step.Result.CompiledMessage(); err == nil {
					printf("-- %s: message\n%s\n", id, bytecode.Disassemble(prog))
				}
			}
			for _, key := range step.Result.Output.Keys() {
				if prog, err := step.Result.CompiledOutput(key); err == nil {
					printf("-- %s: output.%s\n%s\n", id, key, bytecode.Disassemble(prog))
				}
			}
		}
	}
}

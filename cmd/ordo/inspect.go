package main

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/pama-lee/ordo/pkg/ruleset"
)

func runInspect(cmd *cobra.Command, args []string) error {
	path := args[0]
	withBytecode, _ := cmd.Flags().GetBool("bytecode")

	r, err := loadRuleSet(path)
	if err != nil {
		return err
	}

	printf("ruleset: %s\n", r.Config.Name)
	if r.Config.Version != "" {
		printf("version: %s\n", r.Config.Version)
	}
	printf("entry_step: %s\n", r.Config.EntryStep)
	printf("field_missing: %s\n", r.Config.FieldMissing)
	printf("steps: %d\n", len(r.Steps))

	validateErr := r.Validate()
	if validateErr != nil {
		printWarning(validateErr.Error())
	} else {
		printSuccess("passes validation")
	}

	ids := make([]string, 0, len(r.Steps))
	for id := range r.Steps {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		step := r.Steps[id]
		switch step.Kind {
		case ruleset.KindDecision:
			printf("  %s [decision] %d branch(es), default -> %s\n", id, len(step.Branches), step.DefaultNext)
		case ruleset.KindAction:
			printf("  %s [action] %d assignment(s), next -> %s\n", id, len(step.Assignments), step.NextStep)
		case ruleset.KindTerminal:
			code := ""
			if step.Result != nil {
				code = step.Result.Code
			}
			printf("  %s [terminal] code=%s\n", id, code)
		}
	}

	if withBytecode && validateErr == nil {
		if err := r.Compile(); err != nil {
			return err
		}
		printDisassembly(r)
	}

	return nil
}

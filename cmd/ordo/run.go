package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pama-lee/ordo/pkg/executor"
	"github.com/pama-lee/ordo/pkg/value"
)

func runRun(cmd *cobra.Command, args []string) error {
	path := args[0]
	inputPath, _ := cmd.Flags().GetString("input")
	forceTrace, _ := cmd.Flags().GetBool("trace")

	r, err := loadRuleSet(path)
	if err != nil {
		return err
	}

	input := value.FromObject(value.NewObject())
	if inputPath != "" {
		data, err := os.ReadFile(inputPath)
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		input, err = value.FromJSON(data)
		if err != nil {
			return fmt.Errorf("parsing input: %w", err)
		}
	}

	opts := executor.Options{}
	if forceTrace {
		t := true
		opts.EnableTrace = &t
	}

	result, execErr := executor.Execute(r, input, opts)
	if execErr != nil {
		printError(fmt.Errorf("%s: %s", execErr.Class, execErr.Err))
		if execErr.StepID != "" {
			printWarning(fmt.Sprintf("failed at step %q", execErr.StepID))
		}
		return execErr.Err
	}

	printSuccess(fmt.Sprintf("%s => %s (%dus)", r.Config.Name, result.Code, result.DurationMicros))
	if result.Message != "" {
		printf("message: %s\n", result.Message)
	}
	for _, key := range sortedOutputKeys(result.Output) {
		printf("output.%s = %s\n", key, result.Output[key].String())
	}
	for _, entry := range result.Trace {
		printf("  trace: %s %q -> %s\n", entry.StepID, entry.StepName, entry.OutcomeSummary)
	}
	return nil
}

func sortedOutputKeys(m map[string]value.Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

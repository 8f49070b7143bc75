package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func runValidate(cmd *cobra.Command, args []string) error {
	path := args[0]

	r, err := loadRuleSet(path)
	if err != nil {
		return err
	}

	if err := r.Validate(); err != nil {
		printError(fmt.Errorf("%s: invalid: %w", path, err))
		return err
	}

	printSuccess(fmt.Sprintf("%s is a valid ruleset (%s v%s, %d steps, entry %q)",
		path, r.Config.Name, r.Config.Version, len(r.Steps), r.Config.EntryStep))
	return nil
}

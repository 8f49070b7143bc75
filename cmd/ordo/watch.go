package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

func runWatch(cmd *cobra.Command, args []string) error {
	path := args[0]

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}

	printInfo(fmt.Sprintf("watching %s for changes (ctrl-c to stop)", path))
	validateQuiet(path)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				validateQuiet(path)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			printError(fmt.Errorf("watcher: %w", err))
		case <-sig:
			return nil
		}
	}
}

// validateQuiet re-validates path and prints only the outcome, swallowing
// load errors that are likely just a half-written save.
func validateQuiet(path string) {
	r, err := loadRuleSet(path)
	if err != nil {
		printWarning(err.Error())
		return
	}
	if err := r.Validate(); err != nil {
		printWarning(err.Error())
		return
	}
	printSuccess(fmt.Sprintf("%s valid (%s v%s, %d steps)", path, r.Config.Name, r.Config.Version, len(r.Steps)))
}

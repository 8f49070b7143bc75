package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pama-lee/ordo/pkg/container"
	"github.com/pama-lee/ordo/pkg/ruleset"
)

// loadRuleSet reads path and parses it as a ruleset document, dispatching
// on extension: .json, .yaml/.yml, or .ordo (the packed binary container,
// loaded with no trusted-keys policy — signature enforcement is left to
// callers that need it, via container.Load's TrustedKeys directly).
func loadRuleSet(path string) (*ruleset.RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return ruleset.FromYAML(data)
	case ".ordo":
		return container.Load(data, container.LoadOptions{})
	default:
		return ruleset.FromJSON(data)
	}
}

func changeExtension(path, newExt string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + newExt
}

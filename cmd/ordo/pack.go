package main

import (
	"crypto/ed25519"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pama-lee/ordo/pkg/container"
)

func runPack(cmd *cobra.Command, args []string) error {
	path := args[0]
	output, _ := cmd.Flags().GetString("output")
	compress, _ := cmd.Flags().GetBool("compress")
	signKeyPath, _ := cmd.Flags().GetString("sign")

	r, err := loadRuleSet(path)
	if err != nil {
		return err
	}
	if err := r.Validate(); err != nil {
		return fmt.Errorf("%s: invalid: %w", path, err)
	}

	opts := container.SaveOptions{Compress: compress}
	if signKeyPath != "" {
		seed, err := os.ReadFile(signKeyPath)
		if err != nil {
			return fmt.Errorf("reading signing key: %w", err)
		}
		if len(seed) != ed25519.SeedSize {
			return fmt.Errorf("signing key %s: want %d raw seed bytes, got %d", signKeyPath, ed25519.SeedSize, len(seed))
		}
		opts.Sign = ed25519.NewKeyFromSeed(seed)
	}

	packed, err := container.Save(r, opts)
	if err != nil {
		return fmt.Errorf("packing: %w", err)
	}

	if output == "" {
		output = changeExtension(path, ".ordo")
	}
	if err := os.WriteFile(output, packed, 0600); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}

	printSuccess(fmt.Sprintf("packed %s -> %s (%d bytes)", path, output, len(packed)))
	return nil
}

func runUnpack(cmd *cobra.Command, args []string) error {
	path := args[0]
	output, _ := cmd.Flags().GetString("output")
	format, _ := cmd.Flags().GetString("format")
	trustPaths, _ := cmd.Flags().GetStringSlice("trust")

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var trusted []ed25519.PublicKey
	for _, p := range trustPaths {
		keyBytes, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("reading trusted key %s: %w", p, err)
		}
		if len(keyBytes) != ed25519.PublicKeySize {
			return fmt.Errorf("trusted key %s: want %d raw bytes, got %d", p, ed25519.PublicKeySize, len(keyBytes))
		}
		trusted = append(trusted, ed25519.PublicKey(keyBytes))
	}

	r, err := container.Load(data, container.LoadOptions{TrustedKeys: trusted})
	if err != nil {
		return fmt.Errorf("unpacking %s: %w", path, err)
	}

	var rendered []byte
	switch format {
	case "yaml":
		rendered, err = r.ToYAML()
	default:
		rendered, err = r.ToJSON()
	}
	if err != nil {
		return fmt.Errorf("rendering: %w", err)
	}

	if output == "" {
		fmt.Println(string(rendered))
		return nil
	}
	if err := os.WriteFile(output, rendered, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}
	printSuccess(fmt.Sprintf("unpacked %s -> %s", path, output))
	return nil
}

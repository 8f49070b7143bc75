package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pama-lee/ordo/pkg/container"
)

func runKeygen(cmd *cobra.Command, args []string) error {
	prefix, _ := cmd.Flags().GetString("output")

	pub, priv, err := container.NewKeyPair()
	if err != nil {
		return fmt.Errorf("generating key pair: %w", err)
	}

	keyPath := prefix + ".key"
	pubPath := prefix + ".pub"

	// priv is the 64-byte expanded key; only the 32-byte seed is written,
	// since that's what ed25519.NewKeyFromSeed (pack --sign) expects back.
	if err := os.WriteFile(keyPath, priv.Seed(), 0600); err != nil {
		return fmt.Errorf("writing %s: %w", keyPath, err)
	}
	if err := os.WriteFile(pubPath, pub, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", pubPath, err)
	}

	printSuccess(fmt.Sprintf("wrote %s (private, mode 0600) and %s (public)", keyPath, pubPath))
	return nil
}

// Command ordo is the CLI for the Ordo rule engine: validate and compile
// rulesets, run them against sample input, pack/unpack the .ordo binary
// container, generate signing keys, watch a file for edits, and serve a
// small HTTP front end over a directory of rulesets.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pama-lee/ordo/pkg/config"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:     "ordo",
		Short:   "Ordo rule engine CLI",
		Long:    "Ordo compiles and runs decision rulesets: validate, compile, run, pack into the .ordo binary format, and serve over HTTP.",
		Version: version,
	}

	validateCmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a ruleset document",
		Args:  cobra.ExactArgs(1),
		RunE:  runValidate,
	}

	compileCmd := &cobra.Command{
		Use:   "compile <file>",
		Short: "Validate and compile a ruleset's expressions to bytecode",
		Args:  cobra.ExactArgs(1),
		RunE:  runCompile,
	}
	compileCmd.Flags().Bool("disasm", false, "Print bytecode disassembly for every compiled expression")

	runCmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Execute a ruleset once against an input document",
		Args:  cobra.ExactArgs(1),
		RunE:  runRun,
	}
	runCmd.Flags().StringP("input", "i", "", "Path to a JSON input document (default: {})")
	runCmd.Flags().Bool("trace", false, "Force-enable step tracing regardless of the ruleset's config")

	packCmd := &cobra.Command{
		Use:   "pack <file>",
		Short: "Pack a ruleset document into the .ordo binary container",
		Args:  cobra.ExactArgs(1),
		RunE:  runPack,
	}
	packCmd.Flags().StringP("output", "o", "", "Output file (default: <file> with .ordo extension)")
	packCmd.Flags().Bool("compress", false, "Deflate-compress the packed payload")
	packCmd.Flags().String("sign", "", "Path to an Ed25519 private key (raw seed bytes) to sign with")

	unpackCmd := &cobra.Command{
		Use:   "unpack <file.ordo>",
		Short: "Unpack a .ordo container back to a ruleset document",
		Args:  cobra.ExactArgs(1),
		RunE:  runUnpack,
	}
	unpackCmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	unpackCmd.Flags().String("format", "json", "Output format: json or yaml")
	unpackCmd.Flags().StringSlice("trust", nil, "Path to a trusted Ed25519 public key (raw bytes); repeatable")

	inspectCmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Print a ruleset's structure: steps, entry point, reachability",
		Args:  cobra.ExactArgs(1),
		RunE:  runInspect,
	}
	inspectCmd.Flags().Bool("bytecode", false, "Include per-expression bytecode disassembly")

	keygenCmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an Ed25519 key pair for signing .ordo containers",
		RunE:  runKeygen,
	}
	keygenCmd.Flags().StringP("output", "o", "ordo", "Output file prefix; writes <prefix>.key and <prefix>.pub")

	watchCmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Re-validate a ruleset file on every save",
		Args:  cobra.ExactArgs(1),
		RunE:  runWatch,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a directory of rulesets over HTTP",
		RunE:  runServe,
	}
	serveCmd.Flags().StringP("dir", "d", ".", "Directory of .json/.yaml/.ordo ruleset files to load")
	serveCmd.Flags().Uint16P("port", "p", uint16(config.DefaultPort), "Port to listen on")
	serveCmd.Flags().String("config", "", "Path to an engine config YAML overlay")

	rootCmd.AddCommand(validateCmd, compileCmd, runCmd, packCmd, unpackCmd, inspectCmd, keygenCmd, watchCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}

var (
	infoColor    = color.New(color.FgCyan)
	successColor = color.New(color.FgGreen)
	warningColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
)

func printInfo(msg string) {
	infoColor.Printf("[INFO] %s\n", msg)
}

func printSuccess(msg string) {
	successColor.Printf("[OK] %s\n", msg)
}

func printWarning(msg string) {
	warningColor.Printf("[WARN] %s\n", msg)
}

func printError(err error) {
	errorColor.Fprintf(os.Stderr, "[ERROR] %s\n", err.Error())
}

func printf(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

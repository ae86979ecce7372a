package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lumen",
		Short: "Fine-grained reactive engine tooling",
		Long: `Lumen is a fine-grained reactive engine for Go: signals, memos,
and effects with automatic dependency tracking, batched glitch-free
propagation, and scoped lifetimes.

This CLI carries the engine's operational tooling:

  • bench    Micro-benchmarks over common graph shapes
  • inspect  A demo graph with the HTTP inspector attached
  • version  Build information`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		benchCmd(),
		inspectCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ludo-technologies/bcfg/internal/version"
)

var (
	// Version information (set via ldflags during build)
	Version = version.Version
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// Handle custom exit codes from check command
		var exitErr *CheckExitError
		if errors.As(err, &exitErr) {
			if exitErr.Message != "" {
				fmt.Fprintf(os.Stderr, "Error: %s\n", exitErr.Message)
			}
			// Silently exit with the specified code (output already printed)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bcfg",
		Short: "bcfg - control flow graph builder for bytecode methods",
		Long: `bcfg turns tree-shaped method control flow into a basic-block graph
with explicit exception edges, checks it and renders it as text, JSON,
YAML or Graphviz DOT.`,
		Version: Version,
	}

	// Add subcommands
	rootCmd.AddCommand(buildCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func versionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				fmt.Fprintln(cmd.OutOrStdout(), version.GetFullVersion())
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "bcfg version %s\n", version.GetVersion())
			}
		},
	}

	cmd.Flags().BoolP("verbose", "v", false, "Show detailed version information")
	return cmd
}

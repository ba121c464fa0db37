// Package cli implements the command-line interface for unrealpm.
package cli

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose int
)

// rootCmd is the base command for unrealpm.
var rootCmd = &cobra.Command{
	Use:   "unrealpm",
	Short: "A package manager for Unreal Engine plugins",
	Long: `unrealpm resolves, installs, and publishes Unreal Engine plugins.
It reads a project's unrealpm.json manifest, resolves compatible versions
against a registry, and manages the project's Plugins/ directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "Verbosity count (-v, -vv, -vvv); output is the same at every level")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing
func GetRootCmd() *cobra.Command {
	return rootCmd
}

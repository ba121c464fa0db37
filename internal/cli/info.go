// Package cli implements the command-line interface for unrealpm.
package cli

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/unrealpm/unrealpm/internal/lockfile"
	"github.com/unrealpm/unrealpm/internal/manifest"
)

var infoCmd = &cobra.Command{
	Use:   "info <plugin>",
	Short: "Show plugin information",
	Long:  "Display the locked version, checksum, and dependencies of an installed plugin.",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.Flags().StringP("path", "p", ".", "Project directory")
}

func runInfo(cmd *cobra.Command, args []string) error {
	pluginName := args[0]
	projectPath, _ := cmd.Flags().GetString("path")

	absPath, err := filepath.Abs(projectPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	lf, err := lockfile.Load(absPath)
	if err != nil {
		return fmt.Errorf("failed to load lock file: %w", err)
	}
	if lf == nil {
		lf = lockfile.New(absPath)
	}

	mf, err := manifest.Load(absPath)
	if err != nil {
		return fmt.Errorf("failed to load manifest: %w", err)
	}

	locked, ok := lf.Get(pluginName)
	if !ok {
		return fmt.Errorf("plugin %q is not installed", pluginName)
	}

	cyan := color.New(color.FgCyan).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Printf("%s\n\n", bold(pluginName))

	fmt.Printf("  %s: %s\n", cyan("Version"), green(locked.Version))
	fmt.Printf("  %s: %s\n", cyan("Checksum"), locked.Checksum)

	if versionRange, ok := mf.Dependencies[pluginName]; ok {
		fmt.Printf("  %s: %s (dependency)\n", cyan("Declared range"), versionRange)
	} else if versionRange, ok := mf.DevDependencies[pluginName]; ok {
		fmt.Printf("  %s: %s (dev dependency)\n", cyan("Declared range"), versionRange)
	}

	if len(locked.Dependencies) > 0 {
		fmt.Println()
		fmt.Printf("  %s:\n", cyan("Dependencies"))
		names := make([]string, 0, len(locked.Dependencies))
		for dep := range locked.Dependencies {
			names = append(names, dep)
		}
		sort.Strings(names)
		for _, dep := range names {
			fmt.Printf("    - %s@%s\n", dep, locked.Dependencies[dep])
		}
	}

	return nil
}

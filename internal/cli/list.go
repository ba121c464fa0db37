// Package cli implements the command-line interface for unrealpm.
package cli

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/unrealpm/unrealpm/internal/lockfile"
	"github.com/unrealpm/unrealpm/internal/manifest"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed plugins",
	Long:  "List the plugins recorded in unrealpm.json, with their locked versions and dependencies.",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolP("tree", "t", false, "Show each plugin's locked dependencies")
	listCmd.Flags().StringP("path", "p", ".", "Project directory")
}

func runList(cmd *cobra.Command, args []string) error {
	showTree, _ := cmd.Flags().GetBool("tree")
	projectPath, _ := cmd.Flags().GetString("path")

	absPath, err := filepath.Abs(projectPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	mf, err := manifest.Load(absPath)
	if err != nil {
		return fmt.Errorf("failed to load manifest: %w", err)
	}

	lf, err := lockfile.Load(absPath)
	if err != nil {
		return fmt.Errorf("failed to load lock file: %w", err)
	}
	if lf == nil {
		lf = lockfile.New(absPath)
	}

	names := mf.DependencyNames()
	if len(names) == 0 {
		fmt.Println("No plugins declared.")
		return nil
	}

	cyan := color.New(color.FgCyan).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Printf("Plugins declared in %s:\n\n", absPath)

	for _, name := range names {
		version := "unresolved"
		locked, ok := lf.Get(name)
		if ok {
			version = locked.Version
		}

		fmt.Printf("  %s %s\n", cyan(name), green("@"+version))

		if showTree && ok {
			for dep, rng := range locked.Dependencies {
				fmt.Printf("    %s %s %s\n", gray("└──"), dep, gray(rng))
			}
		}
	}

	fmt.Printf("\n%d plugin(s) declared\n", len(names))
	return nil
}

// Package cli implements the command-line interface for unrealpm.
package cli

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/unrealpm/unrealpm/internal/installer"
	"github.com/unrealpm/unrealpm/internal/lockfile"
	"github.com/unrealpm/unrealpm/internal/manifest"
	"github.com/unrealpm/unrealpm/internal/resolver"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <plugins...>",
	Short: "Remove installed plugins",
	Long:  "Remove plugins from the Plugins/ tree and from unrealpm.json, along with any plugin that depends on them.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runUninstall,
}

func init() {
	rootCmd.AddCommand(uninstallCmd)
	uninstallCmd.Flags().BoolP("yes", "y", false, "Skip confirmation prompts")
	uninstallCmd.Flags().StringP("path", "p", ".", "Project directory")
}

func runUninstall(cmd *cobra.Command, args []string) error {
	yes, _ := cmd.Flags().GetBool("yes")
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

	graph := resolver.NewDepGraph()
	for name, pkg := range lf.Packages {
		graph.AddNode(name)
		for dep, rng := range pkg.Dependencies {
			graph.AddDependency(name, dep, rng)
		}
	}

	green := color.New(color.FgGreen).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	allToUninstall := append([]string(nil), args...)
	hasDependents := false

	queue := append([]string(nil), args...)
	checked := make(map[string]bool)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if checked[name] {
			continue
		}
		checked[name] = true

		dependents := graph.FindDependents(name)
		if len(dependents) > 0 {
			hasDependents = true
			fmt.Printf("%s The following packages depend on %s:\n", yellow("⚠"), name)
			for _, dep := range dependents {
				fmt.Printf("    - %s\n", dep)
				if !contains(allToUninstall, dep) {
					allToUninstall = append(allToUninstall, dep)
					queue = append(queue, dep)
				}
			}
		}
	}
	allToUninstall = unique(allToUninstall)

	if hasDependents && !yes {
		fmt.Printf("\n%s This will uninstall %d package(s):\n", red("!"), len(allToUninstall))
		for _, name := range allToUninstall {
			fmt.Printf("    - %s\n", name)
		}
		fmt.Print("\nContinue? [y/N] ")

		reader := bufio.NewReader(os.Stdin)
		response, _ := reader.ReadString('\n')
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	for _, name := range allToUninstall {
		fmt.Printf("%s Uninstalling %s\n", cyan("→"), name)
		if err := installer.Uninstall(absPath, name); err != nil {
			return err
		}
		mf.RemoveDependency(name)
		lf.Remove(name)
	}

	if err := mf.Save(); err != nil {
		return fmt.Errorf("failed to save manifest: %w", err)
	}
	if err := lf.Save(); err != nil {
		return fmt.Errorf("failed to save lock file: %w", err)
	}

	fmt.Printf("%s Uninstallation complete\n", green("✓"))
	return nil
}

// contains checks if a string is in a slice.
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// unique returns a deduplicated copy of the slice, preserving order.
func unique(slice []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(slice))
	for _, s := range slice {
		if !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	return result
}

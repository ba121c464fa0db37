// Package cli implements the command-line interface for unrealpm.
package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/unrealpm/unrealpm/internal/orchestrator"
)

var updateCmd = &cobra.Command{
	Use:   "update [plugins...]",
	Short: "Update plugins to newer versions",
	Long:  "Re-resolve plugins against the registry's latest compatible versions, ignoring the lockfile for selection. Without arguments, updates every declared dependency.",
	RunE:  runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.Flags().BoolP("dry-run", "n", false, "Show what would be updated without making changes")
	updateCmd.Flags().StringP("registry", "r", "", "Registry URL (overrides config)")
	updateCmd.Flags().StringP("engine", "e", "", "Engine version to resolve against (overrides config)")
	updateCmd.Flags().BoolP("force", "f", false, "Override engine-compatibility checks")
	updateCmd.Flags().StringP("path", "p", ".", "Project directory")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	projectPath, _ := cmd.Flags().GetString("path")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	reg, err := openRegistry(resolveRegistryURL(cmd, cfg), cfg)
	if err != nil {
		return err
	}
	orch, err := openOrchestrator(projectPath, reg, cfg, cmd)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	if dryRun {
		fmt.Println(cyan("Checking for updates (dry-run)..."))
	} else if len(args) == 0 {
		fmt.Println(cyan("Updating all plugins..."))
	} else {
		for _, name := range args {
			fmt.Printf("%s Checking %s for updates\n", cyan("→"), name)
		}
	}

	oldVersions := make(map[string]string, len(orch.Lockfile.Packages))
	for name, pkg := range orch.Lockfile.Packages {
		oldVersions[name] = pkg.Version
	}

	results, err := orch.Update(args, dryRun)
	if err != nil {
		return err
	}

	var updated, failed int
	for _, r := range results {
		old, wasLocked := oldVersions[r.Name]

		switch r.State {
		case orchestrator.StateInstalled, orchestrator.StateChecksumOk:
			if wasLocked && old == r.Version {
				fmt.Printf("  %s %s: up to date at %s\n", yellow("-"), r.Name, r.Version)
				continue
			}
			updated++
			from := old
			if !wasLocked {
				from = "none"
			}
			if dryRun {
				fmt.Printf("  %s %s: %s → %s\n", cyan("~"), r.Name, from, r.Version)
			} else {
				fmt.Printf("  %s Updated %s: %s → %s\n", green("✓"), r.Name, from, r.Version)
			}
		default:
			failed++
			fmt.Printf("  %s %s: %v\n", red("✗"), r.Name, r.Err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d package(s) failed to update", failed)
	}

	if updated == 0 {
		fmt.Println(green("All plugins are up to date"))
	} else if dryRun {
		fmt.Printf("%s %d plugin(s) would be updated\n", cyan("→"), updated)
	} else {
		fmt.Printf("%s Updated %d plugin(s)\n", green("✓"), updated)
	}

	return nil
}

// Package cli implements the command-line interface for unrealpm.
package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/unrealpm/unrealpm/internal/orchestrator"
)

var installCmd = &cobra.Command{
	Use:   "install [name[@range]...]",
	Short: "Install plugins",
	Long:  "Resolve and install plugins. Without arguments, installs every dependency already in unrealpm.json.",
	RunE:  runInstall,
}

func init() {
	rootCmd.AddCommand(installCmd)
	installCmd.Flags().BoolP("dev", "D", false, "Add as a development-only dependency")
	installCmd.Flags().Bool("dry-run", false, "Resolve and verify without writing the manifest, lockfile, or Plugins/ tree")
	installCmd.Flags().StringP("registry", "r", "", "Registry URL (overrides config)")
	installCmd.Flags().StringP("engine", "e", "", "Engine version to resolve against (overrides config)")
	installCmd.Flags().BoolP("force", "f", false, "Override engine-compatibility checks")
	installCmd.Flags().StringP("path", "p", ".", "Project directory")
}

// parsePluginSpec parses a plugin specification in name@range format.
func parsePluginSpec(spec string) (name, versionRange string) {
	parts := strings.SplitN(spec, "@", 2)
	name = parts[0]
	if len(parts) > 1 {
		versionRange = parts[1]
	}
	return name, versionRange
}

func runInstall(cmd *cobra.Command, args []string) error {
	dev, _ := cmd.Flags().GetBool("dev")
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

	var results []orchestrator.PackageResult
	if len(args) == 0 {
		fmt.Println(cyan("Installing all plugins from unrealpm.json..."))
		results, err = orch.InstallAll(dryRun)
	} else {
		for _, arg := range args {
			name, versionRange := parsePluginSpec(arg)
			if versionRange == "" {
				versionRange = "*"
			}
			fmt.Printf("%s Installing %s@%s\n", cyan("→"), name, versionRange)
			var r []orchestrator.PackageResult
			r, err = orch.InstallOne(name, versionRange, dev, dryRun)
			results = append(results, r...)
			if err != nil {
				break
			}
		}
	}
	if err != nil {
		return err
	}

	return printInstallResults(results, dryRun)
}

func printInstallResults(results []orchestrator.PackageResult, dryRun bool) error {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	var failed int
	for _, r := range results {
		switch r.State {
		case orchestrator.StateInstalled:
			fmt.Printf("  %s %s@%s\n", green("✓"), r.Name, r.Version)
		case orchestrator.StateChecksumOk:
			fmt.Printf("  %s %s@%s (dry run)\n", green("✓"), r.Name, r.Version)
		default:
			failed++
			fmt.Printf("  %s %s: %v\n", red("✗"), r.Name, r.Err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d package(s) failed to install", failed)
	}

	if dryRun {
		fmt.Printf("%s Dry run complete, nothing was written\n", green("✓"))
	} else {
		fmt.Printf("%s Installation complete\n", green("✓"))
	}
	return nil
}

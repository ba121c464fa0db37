// Package cli implements the command-line interface for unrealpm.
package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the shared content-addressed package cache",
}

var cacheGCCmd = &cobra.Command{
	Use:   "gc",
	Short: "Remove cached package content no lockfile references",
	Long:  "Scans the content-addressed cache under the user config directory and removes entries whose checksum is not referenced by the current project's lockfile.",
	RunE:  runCacheGC,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheGCCmd)
	cacheGCCmd.Flags().Bool("dry-run", false, "List what would be removed without deleting it")
	cacheGCCmd.Flags().StringP("path", "p", ".", "Project directory")
}

func runCacheGC(cmd *cobra.Command, args []string) error {
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

	stale, err := orch.GC(dryRun)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()

	if len(stale) == 0 {
		fmt.Println(green("Cache is clean, nothing to collect"))
		return nil
	}

	for _, path := range stale {
		fmt.Printf("  %s %s\n", cyan("-"), path)
	}
	if dryRun {
		fmt.Printf("%s %d entry(ies) would be removed\n", green("✓"), len(stale))
	} else {
		fmt.Printf("%s Removed %d entry(ies)\n", green("✓"), len(stale))
	}
	return nil
}

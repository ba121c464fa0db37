// Package cli implements the command-line interface for unrealpm.
package cli

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/unrealpm/unrealpm/internal/manifest"
	"github.com/unrealpm/unrealpm/internal/uplugin"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new unrealpm project",
	Long:  "Creates an unrealpm.json manifest in the current or specified directory, detecting the engine version from a sibling .uproject file when present.",
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringP("name", "n", "", "Project name (defaults to directory name)")
	initCmd.Flags().StringP("engine", "e", "", "Target engine version (detected from .uproject if omitted)")
	initCmd.Flags().StringP("path", "p", ".", "Project directory")
}

func runInit(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	engineVersion, _ := cmd.Flags().GetString("engine")
	projectPath, _ := cmd.Flags().GetString("path")

	absPath, err := filepath.Abs(projectPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	if name == "" {
		name = filepath.Base(absPath)
	}

	if manifest.Exists(absPath) {
		return fmt.Errorf("%s already exists in %s", manifest.FileName, absPath)
	}

	if engineVersion == "" {
		if projectFile, err := uplugin.FindProject(absPath); err == nil {
			project, err := uplugin.LoadProject(projectFile)
			if err == nil {
				engineVersion = project.EngineAssociation
			}
		}
	}

	m, err := manifest.Load(absPath)
	if err != nil {
		return fmt.Errorf("failed to initialize manifest: %w", err)
	}
	m.Name = name
	m.EngineVersion = engineVersion

	if err := m.Save(); err != nil {
		return fmt.Errorf("failed to create %s: %w", manifest.FileName, err)
	}

	green := color.New(color.FgGreen).SprintFunc()
	fmt.Printf("%s Created %s in %s\n", green("✓"), manifest.FileName, absPath)
	fmt.Printf("  Project: %s\n", name)
	if engineVersion != "" {
		fmt.Printf("  Engine: %s\n", engineVersion)
	}
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Run 'unrealpm install <plugin>' to add plugins")
	fmt.Println("  2. Commit unrealpm.json and unrealpm.lock.json to source control")

	return nil
}

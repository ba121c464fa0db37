// Package cli implements the command-line interface for unrealpm.
package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/unrealpm/unrealpm/internal/registry"
)

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Query the configured plugin registry",
	Long:  "Commands for searching and listing packages on the configured registry.",
}

var registrySearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the registry for packages by name",
	Args:  cobra.ExactArgs(1),
	RunE:  runRegistrySearch,
}

var registryListCmd = &cobra.Command{
	Use:   "list <name>",
	Short: "List every published version of a package",
	Args:  cobra.ExactArgs(1),
	RunE:  runRegistryList,
}

func init() {
	rootCmd.AddCommand(registryCmd)
	registryCmd.AddCommand(registrySearchCmd)
	registryCmd.AddCommand(registryListCmd)
	registryCmd.PersistentFlags().StringP("registry", "r", "", "Registry URL (overrides config)")
}

func runRegistrySearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	reg, err := openRegistry(resolveRegistryURL(cmd, cfg), cfg)
	if err != nil {
		return err
	}

	results, err := reg.Search(args[0])
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("No packages found.")
		return nil
	}

	cyan := color.New(color.FgCyan).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()
	for _, r := range results {
		fmt.Printf("%s %s\n", cyan(r.Name), gray("@"+r.LatestVersion))
		if r.Description != "" {
			fmt.Printf("    %s\n", r.Description)
		}
	}
	return nil
}

func runRegistryList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	reg, err := openRegistry(resolveRegistryURL(cmd, cfg), cfg)
	if err != nil {
		return err
	}

	meta, err := reg.GetMetadata(args[0])
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	for _, v := range meta.Versions {
		marker := ""
		if v.Yanked {
			marker = yellow(" (yanked)")
		}
		fmt.Printf("%s %s%s\n", cyan(v.Version), engineLabel(v.Engine), marker)
	}
	return nil
}

func engineLabel(e registry.EngineCompatibility) string {
	switch {
	case e.IsUniversal():
		return "— any engine"
	case e.IsMultiEngine:
		return fmt.Sprintf("— engines %v", e.Tags)
	default:
		return fmt.Sprintf("— engine %d.%d", e.EngineMajor, e.EngineMinor)
	}
}

// Package cli implements the command-line interface for unrealpm.
package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/unrealpm/unrealpm/internal/archive"
	"github.com/unrealpm/unrealpm/internal/uplugin"
)

var packCmd = &cobra.Command{
	Use:   "pack [directory]",
	Short: "Create a distributable tarball from a plugin directory",
	Long: `Create a distributable tarball from a plugin directory.

The directory must contain a single top-level .uplugin file. The tarball is
created with the naming convention {name}-{version}.tar.gz and excludes
source-control, IDE, and build-intermediate directories by default.

Examples:
  unrealpm pack
  unrealpm pack /path/to/plugin
  unrealpm pack -o /tmp/my-plugin.tar.gz`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPack,
}

func init() {
	rootCmd.AddCommand(packCmd)
	packCmd.Flags().StringP("output", "o", "", "Output file path (default: {name}-{version}.tar.gz)")
	packCmd.Flags().Bool("exclude-binaries", false, "Exclude the Binaries/ directory from the archive")
}

func runPack(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	output, _ := cmd.Flags().GetString("output")
	excludeBinaries, _ := cmd.Flags().GetBool("exclude-binaries")

	cyan := color.New(color.FgCyan).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()

	fmt.Printf("%s Packing plugin from %s\n", cyan("→"), dir)

	upluginPath, err := uplugin.FindPlugin(dir)
	if err != nil {
		return err
	}
	plugin, err := uplugin.LoadPlugin(upluginPath)
	if err != nil {
		return err
	}
	name := uplugin.NameFromPath(upluginPath)

	fmt.Printf("  Package: %s@%s\n", name, plugin.VersionName)

	archiver, err := archive.New(dir, name, plugin.VersionName)
	if err != nil {
		return err
	}
	archiver.ExcludeBinaries(excludeBinaries)

	result, err := archiver.Pack(output, nil)
	if err != nil {
		return err
	}

	fmt.Printf("  Output: %s\n", result.Path)
	fmt.Printf("  Size: %s\n", humanize.Bytes(uint64(result.Size)))
	fmt.Printf("  Checksum: %s\n", result.Checksum)
	fmt.Printf("%s Pack complete\n", green("✓"))

	return nil
}

// Package cli implements the command-line interface for unrealpm.
package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/unrealpm/unrealpm/internal/orchestrator"
	"github.com/unrealpm/unrealpm/internal/registry"
	"github.com/unrealpm/unrealpm/internal/signing"
)

var publishCmd = &cobra.Command{
	Use:   "publish [directory]",
	Short: "Publish a plugin to a registry",
	Long: `Archive, sign, and upload a plugin directory to a registry.

Examples:
  unrealpm publish
  unrealpm publish /path/to/plugin -r file:///srv/registry
  unrealpm publish --engine 5.3 --kind binary`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPublish,
}

func init() {
	rootCmd.AddCommand(publishCmd)
	publishCmd.Flags().StringP("registry", "r", "", "Registry URL (overrides config)")
	publishCmd.Flags().StringP("engine", "e", "", "Exact engine major.minor this build targets, e.g. 5.3")
	publishCmd.Flags().StringSlice("multi-engine", nil, "Engine tags this package supports across versions, e.g. 5.2,5.3")
	publishCmd.Flags().String("kind", "source", "Package kind: source, binary, or hybrid")
	publishCmd.Flags().String("output-dir", ".", "Directory to write the built tarball into")
}

func runPublish(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	engineVersion, _ := cmd.Flags().GetString("engine")
	multiEngine, _ := cmd.Flags().GetStringSlice("multi-engine")
	kindFlag, _ := cmd.Flags().GetString("kind")
	outputDir, _ := cmd.Flags().GetString("output-dir")

	kind := registry.PackageKind(kindFlag)
	switch kind {
	case registry.KindSource, registry.KindBinary, registry.KindHybrid:
	default:
		return fmt.Errorf("invalid --kind %q: must be source, binary, or hybrid", kindFlag)
	}

	var engine registry.EngineCompatibility
	if len(multiEngine) > 0 {
		engine = registry.EngineCompatibility{IsMultiEngine: true, Tags: multiEngine}
	} else if engineVersion != "" {
		var major, minor int
		if _, err := fmt.Sscanf(engineVersion, "%d.%d", &major, &minor); err != nil {
			return fmt.Errorf("invalid --engine %q: expected major.minor", engineVersion)
		}
		engine = registry.EngineCompatibility{EngineMajor: major, EngineMinor: minor}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	reg, err := openRegistry(resolveRegistryURL(cmd, cfg), cfg)
	if err != nil {
		return err
	}

	var keypair *signing.Keypair
	if cfg.Signing.Enabled {
		keypair, err = signing.Load(expandHome(cfg.Signing.PrivateKeyPath), expandHome(cfg.Signing.PublicKeyPath))
		if err != nil {
			return fmt.Errorf("failed to load signing key: %w", err)
		}
	}

	cyan := color.New(color.FgCyan).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()

	fmt.Printf("%s Publishing %s\n", cyan("→"), dir)

	metadata, err := orchestrator.Publish(dir, reg, keypair, engine, kind, outputDir, nil)
	if err != nil {
		return err
	}

	fmt.Printf("  Package: %s@%s\n", metadata.Name, metadata.Version)
	fmt.Printf("  Checksum: %s\n", metadata.Checksum)
	if metadata.PublicKey != "" {
		fmt.Printf("  Signed with: %s\n", metadata.PublicKey)
	}
	fmt.Printf("%s Publish complete\n", green("✓"))

	return nil
}

// expandHome replaces a leading ~ with the user's home directory, the form
// the config defaults use for key paths.
func expandHome(path string) string {
	if len(path) < 2 || path[0] != '~' || path[1] != '/' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return home + path[1:]
}

package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/unrealpm/unrealpm/internal/config"
	"github.com/unrealpm/unrealpm/internal/orchestrator"
	"github.com/unrealpm/unrealpm/internal/registry"
)

// loadConfig loads the user-scoped configuration, surfacing parse errors
// with their file and location rather than a bare wrapped error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// resolveRegistryURL picks the registry to talk to: the --registry flag
// when set, otherwise the configured default.
func resolveRegistryURL(cmd *cobra.Command, cfg *config.Config) string {
	if url, _ := cmd.Flags().GetString("registry"); url != "" {
		return url
	}
	return cfg.Registry.URL
}

// openRegistry builds the Registry backend for url, attaching the
// configured auth token for writes that need it.
func openRegistry(url string, cfg *config.Config) (registry.Registry, error) {
	return registry.New(url, cfg.Auth.Token)
}

// openOrchestrator resolves projectPath to an absolute path and returns an
// Orchestrator bound to reg, a shared content cache, and options derived
// from cfg plus the resolver/signature-verification flags every
// install-shaped command exposes.
func openOrchestrator(projectPath string, reg registry.Registry, cfg *config.Config, cmd *cobra.Command) (*orchestrator.Orchestrator, error) {
	absPath, err := filepath.Abs(projectPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	engineTag, _ := cmd.Flags().GetString("engine")
	force, _ := cmd.Flags().GetBool("force")

	cacheDir, err := config.DefaultConfigDir()
	if err != nil {
		return nil, err
	}
	cache := registry.NewCache(filepath.Join(cacheDir, "cache"))

	opts := orchestrator.Options{
		EngineTag:                engineTag,
		ForceOverride:            force,
		RequireSignatures:        cfg.Verification.RequireSignatures,
		VerifySignatures:         cfg.Verification.RequireSignatures || cfg.Verification.StrictVerification,
		MaxDepth:                 cfg.Resolver.MaxDepth,
		ResolutionTimeoutSeconds: cfg.Resolver.ResolutionTimeoutSeconds,
		VerboseConflicts:         cfg.Resolver.VerboseConflicts,
	}

	return orchestrator.New(absPath, reg, cache, opts)
}

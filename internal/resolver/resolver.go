// Package resolver's public entry points: Resolve runs full transitive
// dependency resolution over a registry; FindMatchingVersion answers the
// simpler single-package question the install/update commands ask when
// they already know which registry to look in.
package resolver

import (
	"fmt"
	"sort"
	"strings"

	verrors "github.com/unrealpm/unrealpm/internal/errors"
	"github.com/unrealpm/unrealpm/internal/registry"
	"github.com/unrealpm/unrealpm/pkg/version"
)

// Resolve computes a consistent version for every transitive dependency
// of directDeps (a manifest's package_name -> version-range-string
// mapping). The synthetic root used internally never appears in the
// result.
func Resolve(directDeps map[string]string, reg registry.Registry, cfg Config) (map[string]ResolvedPackage, error) {
	if len(directDeps) == 0 {
		return map[string]ResolvedPackage{}, nil
	}

	provider := NewProvider(reg, cfg.EngineTag, cfg.ForceOverride, cfg.ResolutionTimeoutSeconds)
	for name, pinned := range cfg.Preferred {
		if v, err := version.Parse(pinned); err == nil {
			provider.PreferVersion(name, v)
		}
	}
	s := newSolver(provider, cfg)
	return s.solve(directDeps)
}

// FindMatchingVersion returns the highest-priority version of metadata
// satisfying constraint under the same engine-filtering and sort rules
// Resolve uses, or a VersionError listing every available version and
// its engine shape.
func FindMatchingVersion(metadata *registry.PackageMetadata, constraint, engineTag string, force bool) (*registry.PackageVersion, error) {
	r, err := version.ParseRange(constraint)
	if err != nil {
		return nil, verrors.NewResolutionError("unavailable", fmt.Sprintf("invalid version constraint %q: %v", constraint, err))
	}

	var engineMajor, engineMinor int
	var hasEngineTag bool
	if engineTag != "" {
		if major, minor, ok := parseEngineTag(engineTag); ok {
			engineMajor, engineMinor, hasEngineTag = major, minor, true
		}
	}

	type match struct {
		v  *version.Version
		pv *registry.PackageVersion
	}
	var matches []match
	for i := range metadata.Versions {
		pv := &metadata.Versions[i]
		if pv.Yanked {
			continue
		}
		v, err := version.Parse(pv.Version)
		if err != nil {
			continue
		}
		if !r.Contains(v) {
			continue
		}
		if !force && hasEngineTag && !pv.Engine.Supports(engineMajor, engineMinor) {
			continue
		}
		matches = append(matches, match{v: v, pv: pv})
	}

	if len(matches) == 0 {
		return nil, noMatchError(metadata, constraint, engineTag)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.pv.Engine.IsMultiEngine != b.pv.Engine.IsMultiEngine {
			return !a.pv.Engine.IsMultiEngine
		}
		return a.v.GreaterThan(b.v)
	})

	return matches[0].pv, nil
}

func noMatchError(metadata *registry.PackageMetadata, constraint, engineTag string) error {
	available := make([]string, 0, len(metadata.Versions))
	for _, v := range metadata.Versions {
		shape := v.Version
		switch {
		case !v.Engine.IsMultiEngine && !v.Engine.IsUniversal():
			shape = fmt.Sprintf("%s (UE %d.%d)", v.Version, v.Engine.EngineMajor, v.Engine.EngineMinor)
		case v.Engine.IsMultiEngine && len(v.Engine.Tags) > 0:
			shape = fmt.Sprintf("%s (engines: %s)", v.Version, strings.Join(v.Engine.Tags, ", "))
		default:
			shape = fmt.Sprintf("%s (all engines)", v.Version)
		}
		available = append(available, shape)
	}

	msg := fmt.Sprintf("no version of %q matches constraint %q", metadata.Name, constraint)
	if engineTag != "" {
		msg = fmt.Sprintf("%s for Unreal Engine %s", msg, engineTag)
	}
	return verrors.NewVersionError(metadata.Name, constraint, available, msg)
}

package resolver

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	verrors "github.com/unrealpm/unrealpm/internal/errors"
	"github.com/unrealpm/unrealpm/internal/registry"
	"github.com/unrealpm/unrealpm/pkg/version"
)

// candidate is one available, engine-filtered version of a package, in
// the provider's decreasing-preference order.
type candidate struct {
	version *version.Version
	meta    *registry.PackageVersion
}

// Provider answers the three questions the solver asks about a package:
// its available versions in priority order, the dependency constraints of
// one chosen version, and how many conflicts have accumulated against it
// so far. It memoizes registry lookups for the lifetime of one resolver
// invocation, per the "repeated queries are idempotent" requirement.
type Provider struct {
	registry      registry.Registry
	engineMajor   int
	engineMinor   int
	hasEngineTag  bool
	forceOverride bool
	timeout       time.Duration
	startedAt     time.Time

	metaCache     map[string]*registry.PackageMetadata
	versionsCache map[string][]candidate
	depsCache     map[string]map[string]*version.Range

	conflictCounts map[string]int

	// preferred holds lockfile-pinned versions: when a package's
	// candidate list contains its preferred version, that version is
	// moved to the front so an install that doesn't need to change a
	// dependency won't gratuitously upgrade it. Update leaves this nil.
	preferred map[string]*version.Version
}

// NewProvider builds a Provider bound to one registry and one resolution
// invocation's engine tag / override / timeout policy.
func NewProvider(reg registry.Registry, engineTag string, forceOverride bool, timeoutSeconds int) *Provider {
	p := &Provider{
		registry:       reg,
		forceOverride:  forceOverride,
		metaCache:      make(map[string]*registry.PackageMetadata),
		versionsCache:  make(map[string][]candidate),
		depsCache:      make(map[string]map[string]*version.Range),
		conflictCounts: make(map[string]int),
		startedAt:      time.Now(),
	}
	if timeoutSeconds > 0 {
		p.timeout = time.Duration(timeoutSeconds) * time.Second
	}
	if engineTag != "" {
		if major, minor, ok := parseEngineTag(engineTag); ok {
			p.engineMajor, p.engineMinor, p.hasEngineTag = major, minor, true
		}
	}
	return p
}

// PreferVersion records name's lockfile-pinned version so availableVersions
// ranks it first when it is still a valid candidate. Intended for install
// (stability-preserving); update should not call this.
func (p *Provider) PreferVersion(name string, v *version.Version) {
	if p.preferred == nil {
		p.preferred = make(map[string]*version.Version)
	}
	p.preferred[name] = v
}

func parseEngineTag(tag string) (int, int, bool) {
	parts := strings.SplitN(tag, ".", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return major, minor, true
}

func (p *Provider) metadata(name string) (*registry.PackageMetadata, error) {
	if meta, ok := p.metaCache[name]; ok {
		return meta, nil
	}
	meta, err := p.registry.GetMetadata(name)
	if err != nil {
		return nil, err
	}
	p.metaCache[name] = meta
	return meta, nil
}

// availableVersions returns name's candidates already filtered by engine
// compatibility (unless forceOverride) and sorted engine-specific-first,
// then by descending semantic version.
func (p *Provider) availableVersions(name string) ([]candidate, error) {
	if cached, ok := p.versionsCache[name]; ok {
		return cached, nil
	}

	meta, err := p.metadata(name)
	if err != nil {
		return nil, err
	}

	var candidates []candidate
	for i := range meta.Versions {
		pv := &meta.Versions[i]
		if pv.Yanked {
			continue
		}
		v, err := version.Parse(pv.Version)
		if err != nil {
			continue
		}
		if !p.forceOverride && p.hasEngineTag && !pv.Engine.Supports(p.engineMajor, p.engineMinor) {
			continue
		}
		candidates = append(candidates, candidate{version: v, meta: pv})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.meta.Engine.IsMultiEngine != b.meta.Engine.IsMultiEngine {
			return !a.meta.Engine.IsMultiEngine
		}
		return a.version.GreaterThan(b.version)
	})

	if pinned, ok := p.preferred[name]; ok {
		for i := range candidates {
			if candidates[i].version.Equal(pinned) {
				candidates[0], candidates[i] = candidates[i], candidates[0]
				break
			}
		}
	}

	p.versionsCache[name] = candidates
	return candidates, nil
}

// chooseVersion returns the first available candidate of name contained
// in r, or nil if none qualifies.
func (p *Provider) chooseVersion(name string, r *version.Range) (*candidate, error) {
	candidates, err := p.availableVersions(name)
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		if r.Contains(candidates[i].version) {
			return &candidates[i], nil
		}
	}
	return nil, nil
}

// dependencies returns the dependency constraints declared by (name,
// v), read from the memoized registry metadata; no request is made here
// (the HTTP registry's GetMetadata already fetches each version's detail).
func (p *Provider) dependencies(name string, v *version.Version) (map[string]*version.Range, error) {
	key := name + "@" + v.String()
	if cached, ok := p.depsCache[key]; ok {
		return cached, nil
	}

	if p.timeout > 0 && time.Since(p.startedAt) > p.timeout {
		return nil, verrors.NewResolutionError("timeout", fmt.Sprintf("resolution timeout exceeded while resolving dependencies of %s %s", name, v.String()))
	}

	candidates, err := p.availableVersions(name)
	if err != nil {
		return nil, err
	}
	var pv *registry.PackageVersion
	for i := range candidates {
		if candidates[i].version.Equal(v) {
			pv = candidates[i].meta
			break
		}
	}
	if pv == nil {
		return nil, verrors.NewResolutionError("unavailable", fmt.Sprintf("version %s not found for %s", v.String(), name))
	}

	result := make(map[string]*version.Range, len(pv.Dependencies))
	for _, dep := range pv.Dependencies {
		r, err := version.ParseRange(dep.Range)
		if err != nil {
			return nil, verrors.NewResolutionError("unavailable", fmt.Sprintf("invalid dependency constraint %q for %s required by %s", dep.Range, dep.Name, name))
		}
		result[dep.Name] = r
	}

	p.depsCache[key] = result
	return result, nil
}

// noteConflict records that name's accumulated constraint was tightened
// after a version had already been chosen for it, feeding the
// prioritize heuristic.
func (p *Provider) noteConflict(name string) {
	p.conflictCounts[name]++
}

// priority ranks name for processing order: packages that have already
// produced conflicts go first, then packages with fewer remaining
// candidates, then alphabetically for determinism.
func (p *Provider) priority(name string, r *version.Range) (conflicts, remaining int) {
	conflicts = p.conflictCounts[name]
	candidates, err := p.availableVersions(name)
	if err != nil {
		return conflicts, 0
	}
	for i := range candidates {
		if r.Contains(candidates[i].version) {
			remaining++
		}
	}
	return conflicts, remaining
}

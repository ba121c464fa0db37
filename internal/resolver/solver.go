package resolver

import (
	"fmt"
	"sort"
	"strings"

	verrors "github.com/unrealpm/unrealpm/internal/errors"
	"github.com/unrealpm/unrealpm/pkg/version"
)

// DefaultMaxDepth bounds how many levels deep a chain of dependencies may
// go before the solver gives up rather than recurse indefinitely.
const DefaultMaxDepth = 100

const rootPackage = "__root__"

// Config tunes the solver's limits and conflict-reporting verbosity.
type Config struct {
	EngineTag                string
	ForceOverride            bool
	MaxDepth                 int
	ResolutionTimeoutSeconds int
	VerboseConflicts         bool

	// Preferred holds lockfile-pinned versions (name -> version string)
	// to rank first when still valid, so a plain install doesn't
	// gratuitously move an already-satisfied dependency. Leave nil for
	// update, which must reselect from live registry state.
	Preferred map[string]string
}

// ResolvedPackage is one entry of a completed solve: the exact version
// chosen for a package, its checksum, and the dependency constraints
// recorded against it (re-read from the provider's cache, no new network
// traffic).
type ResolvedPackage struct {
	Name         string
	Version      string
	Checksum     string
	Dependencies map[string]string
}

// edge records why a package was required, for conflict messages.
type edge struct {
	requirer string
	rng      *version.Range
	depth    int
}

// solver runs one resolution invocation. It is not safe for concurrent
// use and is discarded after solve returns.
type solver struct {
	provider *Provider
	cfg      Config

	constraints map[string]*version.Range
	decisions   map[string]*version.Version
	requirers   map[string][]edge
	depth       map[string]int
}

func newSolver(provider *Provider, cfg Config) *solver {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	return &solver{
		provider:    provider,
		cfg:         cfg,
		constraints: make(map[string]*version.Range),
		decisions:   make(map[string]*version.Version),
		requirers:   make(map[string][]edge),
		depth:       make(map[string]int),
	}
}

// solve resolves rootDeps (the manifest's direct dependencies) and
// returns the map of resolved packages, with the synthetic root already
// stripped out.
func (s *solver) solve(rootDeps map[string]string) (map[string]ResolvedPackage, error) {
	s.decisions[rootPackage] = &version.Version{}

	pending := make([]string, 0, len(rootDeps))
	for name, constraint := range rootDeps {
		r, err := version.ParseRange(constraint)
		if err != nil {
			return nil, verrors.NewResolutionError("unavailable", fmt.Sprintf("invalid version constraint %q for %s", constraint, name))
		}
		if err := s.addConstraint(name, r, "your project", 1); err != nil {
			return nil, err
		}
		pending = append(pending, name)
	}

	if err := s.run(pending); err != nil {
		return nil, err
	}

	result := make(map[string]ResolvedPackage, len(s.decisions)-1)
	for name, v := range s.decisions {
		if name == rootPackage {
			continue
		}
		deps, err := s.provider.dependencies(name, v)
		if err != nil {
			return nil, err
		}
		depStrings := make(map[string]string, len(deps))
		for depName, r := range deps {
			depStrings[depName] = r.String()
		}

		var checksum string
		if candidates, err := s.provider.availableVersions(name); err == nil {
			for i := range candidates {
				if candidates[i].version.Equal(v) {
					checksum = candidates[i].meta.Checksum
					break
				}
			}
		}

		result[name] = ResolvedPackage{
			Name:         name,
			Version:      v.String(),
			Checksum:     checksum,
			Dependencies: depStrings,
		}
	}
	return result, nil
}

// addConstraint intersects a new requirement into name's accumulated
// range, records the requirer for reporting, and flags a conflict if
// name was already decided and the tightened range rejects the decision.
func (s *solver) addConstraint(name string, r *version.Range, requirer string, depth int) error {
	current, ok := s.constraints[name]
	if !ok {
		current = version.Full()
	}
	narrowed := current.Intersection(r)
	s.constraints[name] = narrowed
	s.requirers[name] = append(s.requirers[name], edge{requirer: requirer, rng: r, depth: depth})

	if narrowed.IsEmpty() {
		return s.conflictError(name)
	}

	if existing, decided := s.decisions[name]; decided {
		if !narrowed.Contains(existing) {
			s.provider.noteConflict(name)
		}
	}

	if depth > s.depth[name] {
		s.depth[name] = depth
	}
	if s.depth[name] > s.cfg.MaxDepth {
		return verrors.NewResolutionError("depth_exceeded", fmt.Sprintf("maximum resolution depth (%d) exceeded at %q", s.cfg.MaxDepth, name))
	}

	return nil
}

// run drains the processing queue, deciding (or redeciding) a version
// for each package and enqueueing its dependencies, until every
// constraint is satisfied by a consistent decision or a conflict aborts
// the solve.
func (s *solver) run(initial []string) error {
	queue := append([]string{}, initial...)

	for len(queue) > 0 {
		s.sortByPriority(queue)
		name := queue[0]
		queue = queue[1:]

		r := s.constraints[name]
		if r.IsEmpty() {
			return s.conflictError(name)
		}

		if existing, ok := s.decisions[name]; ok && r.Contains(existing) {
			continue
		}

		chosen, err := s.provider.chooseVersion(name, r)
		if err != nil {
			return err
		}
		if chosen == nil {
			return s.conflictError(name)
		}

		s.decisions[name] = chosen.version
		deps, err := s.provider.dependencies(name, chosen.version)
		if err != nil {
			return err
		}

		label := fmt.Sprintf("%s %s", name, chosen.version.String())
		for depName, depRange := range deps {
			if err := s.addConstraint(depName, depRange, label, s.depth[name]+1); err != nil {
				return err
			}
			queue = append(queue, depName)
		}
	}

	return nil
}

// sortByPriority orders the queue per the dependency provider's
// prioritize rule: more accumulated conflicts first, then fewer
// remaining candidates, then name for determinism.
func (s *solver) sortByPriority(queue []string) {
	sort.SliceStable(queue, func(i, j int) bool {
		a, b := queue[i], queue[j]
		confA, remA := s.provider.priority(a, s.constraints[a])
		confB, remB := s.provider.priority(b, s.constraints[b])
		if confA != confB {
			return confA > confB
		}
		if remA != remB {
			return remA < remB
		}
		return a < b
	})
}

// conflictError builds a human-readable, collapsed-unless-verbose
// explanation of why name could not be satisfied: every requirer's
// constraint, rewritten so the synthetic root reads as "your project"
// and its placeholder version is elided.
func (s *solver) conflictError(name string) error {
	edges := s.requirers[name]
	var lines []string
	seen := make(map[string]bool)
	for _, e := range edges {
		line := fmt.Sprintf("%s requires %s %s", e.requirer, name, e.rng.String())
		if s.cfg.VerboseConflicts {
			line = fmt.Sprintf("%s (depth %d)", line, e.depth)
		}
		if seen[line] {
			continue
		}
		seen[line] = true
		lines = append(lines, line)
	}

	if available, err := s.provider.availableVersions(name); err == nil && len(available) == 0 {
		lines = append(lines, fmt.Sprintf("no engine-compatible versions of %s are available", name))
	}

	explanation := fmt.Sprintf("Dependency resolution failed for %q:\n  %s", name, strings.Join(lines, "\n  "))
	explanation = strings.ReplaceAll(explanation, rootPackage, "your project")

	return verrors.NewResolutionError("no_solution", explanation)
}

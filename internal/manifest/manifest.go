// Package manifest reads and writes a project's declarative dependency
// state: the set of plugins a project depends on, expressed as version
// ranges rather than exact versions. The manifest is mutated by init,
// install, and uninstall, and read by the resolver.
package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	verrors "github.com/unrealpm/unrealpm/internal/errors"
)

// FileName is the manifest's filename within a project root.
const FileName = "unrealpm.json"

// Manifest is the declarative, version-range dependency state of one
// project. Unlike the Lockfile, it names no exact versions or checksums —
// it is what a human edits and what the resolver takes as input.
type Manifest struct {
	Name            string            `json:"name,omitempty"`
	Version         string            `json:"version,omitempty"`
	Description     string            `json:"description,omitempty"`
	EngineVersion   string            `json:"engine_version,omitempty"`
	Dependencies    map[string]string `json:"dependencies,omitempty"`
	DevDependencies map[string]string `json:"dev_dependencies,omitempty"`

	path string
}

// Exists reports whether a manifest file is present in dir.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, FileName))
	return err == nil
}

// Load reads the manifest from dir. It is not an error for the file to be
// absent: Load returns a fresh, empty Manifest scoped to dir so callers
// can populate it (e.g. during init) and Save it.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)

	m := &Manifest{
		Dependencies:    make(map[string]string),
		DevDependencies: make(map[string]string),
		path:            path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, verrors.NewConfigError(path, 0, 0, "failed to read manifest", err)
	}

	if err := json.Unmarshal(data, m); err != nil {
		return nil, verrors.NewConfigError(path, 0, 0, "failed to parse manifest", err)
	}

	m.path = path
	if m.Dependencies == nil {
		m.Dependencies = make(map[string]string)
	}
	if m.DevDependencies == nil {
		m.DevDependencies = make(map[string]string)
	}

	return m, nil
}

// Save writes the manifest to its project directory. The dependency maps
// are serialized with stable, sorted key order so repeated saves with no
// semantic change produce byte-identical files.
func (m *Manifest) Save() error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return verrors.NewConfigError(m.path, 0, 0, "failed to create project directory", err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return verrors.NewConfigError(m.path, 0, 0, "failed to encode manifest", err)
	}
	data = append(data, '\n')

	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return verrors.NewConfigError(m.path, 0, 0, "failed to write manifest", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		os.Remove(tmp)
		return verrors.NewConfigError(m.path, 0, 0, "failed to finalize manifest", err)
	}
	return nil
}

// AddDependency inserts or updates a dependency's version range. dev
// controls whether it lands in Dependencies or DevDependencies.
func (m *Manifest) AddDependency(name, versionRange string, dev bool) {
	if dev {
		if m.DevDependencies == nil {
			m.DevDependencies = make(map[string]string)
		}
		m.DevDependencies[name] = versionRange
		return
	}
	if m.Dependencies == nil {
		m.Dependencies = make(map[string]string)
	}
	m.Dependencies[name] = versionRange
}

// RemoveDependency removes name from both dependency maps and reports
// whether it was present in either.
func (m *Manifest) RemoveDependency(name string) bool {
	_, inDeps := m.Dependencies[name]
	_, inDev := m.DevDependencies[name]
	delete(m.Dependencies, name)
	delete(m.DevDependencies, name)
	return inDeps || inDev
}

// HasDependency reports whether name appears in either dependency map.
func (m *Manifest) HasDependency(name string) bool {
	if _, ok := m.Dependencies[name]; ok {
		return true
	}
	_, ok := m.DevDependencies[name]
	return ok
}

// DependencyNames returns the names of all direct dependencies (production
// plus dev), sorted for deterministic iteration.
func (m *Manifest) DependencyNames() []string {
	names := make([]string, 0, len(m.Dependencies)+len(m.DevDependencies))
	for name := range m.Dependencies {
		names = append(names, name)
	}
	for name := range m.DevDependencies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AllDependencies returns production and dev dependencies merged into one
// map of name to version range string. A name present in both maps takes
// its production-dependency range.
func (m *Manifest) AllDependencies() map[string]string {
	merged := make(map[string]string, len(m.Dependencies)+len(m.DevDependencies))
	for name, rng := range m.DevDependencies {
		merged[name] = rng
	}
	for name, rng := range m.Dependencies {
		merged[name] = rng
	}
	return merged
}

// Package lockfile manages the project's reproducibility contract: the
// exact versions and checksums the resolver chose the last time it ran.
//
// The lockfile is stored at unrealpm.lock.json. Every successful install or
// update overwrites it; a re-install still runs the resolver, but ranks
// each package's locked version first while it satisfies the constraints.
package lockfile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	verrors "github.com/unrealpm/unrealpm/internal/errors"
)

// timestamp returns the current time in RFC 3339 form, UTC, for the
// lockfile's generated_at field.
func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// FileName is the lockfile's filename within a project root.
const FileName = "unrealpm.lock.json"

// ToolVersion is stamped into every lockfile's metadata so a future tool
// version can detect and migrate an older format if the shape ever changes.
const ToolVersion = "1.0"

// Lockfile pins exact versions and checksums for reproducible installs.
type Lockfile struct {
	Metadata Metadata                 `json:"metadata"`
	Packages map[string]LockedPackage `json:"package"`

	path string
}

// Metadata records when and by which tool version a lockfile was produced.
type Metadata struct {
	ToolVersion string `json:"tool_version"`
	GeneratedAt string `json:"generated_at"`
}

// LockedPackage is one resolved, exact entry in the lockfile.
type LockedPackage struct {
	Version      string            `json:"version"`
	Checksum     string            `json:"checksum"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// Load reads the lockfile from dir. Absence of the file is not an error:
// Load returns nil, nil so callers can distinguish "no lockfile yet" from
// a present-but-empty one.
func Load(dir string) (*Lockfile, error) {
	path := filepath.Join(dir, FileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, verrors.NewConfigError(path, 0, 0, "failed to read lockfile", err)
	}

	l := &Lockfile{path: path}
	if err := json.Unmarshal(data, l); err != nil {
		return nil, verrors.NewConfigError(path, 0, 0, "failed to parse lockfile", err)
	}
	if l.Packages == nil {
		l.Packages = make(map[string]LockedPackage)
	}
	return l, nil
}

// New creates an empty lockfile scoped to dir, ready for Upsert and Save.
func New(dir string) *Lockfile {
	return &Lockfile{
		Metadata: Metadata{ToolVersion: ToolVersion},
		Packages: make(map[string]LockedPackage),
		path:     filepath.Join(dir, FileName),
	}
}

// Save writes the lockfile atomically: the new content is written to a
// temporary sibling file and then renamed over the target, so a crash or
// interrupted write never leaves a corrupted lockfile in place of a good
// one.
func (l *Lockfile) Save() error {
	l.Metadata.GeneratedAt = timestamp()
	if l.Metadata.ToolVersion == "" {
		l.Metadata.ToolVersion = ToolVersion
	}

	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return verrors.NewConfigError(l.path, 0, 0, "failed to encode lockfile", err)
	}
	data = append(data, '\n')

	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return verrors.NewConfigError(l.path, 0, 0, "failed to write lockfile", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		os.Remove(tmp)
		return verrors.NewConfigError(l.path, 0, 0, "failed to finalize lockfile", err)
	}
	return nil
}

// Upsert records or replaces the locked entry for name. The lockfile's
// generated_at timestamp is refreshed on the following Save, not here, so
// a caller making several Upserts before one Save only pays for one
// timestamp update.
func (l *Lockfile) Upsert(name, version, checksum string, deps map[string]string) {
	if l.Packages == nil {
		l.Packages = make(map[string]LockedPackage)
	}
	l.Packages[name] = LockedPackage{
		Version:      version,
		Checksum:     checksum,
		Dependencies: deps,
	}
}

// Remove deletes name's locked entry, if any.
func (l *Lockfile) Remove(name string) {
	delete(l.Packages, name)
}

// Get returns the locked entry for name, and whether it was present.
func (l *Lockfile) Get(name string) (LockedPackage, bool) {
	pkg, ok := l.Packages[name]
	return pkg, ok
}

// Has reports whether name has a locked entry.
func (l *Lockfile) Has(name string) bool {
	_, ok := l.Packages[name]
	return ok
}

// Names returns all locked package names, sorted.
func (l *Lockfile) Names() []string {
	names := make([]string, 0, len(l.Packages))
	for name := range l.Packages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

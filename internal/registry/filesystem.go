package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agext/levenshtein"

	verrors "github.com/unrealpm/unrealpm/internal/errors"
)

// FileRegistry is the filesystem-backed registry variant of spec.md §4.C:
// metadata at <root>/packages/<name>.json, tarballs at
// <root>/tarballs/<name>-<version>.tar.gz, signatures at
// <root>/signatures/<name>-<version>.sig.
type FileRegistry struct {
	root string
}

// NewFileRegistry opens a filesystem registry rooted at path. The root
// need not exist yet — it is created lazily on first publish.
func NewFileRegistry(path string) (*FileRegistry, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, verrors.NewRegistryError(path, "connect", err)
	}
	return &FileRegistry{root: abs}, nil
}

func (r *FileRegistry) Protocol() string { return "file" }

func (r *FileRegistry) metadataPath(name string) string {
	return filepath.Join(r.root, "packages", name+".json")
}

func (r *FileRegistry) tarballPath(name, version string) string {
	return filepath.Join(r.root, "tarballs", name+"-"+version+".tar.gz")
}

func (r *FileRegistry) signaturePath(name, version string) string {
	return filepath.Join(r.root, "signatures", name+"-"+version+".sig")
}

// GetMetadata reads <root>/packages/<name>.json. When the package is
// absent, the error carries up to five "did you mean" suggestions
// computed over the other package names present in the registry, per
// spec.md §4.C's Levenshtein-distance-or-substring rule. This suggestion
// behavior is specific to the filesystem registry; the HTTP registry
// never attempts it.
func (r *FileRegistry) GetMetadata(name string) (*PackageMetadata, error) {
	path := r.metadataPath(name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, verrors.NewNotFoundError("package", name, r.suggest(name)...)
		}
		return nil, verrors.NewRegistryError(r.root, "fetch", err)
	}

	var meta PackageMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, verrors.NewRegistryError(r.root, "fetch", err)
	}
	return &meta, nil
}

// suggest computes up to five candidate package names: an exact
// hyphen/underscore/case alias (per NamesMatch) always sorts first, since
// that candidate is almost certainly what the caller meant; the rest are
// filled in by substring containment or Levenshtein distance 3.
func (r *FileRegistry) suggest(name string) []string {
	dir := filepath.Join(r.root, "packages")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	lowerName := strings.ToLower(name)
	var alias string
	var candidates []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		candidate := strings.TrimSuffix(e.Name(), ".json")

		if alias == "" && NamesMatch(name, candidate) {
			alias = candidate
			continue
		}

		lowerCandidate := strings.ToLower(candidate)
		if strings.Contains(lowerCandidate, lowerName) || strings.Contains(lowerName, lowerCandidate) {
			candidates = append(candidates, candidate)
			continue
		}
		if levenshtein.Distance(lowerName, lowerCandidate, nil) <= 3 {
			candidates = append(candidates, candidate)
		}
	}

	sort.Strings(candidates)
	if alias != "" {
		candidates = append([]string{alias}, candidates...)
	}
	if len(candidates) > 5 {
		candidates = candidates[:5]
	}
	return candidates
}

// DownloadTarball returns the cached tarball if it already matches
// expectedChecksum; otherwise it copies from the registry's own tarball
// store (this is a filesystem registry, so "download" is a local copy)
// and verifies the checksum before returning.
func (r *FileRegistry) DownloadTarball(name, version, expectedChecksum string) (string, error) {
	cache, err := DefaultCache()
	if err != nil {
		return "", err
	}

	if cache.HasValidTarball(name, version, expectedChecksum) {
		return cache.TarballPath(name, version), nil
	}

	srcPath := r.tarballPath(name, version)
	src, err := os.Open(srcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", verrors.NewNotFoundError("tarball", name+"-"+version)
		}
		return "", verrors.NewRegistryError(r.root, "download", err)
	}
	defer src.Close()

	dest, err := cache.PlaceTarball(name, version, src)
	if err != nil {
		return "", verrors.NewRegistryError(r.root, "download", err)
	}

	actual, err := ChecksumFile(dest)
	if err != nil {
		return "", verrors.NewRegistryError(r.root, "download", err)
	}
	if actual != expectedChecksum {
		os.Remove(dest)
		return "", verrors.NewIntegrityError("checksum", expectedChecksum, actual, "")
	}
	return dest, nil
}

// DownloadSignature copies the registry's signature file for (name,
// version) into the cache, if present.
func (r *FileRegistry) DownloadSignature(name, version string) (string, error) {
	srcPath := r.signaturePath(name, version)
	src, err := os.Open(srcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", verrors.NewNotFoundError("signature", name+"-"+version)
		}
		return "", verrors.NewRegistryError(r.root, "download", err)
	}
	defer src.Close()

	cache, err := DefaultCache()
	if err != nil {
		return "", err
	}
	dest, err := cache.PlaceSignature(name, version, src)
	if err != nil {
		return "", verrors.NewRegistryError(r.root, "download", err)
	}
	return dest, nil
}

// Search lists packages whose name contains query as a case-insensitive
// substring, sorted for determinism.
func (r *FileRegistry) Search(query string) ([]SearchResult, error) {
	dir := filepath.Join(r.root, "packages")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, verrors.NewRegistryError(r.root, "search", err)
	}

	lowerQuery := strings.ToLower(query)
	var results []SearchResult
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".json")
		if query != "" && !strings.Contains(strings.ToLower(name), lowerQuery) {
			continue
		}

		meta, err := r.GetMetadata(name)
		if err != nil {
			continue
		}
		result := SearchResult{Name: name, Description: meta.Description}
		if latest := meta.Latest(); latest != nil {
			result.LatestVersion = latest.Version
		}
		results = append(results, result)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return results, nil
}

// Publish copies the tarball (and optional signature) into the registry's
// stores and inserts or replaces the version record in
// <root>/packages/<name>.json.
func (r *FileRegistry) Publish(tarballPath, signaturePath string, metadata PublishMetadata) error {
	meta, err := r.GetMetadata(metadata.Name)
	if err != nil {
		var nf *verrors.NotFoundError
		if !verrors.As(err, &nf) {
			return err
		}
		meta = &PackageMetadata{Name: metadata.Name, Description: metadata.Description}
	}

	if existing := meta.Find(metadata.Version); existing != nil {
		return verrors.NewRemoteConflictError(metadata.Name+"@"+metadata.Version, "version already exists")
	}

	if err := copyFile(tarballPath, r.tarballPath(metadata.Name, metadata.Version)); err != nil {
		return verrors.NewRegistryError(r.root, "publish", err)
	}
	if signaturePath != "" {
		if err := copyFile(signaturePath, r.signaturePath(metadata.Name, metadata.Version)); err != nil {
			return verrors.NewRegistryError(r.root, "publish", err)
		}
	}

	meta.Versions = append(meta.Versions, PackageVersion{
		Name:            metadata.Name,
		Version:         metadata.Version,
		TarballLocation: r.tarballPath(metadata.Name, metadata.Version),
		Checksum:        metadata.Checksum,
		Dependencies:    metadata.Dependencies,
		Engine:          metadata.Engine,
		Kind:            metadata.Kind,
		PublicKey:       metadata.PublicKey,
		SignedAt:        metadata.SignedAt,
	})

	return r.saveMetadata(meta)
}

// Unpublish removes a single version, or the whole package record when
// version is empty.
func (r *FileRegistry) Unpublish(name, version string) error {
	if version == "" {
		path := r.metadataPath(name)
		if err := os.Remove(path); err != nil {
			if os.IsNotExist(err) {
				return verrors.NewNotFoundError("package", name)
			}
			return verrors.NewRegistryError(r.root, "unpublish", err)
		}
		return nil
	}

	meta, err := r.GetMetadata(name)
	if err != nil {
		return err
	}

	kept := meta.Versions[:0]
	found := false
	for _, v := range meta.Versions {
		if v.Version == version {
			found = true
			continue
		}
		kept = append(kept, v)
	}
	if !found {
		return verrors.NewNotFoundError("version", name+"@"+version)
	}
	meta.Versions = kept
	return r.saveMetadata(meta)
}

func (r *FileRegistry) Yank(name, version string) error   { return r.setYanked(name, version, true) }
func (r *FileRegistry) Unyank(name, version string) error { return r.setYanked(name, version, false) }

func (r *FileRegistry) setYanked(name, version string, yanked bool) error {
	meta, err := r.GetMetadata(name)
	if err != nil {
		return err
	}
	v := meta.Find(version)
	if v == nil {
		return verrors.NewNotFoundError("version", name+"@"+version)
	}
	v.Yanked = yanked
	return r.saveMetadata(meta)
}

func (r *FileRegistry) saveMetadata(meta *PackageMetadata) error {
	path := r.metadataPath(meta.Name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}

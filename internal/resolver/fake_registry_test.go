package resolver

import (
	verrors "github.com/unrealpm/unrealpm/internal/errors"
	"github.com/unrealpm/unrealpm/internal/registry"
)

// fakeRegistry is an in-memory registry.Registry for resolver tests. Only
// GetMetadata is exercised by the solver; the rest satisfy the interface.
type fakeRegistry struct {
	packages map[string]*registry.PackageMetadata
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{packages: make(map[string]*registry.PackageMetadata)}
}

func (f *fakeRegistry) add(name string, versions ...registry.PackageVersion) {
	f.packages[name] = &registry.PackageMetadata{Name: name, Versions: versions}
}

func pv(version, checksum string, deps ...registry.Dependency) registry.PackageVersion {
	return registry.PackageVersion{Version: version, Checksum: checksum, Dependencies: deps}
}

func dep(name, rng string) registry.Dependency {
	return registry.Dependency{Name: name, Range: rng}
}

func (f *fakeRegistry) Protocol() string { return "fake" }

func (f *fakeRegistry) GetMetadata(name string) (*registry.PackageMetadata, error) {
	meta, ok := f.packages[name]
	if !ok {
		return nil, verrors.NewNotFoundError("package", name)
	}
	return meta, nil
}

func (f *fakeRegistry) DownloadTarball(name, version, expectedChecksum string) (string, error) {
	return "", verrors.NewNotFoundError("tarball", name)
}

func (f *fakeRegistry) DownloadSignature(name, version string) (string, error) {
	return "", verrors.NewNotFoundError("signature", name)
}

func (f *fakeRegistry) Search(query string) ([]registry.SearchResult, error) { return nil, nil }

func (f *fakeRegistry) Publish(tarballPath, signaturePath string, metadata registry.PublishMetadata) error {
	return nil
}

func (f *fakeRegistry) Unpublish(name, version string) error { return nil }
func (f *fakeRegistry) Yank(name, version string) error      { return nil }
func (f *fakeRegistry) Unyank(name, version string) error    { return nil }

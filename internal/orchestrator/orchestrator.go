// Package orchestrator drives the three top-level flows of the tool —
// install, update, and publish — by composing the manifest, lockfile,
// resolver, registry, archive, signing, and installer packages. It is
// the only package that touches more than one of those at once; each of
// them stays ignorant of the others.
//
// The core here never logs or prints: every flow returns rich state
// (PackageResult/Result) for a caller (the cli package) to render.
package orchestrator

import (
	"os"
	"path/filepath"

	"github.com/unrealpm/unrealpm/internal/archive"
	verrors "github.com/unrealpm/unrealpm/internal/errors"
	"github.com/unrealpm/unrealpm/internal/installer"
	"github.com/unrealpm/unrealpm/internal/lockfile"
	"github.com/unrealpm/unrealpm/internal/manifest"
	"github.com/unrealpm/unrealpm/internal/registry"
	"github.com/unrealpm/unrealpm/internal/resolver"
	"github.com/unrealpm/unrealpm/internal/signing"
	"github.com/unrealpm/unrealpm/internal/uplugin"
)

// State is one step of a per-package install attempt's state machine, per
// spec.md §4.I: ResolveOk -> Downloading -> Downloaded ->
// SignatureChecking -> SignatureOk -> ChecksumChecking -> ChecksumOk ->
// Extracting -> Installed, with any stage able to transition to Failed.
type State string

const (
	StateResolveOk         State = "resolve_ok"
	StateDownloading       State = "downloading"
	StateDownloaded        State = "downloaded"
	StateSignatureChecking State = "signature_checking"
	StateSignatureOk       State = "signature_ok"
	StateChecksumChecking  State = "checksum_checking"
	StateChecksumOk        State = "checksum_ok"
	StateExtracting        State = "extracting"
	StateInstalled         State = "installed"
	StateFailed            State = "failed"
)

// PackageResult is the outcome of processing one resolved package during
// install or update.
type PackageResult struct {
	Name         string
	Version      string
	Checksum     string
	Dependencies map[string]string
	State        State
	Path         string
	Err          error
}

// Options configures one Orchestrator. EngineTag and ForceOverride feed
// the resolver's engine-compatibility filtering; RequireSignatures and
// VerifySignatures gate the per-package signature-checking stage.
type Options struct {
	EngineTag                string
	ForceOverride            bool
	RequireSignatures        bool
	VerifySignatures         bool
	MaxDepth                 int
	ResolutionTimeoutSeconds int
	VerboseConflicts         bool
	Progress                 installer.ProgressFunc
}

// Orchestrator holds the per-project state (manifest, lockfile) and the
// shared services (registry, cache) one invocation of install/update/
// publish needs.
type Orchestrator struct {
	projectRoot string
	reg         registry.Registry
	cache       *registry.Cache
	opts        Options

	Manifest *manifest.Manifest
	Lockfile *lockfile.Lockfile
}

// New loads a project's manifest and lockfile and returns an Orchestrator
// bound to reg and cache for the install/update/publish flows.
func New(projectRoot string, reg registry.Registry, cache *registry.Cache, opts Options) (*Orchestrator, error) {
	m, err := manifest.Load(projectRoot)
	if err != nil {
		return nil, err
	}
	lf, err := lockfile.Load(projectRoot)
	if err != nil {
		return nil, err
	}
	if lf == nil {
		lf = lockfile.New(projectRoot)
	}
	return &Orchestrator{
		projectRoot: projectRoot,
		reg:         reg,
		cache:       cache,
		opts:        opts,
		Manifest:    m,
		Lockfile:    lf,
	}, nil
}

func (o *Orchestrator) resolverConfig(preferred map[string]string) resolver.Config {
	return resolver.Config{
		EngineTag:                o.opts.EngineTag,
		ForceOverride:            o.opts.ForceOverride,
		MaxDepth:                 o.opts.MaxDepth,
		ResolutionTimeoutSeconds: o.opts.ResolutionTimeoutSeconds,
		VerboseConflicts:         o.opts.VerboseConflicts,
		Preferred:                preferred,
	}
}

// lockedVersions returns the currently locked (name -> version) map, used
// to bias plain installs toward stability.
func (o *Orchestrator) lockedVersions() map[string]string {
	locked := make(map[string]string, len(o.Lockfile.Packages))
	for name, pkg := range o.Lockfile.Packages {
		locked[name] = pkg.Version
	}
	return locked
}

// GC lists (and, unless dryRun, deletes) content-cache entries that no
// package in the current lockfile references, per spec.md §4.F. It
// returns the content-addressed directories it found or removed. A nil
// cache (no shared content store configured) is reported as nothing to
// collect.
func (o *Orchestrator) GC(dryRun bool) ([]string, error) {
	if o.cache == nil {
		return nil, nil
	}

	live := make(map[string]bool, len(o.Lockfile.Packages))
	for _, pkg := range o.Lockfile.Packages {
		live[pkg.Checksum] = true
	}

	stale, err := o.cache.GCCandidates(live)
	if err != nil {
		return nil, err
	}
	if dryRun {
		return stale, nil
	}

	for _, path := range stale {
		if err := os.RemoveAll(path); err != nil {
			return nil, err
		}
	}
	return stale, nil
}

// InstallOne adds name at versionRange to the manifest and installs every
// transitive dependency of the resulting dependency set, preferring
// already-locked versions where still valid. dryRun performs resolution
// and per-package planning without writing the manifest, lockfile, or
// Plugins/ tree.
func (o *Orchestrator) InstallOne(name, versionRange string, dev, dryRun bool) ([]PackageResult, error) {
	if !dryRun {
		o.Manifest.AddDependency(name, versionRange, dev)
	}

	deps := o.Manifest.AllDependencies()
	if dryRun {
		deps = mergeDeps(deps, name, versionRange)
	}

	resolved, err := resolver.Resolve(deps, o.reg, o.resolverConfig(o.lockedVersions()))
	if err != nil {
		return nil, err
	}

	results := o.processAll(resolved, dryRun)
	if dryRun {
		return results, nil
	}

	if err := o.commit(results); err != nil {
		return results, err
	}
	return results, nil
}

// InstallAll resolves every manifest dependency, preferring already-locked
// versions, and downloads and installs every resolved package, including
// ones already present under Plugins/. Per-package
// failures are recorded and processing continues; the lockfile is saved
// covering the packages that succeeded.
func (o *Orchestrator) InstallAll(dryRun bool) ([]PackageResult, error) {
	deps := o.Manifest.AllDependencies()
	resolved, err := resolver.Resolve(deps, o.reg, o.resolverConfig(o.lockedVersions()))
	if err != nil {
		return nil, err
	}

	results := o.processAll(resolved, dryRun)
	if dryRun {
		return results, nil
	}

	if err := o.commit(results); err != nil {
		return results, err
	}
	return results, nil
}

// Update recomputes versions for names (or every manifest dependency if
// names is empty) from live registry state, ignoring the lockfile for
// selection, and writes a fresh lockfile.
func (o *Orchestrator) Update(names []string, dryRun bool) ([]PackageResult, error) {
	deps := o.Manifest.AllDependencies()
	if len(names) > 0 {
		filtered := make(map[string]string, len(names))
		for _, n := range names {
			if r, ok := deps[n]; ok {
				filtered[n] = r
			}
		}
		deps = filtered
	}

	resolved, err := resolver.Resolve(deps, o.reg, o.resolverConfig(nil))
	if err != nil {
		return nil, err
	}

	results := o.processAll(resolved, dryRun)
	if dryRun {
		return results, nil
	}
	if err := o.commit(results); err != nil {
		return results, err
	}
	return results, nil
}

// processAll runs processPackage over every resolved package. Failures
// are recorded per package rather than aborting the batch, per spec.md
// §4.I's "record the error and continue" install-all policy.
func (o *Orchestrator) processAll(resolved map[string]resolver.ResolvedPackage, dryRun bool) []PackageResult {
	results := make([]PackageResult, 0, len(resolved))
	for name, pkg := range resolved {
		results = append(results, o.processPackage(name, pkg, dryRun))
	}
	return results
}

// processPackage drives one package through the install state machine.
func (o *Orchestrator) processPackage(name string, pkg resolver.ResolvedPackage, dryRun bool) PackageResult {
	r := PackageResult{Name: name, Version: pkg.Version, Checksum: pkg.Checksum, Dependencies: pkg.Dependencies, State: StateResolveOk}

	if dryRun {
		r.State = StateChecksumOk
		return r
	}

	r.State = StateDownloading
	tarballPath, err := o.reg.DownloadTarball(name, pkg.Version, pkg.Checksum)
	if err != nil {
		return fail(r, err)
	}
	r.State = StateDownloaded

	if o.opts.VerifySignatures || o.opts.RequireSignatures {
		r.State = StateSignatureChecking
		if err := o.verifySignature(name, pkg.Version, tarballPath); err != nil {
			return fail(r, err)
		}
		r.State = StateSignatureOk
	}

	r.State = StateChecksumChecking
	if err := archive.VerifyChecksum(tarballPath, pkg.Checksum, o.opts.Progress); err != nil {
		return fail(r, err)
	}
	r.State = StateChecksumOk

	r.State = StateExtracting
	installedPath, err := installer.Install(tarballPath, o.projectRoot, name, o.opts.Progress)
	if err != nil {
		return fail(r, err)
	}

	r.State = StateInstalled
	r.Path = installedPath
	return r
}

func (o *Orchestrator) verifySignature(name, version, tarballPath string) error {
	meta, err := o.reg.GetMetadata(name)
	if err != nil {
		return err
	}
	var publicKey string
	for _, v := range meta.Versions {
		if v.Version == version {
			publicKey = v.PublicKey
			break
		}
	}
	if publicKey == "" {
		if o.opts.RequireSignatures {
			return verrors.NewIntegrityError("signature_required", "", "", "package is unsigned but signatures are required")
		}
		return nil
	}

	sigPath, err := o.reg.DownloadSignature(name, version)
	if err != nil {
		if o.opts.RequireSignatures {
			return verrors.NewIntegrityError("signature_required", "", "", "signature could not be downloaded")
		}
		return nil
	}

	data, err := os.ReadFile(tarballPath)
	if err != nil {
		return err
	}
	sig, err := os.ReadFile(sigPath)
	if err != nil {
		return err
	}
	ok, err := signing.Verify(data, sig, publicKey)
	if err != nil {
		return err
	}
	if !ok {
		return verrors.NewIntegrityError("signature", "", "", "signature verification failed")
	}
	return nil
}

// commit writes the manifest and a lockfile covering every successfully
// installed package; packages that failed keep their prior lockfile
// entry untouched.
func (o *Orchestrator) commit(results []PackageResult) error {
	for _, r := range results {
		if r.State == StateInstalled {
			o.Lockfile.Upsert(r.Name, r.Version, r.Checksum, r.Dependencies)
		}
	}

	if err := o.Manifest.Save(); err != nil {
		return err
	}
	return o.Lockfile.Save()
}

func fail(r PackageResult, err error) PackageResult {
	r.State = StateFailed
	r.Err = err
	return r
}

func mergeDeps(deps map[string]string, name, versionRange string) map[string]string {
	merged := make(map[string]string, len(deps)+1)
	for k, v := range deps {
		merged[k] = v
	}
	merged[name] = versionRange
	return merged
}

// Publish locates the .uplugin file in pluginDir, archives the directory,
// computes its checksum, optionally signs it, and uploads it to reg with
// structured metadata. On a filesystem registry, the metadata is written
// atomically as part of Registry.Publish.
func Publish(pluginDir string, reg registry.Registry, keypair *signing.Keypair, engine registry.EngineCompatibility, kind registry.PackageKind, outputDir string, progress installer.ProgressFunc) (*registry.PublishMetadata, error) {
	upluginPath, err := uplugin.FindPlugin(pluginDir)
	if err != nil {
		return nil, err
	}
	plugin, err := uplugin.LoadPlugin(upluginPath)
	if err != nil {
		return nil, err
	}
	name := uplugin.NameFromPath(upluginPath)

	archiver, err := archive.New(pluginDir, name, plugin.VersionName)
	if err != nil {
		return nil, err
	}
	outputPath := filepath.Join(outputDir, name+"-"+plugin.VersionName+".tar.gz")
	result, err := archiver.Pack(outputPath, progress)
	if err != nil {
		return nil, err
	}

	metadata := registry.PublishMetadata{
		Name:        name,
		Version:     plugin.VersionName,
		Description: plugin.Description,
		Checksum:    result.Checksum,
		Engine:      engine,
		Kind:        kind,
	}

	var signaturePath string
	if keypair != nil {
		data, err := os.ReadFile(result.Path)
		if err != nil {
			return nil, err
		}
		sig := keypair.Sign(data)
		signaturePath = result.Path + ".sig"
		if err := os.WriteFile(signaturePath, sig, 0o644); err != nil {
			return nil, err
		}
		metadata.PublicKey = keypair.PublicKeyHex()
	}

	if err := reg.Publish(result.Path, signaturePath, metadata); err != nil {
		return nil, err
	}
	return &metadata, nil
}

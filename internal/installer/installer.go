// Package installer extracts a downloaded plugin tarball into a project's
// Plugins/ directory, reconciling the archive's root directory name against
// the package name and removing any prior installation first.
//
// Installation is destructive by design: an existing installation of a
// plugin is removed before the new one is extracted, rather than staged
// alongside it. A failed extraction therefore never mixes old and new
// files, but it can leave the plugin absent or partially extracted.
package installer

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	verrors "github.com/unrealpm/unrealpm/internal/errors"
	"github.com/unrealpm/unrealpm/internal/archive"
)

// ProgressFunc reports incremental progress during extraction.
type ProgressFunc = archive.ProgressFunc

// Install extracts tarballPath into projectRoot's Plugins/ directory as
// pluginName, following spec.md-shaped semantics:
//
//  1. Ensure Plugins/ exists.
//  2. Remove any existing directory under Plugins/ that contains a
//     <pluginName>.uplugin file (case-insensitive) — the reinstall step.
//  3. Extract the archive into Plugins/, rejecting any entry that would
//     land outside it.
//  4. If no directory named exactly pluginName resulted, find the single
//     extracted subdirectory containing a .uplugin file and rename it.
//  5. Return the final installed path.
func Install(tarballPath, projectRoot, pluginName string, progress ProgressFunc) (string, error) {
	if _, err := os.Stat(tarballPath); err != nil {
		return "", verrors.NewInstallError(pluginName, "extract", fmt.Errorf("tarball not found: %w", err))
	}

	pluginsDir := filepath.Join(projectRoot, "Plugins")
	if err := os.MkdirAll(pluginsDir, 0o755); err != nil {
		return "", verrors.NewInstallError(pluginName, "extract", err)
	}

	if err := removeExisting(pluginsDir, pluginName, progress); err != nil {
		return "", verrors.NewInstallError(pluginName, "reconcile", err)
	}

	report(progress, fmt.Sprintf("Extracting %s...", pluginName), 0, 100)
	if err := extractTarball(tarballPath, pluginsDir); err != nil {
		return "", verrors.NewInstallError(pluginName, "extract", err)
	}
	report(progress, fmt.Sprintf("Extracted %s", pluginName), 100, 100)

	installedPath := filepath.Join(pluginsDir, pluginName)
	if dirExists(installedPath) {
		return installedPath, nil
	}

	extractedDir, err := findExtractedPluginDir(pluginsDir, pluginName)
	if err != nil {
		return "", verrors.NewInstallError(pluginName, "reconcile", err)
	}

	if extractedDir != installedPath {
		if dirExists(installedPath) {
			return "", verrors.NewInstallError(pluginName, "reconcile",
				fmt.Errorf("a directory named %q already exists alongside the extracted %q", pluginName, filepath.Base(extractedDir)))
		}
		if err := os.Rename(extractedDir, installedPath); err != nil {
			return "", verrors.NewInstallError(pluginName, "reconcile", fmt.Errorf("renaming %q to %q: %w", extractedDir, installedPath, err))
		}
	}

	if !dirExists(installedPath) {
		return "", verrors.NewInstallError(pluginName, "reconcile", fmt.Errorf("extraction succeeded but %q was not found", installedPath))
	}
	return installedPath, nil
}

// Uninstall removes pluginName's installed directory from projectRoot's
// Plugins/ tree, identified the same way Install finds it to reinstall: by
// the presence of a matching .uplugin marker file.
func Uninstall(projectRoot, pluginName string) error {
	pluginsDir := filepath.Join(projectRoot, "Plugins")
	dir, err := findPluginDirByMarker(pluginsDir, pluginName)
	if err != nil {
		return verrors.NewInstallError(pluginName, "reconcile", err)
	}
	if dir == "" {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return verrors.NewInstallError(pluginName, "reconcile", err)
	}
	return nil
}

func removeExisting(pluginsDir, pluginName string, progress ProgressFunc) error {
	dir, err := findPluginDirByMarker(pluginsDir, pluginName)
	if err != nil {
		return err
	}
	if dir == "" {
		return nil
	}
	report(progress, fmt.Sprintf("Removing existing installation of %s...", pluginName), 0, 100)
	return os.RemoveAll(dir)
}

// findPluginDirByMarker looks for a subdirectory of pluginsDir containing
// a <pluginName>.uplugin file (case-insensitive), returning "" if none
// exists.
func findPluginDirByMarker(pluginsDir, pluginName string) (string, error) {
	entries, err := os.ReadDir(pluginsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}

	upluginName := pluginName + ".uplugin"
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dirPath := filepath.Join(pluginsDir, entry.Name())
		files, err := os.ReadDir(dirPath)
		if err != nil {
			continue
		}
		for _, f := range files {
			if !f.IsDir() && strings.EqualFold(f.Name(), upluginName) {
				return dirPath, nil
			}
		}
	}
	return "", nil
}

// findExtractedPluginDir locates the directory an archive extracted its
// plugin into when the archive's root name doesn't match pluginName:
// first a case-insensitive name match or a <pluginName>.uplugin file,
// falling back to the first directory containing any .uplugin file.
func findExtractedPluginDir(pluginsDir, pluginName string) (string, error) {
	entries, err := os.ReadDir(pluginsDir)
	if err != nil {
		return "", err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if strings.EqualFold(entry.Name(), pluginName) {
			return filepath.Join(pluginsDir, entry.Name()), nil
		}
		uplugin := filepath.Join(pluginsDir, entry.Name(), pluginName+".uplugin")
		if _, err := os.Stat(uplugin); err == nil {
			return filepath.Join(pluginsDir, entry.Name()), nil
		}
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dirPath := filepath.Join(pluginsDir, entry.Name())
		files, err := os.ReadDir(dirPath)
		if err != nil {
			continue
		}
		for _, f := range files {
			if !f.IsDir() && strings.EqualFold(filepath.Ext(f.Name()), ".uplugin") {
				return dirPath, nil
			}
		}
	}

	return "", fmt.Errorf("could not find extracted plugin directory for %q in %s", pluginName, pluginsDir)
}

// extractTarball unpacks a gzip-compressed tar archive into dir, rejecting
// any entry whose resolved path would escape dir.
func extractTarball(tarballPath, dir string) error {
	f, err := os.Open(tarballPath)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("opening gzip stream: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading tar entry: %w", err)
		}

		target, err := safeJoin(dir, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode&0o777))
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			out.Close()
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			if _, err := safeJoin(dir, filepath.Join(filepath.Dir(hdr.Name), hdr.Linkname)); err != nil || filepath.IsAbs(hdr.Linkname) {
				return fmt.Errorf("symlink target outside archive root: %s -> %s", hdr.Name, hdr.Linkname)
			}
			_ = os.Remove(target)
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return err
			}
		}
	}
}

// safeJoin resolves name under root and rejects the result if it would
// escape root, per spec.md's "entries outside the intended root are an
// error" requirement.
func safeJoin(root, name string) (string, error) {
	joined := filepath.Join(root, name)
	rel, err := filepath.Rel(root, joined)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("tar entry %q escapes extraction root", name)
	}
	return joined, nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func report(progress ProgressFunc, message string, current, total int64) {
	if progress != nil {
		progress(message, current, total)
	}
}

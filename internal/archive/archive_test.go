package archive

import (
	"archive/tar"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	verrors "github.com/unrealpm/unrealpm/internal/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func extractTarballEntries(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	gzr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip.NewReader: %v", err)
	}
	defer gzr.Close()

	tr := tar.NewReader(gzr)
	var names []string
	for {
		hdr, err := tr.Next()
		if err != nil {
			break
		}
		names = append(names, hdr.Name)
	}
	return names
}

func contains(names []string, target string) bool {
	for _, n := range names {
		if n == target {
			return true
		}
	}
	return false
}

func TestPackExcludesDefaultGroups(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "GameplayAbilities.uplugin"), `{"FriendlyName":"GameplayAbilities"}`)
	writeFile(t, filepath.Join(dir, "Source", "Module.cpp"), "// source")
	writeFile(t, filepath.Join(dir, ".git", "config"), "git config")
	writeFile(t, filepath.Join(dir, ".env"), "SECRET=value")
	writeFile(t, filepath.Join(dir, "Intermediate", "cache.bin"), "temp build state")
	writeFile(t, filepath.Join(dir, ".DS_Store"), "ds")

	arc, err := New(dir, "GameplayAbilities", "1.0.0")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	outDir := t.TempDir()
	output := filepath.Join(outDir, "out.tar.gz")
	result, err := arc.Pack(output, nil)
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}

	if result.Name != "GameplayAbilities" || result.Version != "1.0.0" {
		t.Errorf("unexpected result metadata: %+v", result)
	}
	if result.Size == 0 {
		t.Error("expected non-zero archive size")
	}
	if len(result.Checksum) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(result.Checksum))
	}

	names := extractTarballEntries(t, output)
	root := "GameplayAbilities-1.0.0/"
	if !contains(names, root+"GameplayAbilities.uplugin") {
		t.Error("expected .uplugin to be included")
	}
	if !contains(names, root+"Source/Module.cpp") {
		t.Error("expected source file to be included")
	}
	for _, excluded := range []string{
		root + ".git/config",
		root + ".env",
		root + "Intermediate/cache.bin",
		root + ".DS_Store",
	} {
		if contains(names, excluded) {
			t.Errorf("expected %s to be excluded, entries = %v", excluded, names)
		}
	}
}

// TestPackKeepsAsteriskPatternsLiteral documents an intentional quirk
// inherited from the reference implementation: exclusion patterns like
// "*.pem" are matched as a literal substring, not a glob, so a real file
// never matches them and is kept in the archive.
func TestPackKeepsAsteriskPatternsLiteral(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "P.uplugin"), "{}")
	writeFile(t, filepath.Join(dir, "server.pem"), "-----BEGIN-----")
	writeFile(t, filepath.Join(dir, "license.key"), "key material")
	writeFile(t, filepath.Join(dir, "notes.bak"), "stale")

	arc, err := New(dir, "P", "1.0.0")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	output := filepath.Join(t.TempDir(), "out.tar.gz")
	if _, err := arc.Pack(output, nil); err != nil {
		t.Fatalf("Pack() error = %v", err)
	}

	names := extractTarballEntries(t, output)
	root := "P-1.0.0/"
	for _, kept := range []string{root + "server.pem", root + "license.key", root + "notes.bak"} {
		if !contains(names, kept) {
			t.Errorf("expected %s to be kept (asterisk patterns match no real path), entries = %v", kept, names)
		}
	}
}

func TestPackBinariesExcludedOnlyWhenRequested(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "P.uplugin"), "{}")
	writeFile(t, filepath.Join(dir, "Binaries", "Win64", "P.dll"), "binary")

	arc, err := New(dir, "P", "1.0.0")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	outDir := t.TempDir()
	withBinaries := filepath.Join(outDir, "with.tar.gz")
	if _, err := arc.Pack(withBinaries, nil); err != nil {
		t.Fatalf("Pack() error = %v", err)
	}
	if !contains(extractTarballEntries(t, withBinaries), "P-1.0.0/Binaries/Win64/P.dll") {
		t.Error("expected binaries to be included by default")
	}

	arc.ExcludeBinaries(true)
	withoutBinaries := filepath.Join(outDir, "without.tar.gz")
	if _, err := arc.Pack(withoutBinaries, nil); err != nil {
		t.Fatalf("Pack() error = %v", err)
	}
	if contains(extractTarballEntries(t, withoutBinaries), "P-1.0.0/Binaries/Win64/P.dll") {
		t.Error("expected binaries to be excluded after ExcludeBinaries(true)")
	}
}

func TestNewRejectsMissingDirectory(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "missing"), "P", "1.0.0"); err == nil {
		t.Error("expected an error for a nonexistent directory")
	}
}

func TestVerifyChecksumSucceedsAndFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "payload.bin")
	writeFile(t, path, "plugin archive bytes")

	sum, err := ChecksumFile(path, nil)
	if err != nil {
		t.Fatalf("ChecksumFile() error = %v", err)
	}

	if err := VerifyChecksum(path, sum, nil); err != nil {
		t.Errorf("VerifyChecksum() with matching checksum returned error: %v", err)
	}

	err = VerifyChecksum(path, "0000000000000000000000000000000000000000000000000000000000000000", nil)
	if err == nil {
		t.Fatal("expected VerifyChecksum() to fail on mismatch")
	}
	var integrityErr *verrors.IntegrityError
	if !verrors.As(err, &integrityErr) {
		t.Errorf("expected an IntegrityError, got %T: %v", err, err)
	}
}

func TestChecksumIsCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "payload.bin")
	writeFile(t, path, "case insensitive check")

	sum, err := ChecksumFile(path, nil)
	if err != nil {
		t.Fatalf("ChecksumFile() error = %v", err)
	}

	upper := ""
	for _, r := range sum {
		if r >= 'a' && r <= 'f' {
			upper += string(r - 32)
		} else {
			upper += string(r)
		}
	}

	if err := VerifyChecksum(path, upper, nil); err != nil {
		t.Errorf("expected case-insensitive match, got error: %v", err)
	}
}

package manifest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingManifestReturnsEmpty(t *testing.T) {
	tmpDir := t.TempDir()
	m, err := Load(tmpDir)
	require.NoError(t, err)
	assert.Empty(t, m.Dependencies)
	assert.Empty(t, m.DevDependencies)
	assert.False(t, Exists(tmpDir))
}

func TestAddDependencyAndSave(t *testing.T) {
	tmpDir := t.TempDir()
	m, err := Load(tmpDir)
	require.NoError(t, err)

	m.Name = "MyGame"
	m.AddDependency("GameplayAbilities", "^1.2.0", false)
	m.AddDependency("TestUtils", "~2.0.0", true)

	require.NoError(t, m.Save())
	assert.True(t, Exists(tmpDir))
	assert.FileExists(t, filepath.Join(tmpDir, FileName))

	reloaded, err := Load(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "MyGame", reloaded.Name)
	assert.Equal(t, "^1.2.0", reloaded.Dependencies["GameplayAbilities"])
	assert.Equal(t, "~2.0.0", reloaded.DevDependencies["TestUtils"])
}

func TestRemoveDependency(t *testing.T) {
	tmpDir := t.TempDir()
	m, err := Load(tmpDir)
	require.NoError(t, err)

	m.AddDependency("GameplayAbilities", "^1.0.0", false)
	assert.True(t, m.HasDependency("GameplayAbilities"))

	removed := m.RemoveDependency("GameplayAbilities")
	assert.True(t, removed)
	assert.False(t, m.HasDependency("GameplayAbilities"))

	assert.False(t, m.RemoveDependency("DoesNotExist"))
}

func TestDependencyNamesSorted(t *testing.T) {
	tmpDir := t.TempDir()
	m, err := Load(tmpDir)
	require.NoError(t, err)

	m.AddDependency("Zeta", "^1.0.0", false)
	m.AddDependency("Alpha", "^1.0.0", false)
	m.AddDependency("Middle", "^1.0.0", true)

	assert.Equal(t, []string{"Alpha", "Middle", "Zeta"}, m.DependencyNames())
}

func TestAllDependenciesMergesWithProductionPriority(t *testing.T) {
	tmpDir := t.TempDir()
	m, err := Load(tmpDir)
	require.NoError(t, err)

	m.AddDependency("Shared", "^1.0.0", true)
	m.AddDependency("Shared", "^2.0.0", false)

	all := m.AllDependencies()
	assert.Equal(t, "^2.0.0", all["Shared"])
}

func TestSaveIsAtomic(t *testing.T) {
	tmpDir := t.TempDir()
	m, err := Load(tmpDir)
	require.NoError(t, err)
	m.AddDependency("GameplayAbilities", "^1.0.0", false)
	require.NoError(t, m.Save())

	// No leftover temp file after a successful save.
	assert.NoFileExists(t, filepath.Join(tmpDir, FileName+".tmp"))
}

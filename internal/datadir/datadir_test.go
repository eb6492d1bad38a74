package datadir

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsDataDirDetectsMarker(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, IsDataDir(dir))

	require.NoError(t, os.Mkdir(filepath.Join(dir, "logs"), 0755))
	assert.True(t, IsDataDir(dir))
}

func TestPointerRoundTrip(t *testing.T) {
	exeDir := t.TempDir()
	exePath := filepath.Join(exeDir, "launchsupervisor")
	dataDir := t.TempDir()

	require.NoError(t, WritePointer(exePath, dataDir))

	got, ok := ReadPointer(exePath)
	require.True(t, ok)
	assert.Equal(t, dataDir, got)
}

func TestReadPointerMissingFile(t *testing.T) {
	_, ok := ReadPointer(filepath.Join(t.TempDir(), "launchsupervisor"))
	assert.False(t, ok)
}

func TestReadPointerStaleTarget(t *testing.T) {
	exeDir := t.TempDir()
	exePath := filepath.Join(exeDir, "launchsupervisor")
	require.NoError(t, WritePointer(exePath, filepath.Join(exeDir, "no-such-dir")))

	_, ok := ReadPointer(exePath)
	assert.False(t, ok, "pointer to a non-existent directory must be rejected")
}

func TestEnsureDirCreatesLogsSubdir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "fresh")
	require.NoError(t, EnsureDir(dir))

	info, err := os.Stat(filepath.Join(dir, "logs"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

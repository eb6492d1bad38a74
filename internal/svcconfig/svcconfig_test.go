package svcconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(contents), 0644))
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg := Load(t.TempDir())
	assert.Equal(t, Default(), cfg)
}

func TestLoadParsesBothKeysCaseInsensitively(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "autostart=True\nbackend=true\n")

	cfg := Load(dir)
	assert.True(t, cfg.AutoStart)
	assert.True(t, cfg.Backend)
}

func TestLoadUnknownKeysIgnored(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "autostart=TRUE\nsomething=else\nbackend=FALSE\n")

	cfg := Load(dir)
	assert.True(t, cfg.AutoStart)
	assert.False(t, cfg.Backend)
}

func TestLoadMissingKeysKeepDefault(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "autostart=TRUE\n")

	cfg := Load(dir)
	assert.True(t, cfg.AutoStart)
	assert.True(t, cfg.Backend, "backend should keep its default of true")
}

func TestLoadMalformedLineSkipped(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "this is not key=value\nbackend=FALSE\n")

	cfg := Load(dir)
	assert.False(t, cfg.Backend)
}

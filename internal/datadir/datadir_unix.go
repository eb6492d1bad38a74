//go:build !windows

package datadir

import (
	"fmt"
	"os"
	"path/filepath"
)

// resolveDataDirPlatform mirrors the macOS side of shlaunch.c's
// data-directory resolution: HOME (or TMPDIR as a last-ditch fallback
// when even HOME is unset, e.g. under a locked-down service account),
// joined with the product's Application Support convention.
func resolveDataDirPlatform() (string, error) {
	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, "Library", "Application Support", Name), nil
	}
	if tmp := os.Getenv("TMPDIR"); tmp != "" {
		return filepath.Join(tmp, Name), nil
	}
	return "", fmt.Errorf("datadir: neither HOME nor TMPDIR set")
}

//go:build windows

package datadir

import (
	"fmt"
	"os"
	"path/filepath"
)

// resolveDataDirPlatform mirrors shlaunch.c's current_user_data_dir:
// LOCALAPPDATA, then APPDATA, then USERPROFILE\Application Data, then
// SYSTEMDRIVE, each joined with Name.
func resolveDataDirPlatform() (string, error) {
	for _, env := range []string{"LOCALAPPDATA", "APPDATA"} {
		if v := os.Getenv(env); v != "" {
			return filepath.Join(v, Name), nil
		}
	}
	if v := os.Getenv("USERPROFILE"); v != "" {
		candidate := filepath.Join(v, "Application Data")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return filepath.Join(candidate, Name), nil
		}
	}
	if v := os.Getenv("SYSTEMDRIVE"); v != "" {
		return filepath.Join(v, Name), nil
	}
	return "", fmt.Errorf("datadir: no usable environment variable found")
}

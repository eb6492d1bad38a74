// Package datadir resolves the Supervisor's well-known data directory
// and the per-user pointer file that records it across re-installs.
// Grounded on shlaunch.c's current_user_data_dir / find_data_dir /
// get_data_dir_pointer / create_data_dir_pointer. See spec §6 and
// SPEC_FULL.md §4.9/§7.
package datadir

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
)

// Name is the product-specific leaf directory name, mirroring
// shlaunch.c's DATADIR_NAME.
const Name = "LaunchSupervisor"

// PointerFileName is the file, written next to the Supervisor
// executable, that records a discovered data directory so a later
// invocation doesn't need to re-resolve it.
const PointerFileName = "data_dir_ptr"

// Resolve returns the current user's data directory, consulting
// HOME/TMPDIR/APPDATA/LOCALAPPDATA/USERPROFILE/SYSTEMDRIVE per spec §6,
// by way of the platform-specific resolveDataDirPlatform plus a
// go-homedir fallback for the plain POSIX case.
func Resolve() (string, error) {
	if dir, err := resolveDataDirPlatform(); err == nil && dir != "" {
		return dir, nil
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("datadir: resolve home: %w", err)
	}
	return filepath.Join(home, "."+strings.ToLower(Name)), nil
}

// IsDataDir applies the same loose heuristic as shlaunch.c's
// is_data_dir: the directory is considered a legitimate prior install
// if any of a few well-known subpaths exist under it.
func IsDataDir(path string) bool {
	for _, marker := range []string{"logs", "license.lic", "videos"} {
		if _, err := os.Stat(filepath.Join(path, marker)); err == nil {
			return true
		}
	}
	return false
}

// PointerPath returns the path of the pointer file, placed next to the
// given executable path.
func PointerPath(exePath string) string {
	return filepath.Join(filepath.Dir(exePath), PointerFileName)
}

// ReadPointer returns the data directory recorded in the pointer file,
// if one exists and still looks like a directory.
func ReadPointer(exePath string) (string, bool) {
	f, err := os.Open(PointerPath(exePath))
	if err != nil {
		return "", false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return "", false
	}
	line := strings.TrimSpace(scanner.Text())
	if line == "" {
		return "", false
	}
	if info, err := os.Stat(line); err != nil || !info.IsDir() {
		return "", false
	}
	return line, true
}

// WritePointer records dataDir in the pointer file next to exePath, so
// a future invocation (potentially running as a different effective
// user, e.g. after reinstall) can find the same data directory.
func WritePointer(exePath, dataDir string) error {
	path := PointerPath(exePath)
	if err := os.WriteFile(path, []byte(dataDir+"\n"), 0644); err != nil {
		return fmt.Errorf("datadir: write pointer: %w", err)
	}
	return nil
}

// RunAsUserFileName records the username validated at activation time
// (spec §6's `<uid> <username>` pair), placed next to the Supervisor
// executable like PointerFileName, so a later bare/service-manager
// invocation — which never receives `--activate`'s arguments — can
// still recover which user's home directory the Launcher should inject
// (spec §4.4, SPEC_FULL.md §7 "Privilege drop for --activate").
const RunAsUserFileName = "run_as_user"

// RunAsUserPath returns the path of the run-as-user marker file, placed
// next to the given executable path.
func RunAsUserPath(exePath string) string {
	return filepath.Join(filepath.Dir(exePath), RunAsUserFileName)
}

// WriteRunAsUser records username in the marker file next to exePath.
func WriteRunAsUser(exePath, username string) error {
	if err := os.WriteFile(RunAsUserPath(exePath), []byte(username+"\n"), 0644); err != nil {
		return fmt.Errorf("datadir: write run-as-user: %w", err)
	}
	return nil
}

// ReadRunAsUser returns the username recorded by WriteRunAsUser, if any.
func ReadRunAsUser(exePath string) (string, bool) {
	f, err := os.Open(RunAsUserPath(exePath))
	if err != nil {
		return "", false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return "", false
	}
	line := strings.TrimSpace(scanner.Text())
	if line == "" {
		return "", false
	}
	return line, true
}

// EnsureDir creates dataDir (and its "logs" subdirectory) with
// permissive access if it doesn't already exist, per spec §4.9
// ("Missing data directory during startup: create; if creation fails,
// continue with temp-directory logging").
func EnsureDir(dataDir string) error {
	if err := os.MkdirAll(filepath.Join(dataDir, "logs"), 0755); err != nil {
		return fmt.Errorf("datadir: ensure dir: %w", err)
	}
	return nil
}

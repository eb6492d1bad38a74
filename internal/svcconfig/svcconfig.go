// Package svcconfig loads the Supervisor's two boolean configuration
// keys. Grounded on shlaunch.c's config_read (a GetPrivateProfileString
// reader against an INI-shaped file); the format here has no sections
// and exactly two keys, so it's read with bufio.Scanner rather than
// pulling in an INI library — see DESIGN.md for the full justification.
// See spec §4.6.
package svcconfig

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// FileName is the config file's name under the data directory,
// mirroring shlaunch.c's CFG_FILE.
const FileName = "launchsupervisor.conf"

// Config holds the two recognized keys. Defaults match shlaunch.c's
// config_read: autostart off, backend permitted.
type Config struct {
	AutoStart bool
	Backend   bool
}

// Default returns the configuration used when the file is missing,
// unreadable, or malformed — never an error condition (spec §7,
// ConfigMissing is silently downgraded).
func Default() Config {
	return Config{AutoStart: false, Backend: true}
}

// Load reads "<dataDir>/launchsupervisor.conf". Unknown keys are
// ignored; unset keys keep their default. The Control Loop re-invokes
// Load before every launch action so edits take effect without a
// restart.
func Load(dataDir string) Config {
	cfg := Default()

	f, err := os.Open(filepath.Join(dataDir, FileName))
	if err != nil {
		return cfg
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		isTrue := strings.EqualFold(value, "TRUE")

		switch key {
		case "autostart":
			cfg.AutoStart = isTrue
		case "backend":
			cfg.Backend = isTrue
		}
	}
	return cfg
}

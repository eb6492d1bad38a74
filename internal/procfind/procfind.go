// Package procfind enumerates live processes and matches them against
// the compile-time backend-family name list. See spec §4.2.
package procfind

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/sighthoundinc/launchsupervisor/internal/platform"
)

// BackendFamily is the compile-time list of executable basenames the
// Reaper is allowed to terminate, carried over from shlaunch.c's
// KILL_CANDIDATES_ALL (minus the Supervisor's own executable, which is
// never a kill target).
var BackendFamily = []string{
	"sighthound-agent",
	"sighthound-video",
	"sighthound-usb",
	"sighthound-web",
	"sighthound-xnat",
}

// IsTarget reports whether name (an executable basename, extension
// stripped by the caller) case-insensitively matches a member of
// BackendFamily.
func IsTarget(name string) bool {
	for _, candidate := range BackendFamily {
		if strings.EqualFold(candidate, name) {
			return true
		}
	}
	return false
}

// Enumerate invokes visit once per live process this caller can
// inspect, built on gopsutil/v3's cross-platform process listing.
// Processes that can no longer be inspected by the time they're
// queried (already exited, access denied) are skipped silently, since
// that's an expected race rather than an enumeration failure.
func Enumerate(ctx context.Context, visit platform.ProcessVisitor) error {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return fmt.Errorf("procfind: list processes: %w", err)
	}

	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		// Strip a Windows ".exe" so Exe is the bare basename IsTarget and
		// the Reaper compare against BackendFamily.
		if ext := filepath.Ext(name); strings.EqualFold(ext, ".exe") {
			name = name[:len(name)-len(ext)]
		}
		ppid, err := p.PpidWithContext(ctx)
		if err != nil {
			continue
		}
		uid := -1
		if uids, err := p.UidsWithContext(ctx); err == nil && len(uids) > 0 {
			uid = int(uids[0])
		}
		visit(platform.ProcessInfo{
			UID:  uid,
			PID:  p.Pid,
			PPID: ppid,
			Exe:  name,
		})
	}
	return nil
}

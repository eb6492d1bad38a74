// Package hostplatform wires the real OS-backed primitives behind
// internal/platform.Platform: process enumeration via internal/procfind,
// termination via os.Process, and data-directory/executable resolution
// via internal/datadir. Kept separate from internal/platform itself so
// that platform stays free of the import cycle procfind -> platform.
package hostplatform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sighthoundinc/launchsupervisor/internal/datadir"
	"github.com/sighthoundinc/launchsupervisor/internal/platform"
	"github.com/sighthoundinc/launchsupervisor/internal/procfind"
)

// Host is the production platform.Platform, backed by the real OS.
type Host struct{}

// New returns a ready-to-use Host.
func New() Host { return Host{} }

// EnumerateProcesses lists every process via internal/procfind.
func (Host) EnumerateProcesses(ctx context.Context, visit platform.ProcessVisitor) error {
	return procfind.Enumerate(ctx, visit)
}

// TerminateProcess sends an unconditional kill, mirroring shlaunch.c's
// kill_processes use of SIGKILL/TerminateProcess.
func (Host) TerminateProcess(pid int32) error {
	proc, err := os.FindProcess(int(pid))
	if err != nil {
		return fmt.Errorf("hostplatform: find process %d: %w", pid, err)
	}
	if err := proc.Kill(); err != nil {
		return fmt.Errorf("hostplatform: kill process %d: %w", pid, err)
	}
	return nil
}

// ResolveDataDir delegates to internal/datadir.
func (Host) ResolveDataDir() (string, error) {
	return datadir.Resolve()
}

// ExecutablePath returns the running executable's path resolved
// through any symlink, for the Control Loop's self-liveness check.
func (Host) ExecutablePath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("hostplatform: executable path: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return exe, nil
	}
	return resolved, nil
}

// Package launcher spawns the backend process detached, with a fixed
// argument vector and an augmented environment. See spec §4.4.
package launcher

import (
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
)

// Backend argument markers, carried over from shlaunch.c's
// BACKEND_ARG1/2/3. Opaque beyond their use identifying Supervisor-
// launched processes in a listing.
const (
	argBackendFlag = "--backEnd"
	marker1        = "--sh-2e4fce7e"
	marker2        = "--sh-baef77e9"
)

// Config names the backend executable to launch and the user whose
// home directory should be injected as HOME.
type Config struct {
	BackendExePath string
	DataDir        string
	RunAsUser      string
}

// Result reports the outcome of a single launch attempt. Status is
// written verbatim into the Exchange's status field.
type Result struct {
	PID    int
	Status int32
}

// LaunchBackend spawns the backend detached and returns as soon as the
// child PID is known; it never waits on the child. A failure to exec
// is reported as an error here and reflected by the caller into the
// Exchange's status field — it is never fatal to the Supervisor.
func LaunchBackend(cfg Config) (Result, error) {
	if cfg.BackendExePath == "" {
		return Result{}, fmt.Errorf("launcher: backend executable path not configured")
	}

	argv := []string{argBackendFlag, cfg.DataDir, marker1, marker2}
	cmd := exec.Command(cfg.BackendExePath, argv...)
	cmd.Dir = filepath.Dir(cfg.BackendExePath)
	cmd.Env = buildEnv(cfg.RunAsUser)
	cmd.SysProcAttr = detachAttr()

	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("launcher: start backend: %w", err)
	}
	// The child is no longer ours to wait on; release it so it doesn't
	// become a zombie under us once it exits, and so we never block the
	// Control Loop on the backend's lifetime.
	go func() { _ = cmd.Wait() }()

	return Result{PID: cmd.Process.Pid, Status: 1}, nil
}

// buildEnv copies the parent environment and overrides HOME with the
// resolved home directory of the target user, mirroring
// pkg/supervisor.getEnv's rewrite-in-place approach.
func buildEnv(runAsUser string) []string {
	env := os.Environ()
	home, err := resolveHome(runAsUser)
	if err != nil || home == "" {
		return env
	}

	out := make([]string, 0, len(env)+1)
	replaced := false
	for _, kv := range env {
		if strings.HasPrefix(kv, "HOME=") {
			out = append(out, "HOME="+home)
			replaced = true
			continue
		}
		out = append(out, kv)
	}
	if !replaced {
		out = append(out, "HOME="+home)
	}
	return out
}

func resolveHome(runAsUser string) (string, error) {
	if runAsUser == "" {
		return homedir.Dir()
	}
	u, err := user.Lookup(runAsUser)
	if err != nil {
		return "", fmt.Errorf("launcher: lookup user %q: %w", runAsUser, err)
	}
	return u.HomeDir, nil
}

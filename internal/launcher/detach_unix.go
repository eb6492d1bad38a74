//go:build !windows

package launcher

import "syscall"

// detachAttr starts the backend in its own session, so it isn't part
// of the Supervisor's process group and doesn't receive signals sent
// to it directly, mirroring pkg/supervisor's DetachAttr.
func detachAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}

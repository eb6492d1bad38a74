//go:build windows

package launcher

import "syscall"

// detachAttr starts the backend in its own process group, detached
// from the Supervisor's console, matching shlaunch.c's CreateProcessW
// call (no console inheritance).
func detachAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP}
}

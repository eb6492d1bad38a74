package control

import "errors"

// Sentinel errors, one per kind in the error-handling taxonomy that is
// ever actually surfaced as a Go error; callers match with errors.Is
// and cmd/launchsupervisor maps each to a fixed exit code. ConfigMissing
// has no sentinel here: per spec §7 it's silently downgraded to
// defaults inside svcconfig.Load itself, so no caller ever constructs
// or wraps it — there is nothing for a sentinel to mark.
var (
	ErrArgs          = errors.New("control: malformed or missing arguments")
	ErrBuildMismatch = errors.New("control: build tag mismatch")
	ErrSharedMemory  = errors.New("control: shared memory setup failed")
	ErrActivate      = errors.New("control: activation failed")
	ErrPrivilege     = errors.New("control: privilege drop failed")
)

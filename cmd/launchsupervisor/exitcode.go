package main

import (
	"errors"

	"github.com/sighthoundinc/launchsupervisor/internal/control"
	"github.com/sighthoundinc/launchsupervisor/internal/servicehost"
)

// Exit codes, unified across the install/remove/start/shutdown and
// --activate paths per the decision recorded in DESIGN.md.
const (
	exitSuccess               = 0
	exitArgsOrGenericError    = 1
	exitSharedMemory          = 2
	exitActivateOrServiceAPI  = 3
	exitServiceRemovalPending = 4
	exitServiceAlreadyExists  = 5
	exitServiceMissing        = 6
	exitDataDirPointerFailure = 7
	exitBuildMismatch         = 8
	exitPrivilege             = 9
)

// exitCodeFor maps a returned error to the process exit code table.
// A nil error maps to success; an unrecognized error maps to the
// generic bad-args/error code, matching "1 | error or bad args".
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, control.ErrSharedMemory):
		return exitSharedMemory
	case errors.Is(err, control.ErrActivate):
		return exitActivateOrServiceAPI
	case errors.Is(err, control.ErrBuildMismatch):
		return exitBuildMismatch
	case errors.Is(err, control.ErrPrivilege):
		return exitPrivilege
	case servicehost.IsRemovalPending(err):
		return exitServiceRemovalPending
	case servicehost.IsAlreadyExists(err):
		return exitServiceAlreadyExists
	case servicehost.IsMissing(err):
		return exitServiceMissing
	case errors.Is(err, errDataDirPointer):
		return exitDataDirPointerFailure
	default:
		return exitArgsOrGenericError
	}
}

package servicehost

import "strings"

// kardianos/service shells out to each platform's native service
// manager (systemctl, launchctl, sc.exe, …) and surfaces that tool's
// stderr as a plain error string rather than a typed sentinel, so the
// three conditions shlaunch.c distinguished via raw Win32 SCM codes
// (ERROR_SERVICE_EXISTS, ERROR_SERVICE_MARKED_FOR_DELETE,
// ERROR_SERVICE_DOES_NOT_EXIST) are classified here by matching the
// phrasing every supported platform's tool actually emits for each
// case. Best-effort: an unmatched error is treated as the generic
// service-API failure by the caller.
var (
	alreadyExistsPhrases  = []string{"already exists", "service exist"}
	removalPendingPhrases = []string{"marked for deletion", "marked for delete"}
	missingPhrases        = []string{"does not exist", "no such file or directory", "not found", "unknown service"}
)

func matchesAny(err error, phrases []string) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range phrases {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// IsAlreadyExists reports whether err indicates the service is already
// registered, mirroring ERROR_SERVICE_EXISTS.
func IsAlreadyExists(err error) bool { return matchesAny(err, alreadyExistsPhrases) }

// IsRemovalPending reports whether err indicates the service is marked
// for deletion and must be retried after reboot, mirroring
// ERROR_SERVICE_MARKED_FOR_DELETE.
func IsRemovalPending(err error) bool { return matchesAny(err, removalPendingPhrases) }

// IsMissing reports whether err indicates no such service is
// registered, mirroring ERROR_SERVICE_DOES_NOT_EXIST.
func IsMissing(err error) bool { return matchesAny(err, missingPhrases) }

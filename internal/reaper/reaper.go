// Package reaper terminates backend-family processes by name, honoring
// the absolute exclusion rules from spec §4.3: the Supervisor, its
// parent, and the source PID of the command being serviced are never
// killed.
package reaper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/sirupsen/logrus"

	"github.com/sighthoundinc/launchsupervisor/internal/platform"
)

// Result is returned by KillNamedUntilEmpty.
type Result struct {
	Attempts  int
	Remaining int
}

func matchesAny(names []string, exe string) bool {
	for _, n := range names {
		if strings.EqualFold(n, exe) {
			return true
		}
	}
	return false
}

// KillNamed enumerates processes, signals every one whose basename is
// in names and whose PID is not in exclude, and returns the count of
// matching targets found in this pass (regardless of whether the
// signal itself succeeded) — mirroring shlaunch.c's kill_processes,
// whose caller (kill_old_processes_and_wait) re-enumerates until that
// count hits zero, since a just-signalled process is not instantly
// gone from the next listing.
func KillNamed(ctx context.Context, plat platform.Platform, names []string, exclude map[int32]struct{}, log logrus.FieldLogger) (int, error) {
	var targets []int32
	err := plat.EnumerateProcesses(ctx, func(p platform.ProcessInfo) {
		if _, skip := exclude[p.PID]; skip {
			return
		}
		if matchesAny(names, p.Exe) {
			targets = append(targets, p.PID)
		}
	})
	if err != nil {
		return 0, fmt.Errorf("reaper: enumerate: %w", err)
	}

	for _, pid := range targets {
		if err := plat.TerminateProcess(pid); err != nil {
			if log != nil {
				log.WithError(err).WithField("pid", pid).Warn("failed to terminate backend process")
			}
		}
	}
	return len(targets), nil
}

// KillNamedUntilEmpty retries KillNamed up to retries times, sleeping
// wait between attempts, until no targets remain. Grounded on
// shlaunch.c's initial kill-retry loop in svc_main.
func KillNamedUntilEmpty(ctx context.Context, plat platform.Platform, names []string, exclude map[int32]struct{}, retries int, wait time.Duration, log logrus.FieldLogger) (Result, error) {
	res := Result{}
	err := retry.Do(
		func() error {
			res.Attempts++
			n, err := KillNamed(ctx, plat, names, exclude, log)
			if err != nil {
				return err
			}
			res.Remaining = n
			if n > 0 {
				return fmt.Errorf("reaper: %d backend process(es) still running", n)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(retries)),
		retry.Delay(wait),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return res, fmt.Errorf("reaper: timed out with %d process(es) remaining: %w", res.Remaining, err)
	}
	return res, nil
}

// ExclusionSet builds the absolute exclusion set for a kill operation:
// the Supervisor's own PID, its parent's PID, and the source PID
// carried in launchProcessId at the moment the kill is decided.
func ExclusionSet(selfPID, parentPID, sourcePID int32) map[int32]struct{} {
	return map[int32]struct{}{
		selfPID:   {},
		parentPID: {},
		sourcePID: {},
	}
}

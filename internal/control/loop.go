// Package control implements the Control Loop: the core state machine
// that owns the Exchange, dispatches kill/launch/shutdown actions, and
// detects executable removal. Grounded on
// pkg/supervisor.Supervisor.Supervise's goroutine/select/channel shape,
// adapted from "restart one supervised child forever" to "react to
// multi-client Exchange commands." See spec §4.8.
package control

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sighthoundinc/launchsupervisor/internal/exchange"
	"github.com/sighthoundinc/launchsupervisor/internal/launcher"
	"github.com/sighthoundinc/launchsupervisor/internal/platform"
	"github.com/sighthoundinc/launchsupervisor/internal/procfind"
	"github.com/sighthoundinc/launchsupervisor/internal/reaper"
	"github.com/sighthoundinc/launchsupervisor/internal/svcconfig"
)

// Terminate is satisfied by servicehost.Terminate; declared locally so
// this package doesn't need to import servicehost.
type Terminate interface {
	Requested() bool
}

// Exchange is the subset of *exchange.Handle the Control Loop drives.
// Declared as an interface so tests can exercise the loop against an
// in-memory fake instead of a real shared-memory region.
type Exchange interface {
	InitIdentity(pid uint32, build, dataDir string)
	IncrementCycles() int32
	Snapshot() exchange.Snapshot
	LoadLaunch() int32
	LoadLaunchProcessID() int32
	ClearLaunchBits(bits int32)
	StoreLaunchProcessID(pid int32)
	StoreLaunch(v int32)
	StoreStatus(v int32)
	SetShutdown()
	Close() error
}

// createExchange is overridden in tests to avoid touching real shared
// memory.
var createExchange = func() (Exchange, error) { return exchange.Create() }

const (
	// Period is the main loop's fixed cadence, per spec §4.8.
	Period = 100 * time.Millisecond
	// shutdownPollInterval and shutdownCap bound the graceful-stop wait.
	shutdownPollInterval = 2 * time.Second
	shutdownCap          = 10 * time.Second
	// killRetries and killWait bound the Starting-state initial kill.
	killRetries = 10
	killWait    = 500 * time.Millisecond
)

// Options configures a Loop. BuildTag is written into the Exchange's
// identity fields; HumanTriggered, or autostart and backend both set in
// the config file, seeds the synthesized initial launch condition per
// spec §4.8's Starting-state rule.
type Options struct {
	BuildTag       string
	DataDir        string
	BackendExePath string
	RunAsUser      string
	HumanTriggered bool
	// RemoveServiceDescriptor unregisters the Supervisor from the host
	// service manager, deleting its on-disk descriptor. Called on
	// self-liveness failure (spec §4.8 step 3, E2E scenario 5: "the
	// service descriptor file is unlinked before exit"). Nil is valid
	// and makes self-retirement a no-op removal, e.g. in tests.
	RemoveServiceDescriptor func() error
}

// Loop owns the Exchange for the lifetime of one Supervisor process.
type Loop struct {
	opts      Options
	plat      platform.Platform
	terminate Terminate
	log       logrus.FieldLogger

	ex Exchange

	selfPID   int32
	parentPID int32

	lastLaunch          int32
	lastLaunchProcessID int32
	lastLogged          exchange.Snapshot
}

// New constructs a Loop. The Exchange is not yet created; call Run to
// enter the Starting state.
func New(opts Options, plat platform.Platform, terminate Terminate, log logrus.FieldLogger) *Loop {
	return &Loop{
		opts:      opts,
		plat:      plat,
		terminate: terminate,
		log:       log,
		selfPID:   int32(os.Getpid()),
		parentPID: int32(os.Getppid()),
	}
}

// Run drives the Supervisor through Starting, Running, Stopping, and
// Stopped. It returns once teardown is complete; the caller (service
// host or foreground main) then exits the process.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.start(ctx); err != nil {
		return err
	}
	defer l.ex.Close()

	for {
		if done, err := l.iterate(ctx); done || err != nil {
			return err
		}
		if l.terminate.Requested() {
			return l.stop(ctx)
		}
	}
}

// start enters the Starting state: claims the Exchange, writes
// identity, performs the initial kill sweep, and synthesizes an
// initial launch condition per spec §4.8.
func (l *Loop) start(ctx context.Context) error {
	ex, err := createExchange()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSharedMemory, err)
	}
	l.ex = ex
	l.ex.InitIdentity(uint32(l.selfPID), l.opts.BuildTag, l.opts.DataDir)

	excl := reaper.ExclusionSet(l.selfPID, l.parentPID, l.selfPID)
	if _, err := reaper.KillNamedUntilEmpty(ctx, l.plat, procfind.BackendFamily, excl, killRetries, killWait, l.log); err != nil {
		if l.log != nil {
			l.log.WithError(err).Warn("initial kill sweep did not fully clear the backend family")
		}
	}

	cfg := svcconfig.Load(l.opts.DataDir)
	if l.opts.HumanTriggered || (cfg.AutoStart && cfg.Backend) {
		l.ex.StoreLaunchProcessID(l.selfPID)
		l.ex.StoreLaunch(1)
	}
	return nil
}

// iterate runs one pass of the Running-state main loop (spec §4.8,
// steps 1-7). done reports that the self-liveness check failed and the
// loop must tear down immediately, bypassing the graceful-shutdown wait.
func (l *Loop) iterate(ctx context.Context) (done bool, err error) {
	cycles := l.ex.IncrementCycles()

	snap := l.ex.Snapshot()
	l.logIfChanged(snap, cycles)

	if !l.selfExecutablePresent() {
		if l.log != nil {
			l.log.Warn("own executable no longer present on disk, retiring for in-place upgrade")
		}
		l.removeServiceDescriptor()
		return true, nil
	}

	if snap.Launch&exchange.LaunchFlagKillFirst != 0 {
		excl := reaper.ExclusionSet(l.selfPID, l.parentPID, snap.LaunchProcessID)
		if _, err := reaper.KillNamed(ctx, l.plat, procfind.BackendFamily, excl, l.log); err != nil && l.log != nil {
			l.log.WithError(err).Warn("kill-first sweep failed")
		}
		l.ex.ClearLaunchBits(exchange.LaunchFlagKillFirst)
	}

	if snap.Launch&exchange.LaunchMask != 0 {
		cfg := svcconfig.Load(l.opts.DataDir)
		status := int32(0)
		if cfg.Backend {
			result, err := launcher.LaunchBackend(launcher.Config{
				BackendExePath: l.opts.BackendExePath,
				DataDir:        l.opts.DataDir,
				RunAsUser:      l.opts.RunAsUser,
			})
			if err != nil {
				if l.log != nil {
					l.log.WithError(err).Warn("backend launch failed")
				}
			} else {
				status = result.Status
			}
		}
		l.ex.StoreStatus(status)
		l.ex.ClearLaunchBits(exchange.LaunchMask)
	}

	select {
	case <-ctx.Done():
		return true, ctx.Err()
	case <-time.After(Period):
	}

	// Re-read launch/launchProcessId fresh rather than trusting the
	// pre-sleep snapshot: a client may have written a new command while
	// this iteration slept, and it must not be lost to the next
	// iteration's diff log.
	l.lastLaunch = l.ex.LoadLaunch()
	l.lastLaunchProcessID = l.ex.LoadLaunchProcessID()
	if l.log != nil && (l.lastLaunch != snap.Launch || l.lastLaunchProcessID != snap.LaunchProcessID) {
		l.log.WithFields(logrus.Fields{
			"launch":          l.lastLaunch,
			"launchProcessId": l.lastLaunchProcessID,
		}).Debug("launch word changed during sleep")
	}
	return false, nil
}

// stop enters the Stopping state: sets shutdown, waits bounded time
// for backend-family processes to exit, then tears down regardless.
func (l *Loop) stop(ctx context.Context) error {
	if l.log != nil {
		l.log.Info("stop requested, entering shutdown")
	}
	l.ex.SetShutdown()

	deadline := time.Now().Add(shutdownCap)
	for time.Now().Before(deadline) {
		remaining := l.countBackendProcesses(ctx)
		if remaining == 0 {
			break
		}
		select {
		case <-ctx.Done():
			deadline = time.Now()
		case <-time.After(shutdownPollInterval):
		}
	}
	return nil
}

func (l *Loop) countBackendProcesses(ctx context.Context) int {
	count := 0
	_ = l.plat.EnumerateProcesses(ctx, func(p platform.ProcessInfo) {
		if procfind.IsTarget(p.Exe) {
			count++
		}
	})
	return count
}

func (l *Loop) selfExecutablePresent() bool {
	path, err := l.plat.ExecutablePath()
	if err != nil {
		return true
	}
	_, err = os.Stat(path)
	return err == nil
}

func (l *Loop) removeServiceDescriptor() {
	if l.opts.RemoveServiceDescriptor == nil {
		return
	}
	if err := l.opts.RemoveServiceDescriptor(); err != nil && l.log != nil {
		l.log.WithError(err).Warn("failed to remove service descriptor during self-retirement")
	}
}

// logIfChanged logs a one-line dump whenever the snapshot, ignoring
// Cycles, differs from the last one logged (spec §4.8 step 2).
func (l *Loop) logIfChanged(snap exchange.Snapshot, cycles int32) {
	if l.log == nil {
		return
	}
	comparable := snap
	comparable.Cycles = 0
	prev := l.lastLogged
	prev.Cycles = 0
	if comparable == prev {
		return
	}
	l.lastLogged = snap
	l.log.WithFields(logrus.Fields{
		"cycles":          cycles,
		"status":          snap.Status,
		"launch":          snap.Launch,
		"launchProcessId": snap.LaunchProcessID,
		"shutdown":        snap.Shutdown,
	}).Info("exchange state changed")
}

// Command launchsupervisor is the Launch Supervisor entry point. Its
// argument handling follows shlaunch.c's hybrid shape rather than a
// pure cobra tree: a bare invocation or a lone build-tag argument runs
// the Control Loop, `install`/`remove`/`start`/`shutdown` are one-shot
// service-manager commands, and `<build-tag> --activate ...` is the
// installer's activation hook. Only the four named subcommands are
// built with cobra (see newRootCmd); the other two shapes are
// recognized before cobra ever sees argv, since cobra has no idiom for
// a build-tag-matching positional bare mode.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sighthoundinc/launchsupervisor/internal/control"
	"github.com/sighthoundinc/launchsupervisor/internal/datadir"
	"github.com/sighthoundinc/launchsupervisor/internal/hostplatform"
	"github.com/sighthoundinc/launchsupervisor/internal/procfind"
	"github.com/sighthoundinc/launchsupervisor/internal/reaper"
	"github.com/sighthoundinc/launchsupervisor/internal/rotlog"
	"github.com/sighthoundinc/launchsupervisor/internal/servicehost"
)

// buildTag identifies this compiled binary; overridden at link time
// with -ldflags "-X main.buildTag=r00123". Falls back to "dev" so a
// plain `go build` still produces a runnable binary for local testing.
var buildTag = "dev"

var errDataDirPointer = errors.New("main: failed to write data directory pointer")

// legacyUserScan gates the "walk all local user accounts looking for a
// pre-existing data directory" migration behavior (DESIGN NOTES §9's
// open question). Off by default; set by the -legacy-user-scan /
// --legacy-user-scan flag, recognized in every invocation shape since
// the migration check belongs in data-directory resolution itself, not
// in any one subcommand.
var legacyUserScan bool

func main() {
	args, scan := extractBoolFlag(os.Args[1:], "-legacy-user-scan", "--legacy-user-scan")
	legacyUserScan = scan
	os.Exit(run(args))
}

// extractBoolFlag removes every occurrence of any of names from args,
// reporting whether at least one was present. Used for flags that apply
// across invocation shapes and so can't be registered on a single cobra
// command.
func extractBoolFlag(args []string, names ...string) ([]string, bool) {
	out := make([]string, 0, len(args))
	found := false
	for _, a := range args {
		matched := false
		for _, n := range names {
			if a == n {
				matched = true
				found = true
				break
			}
		}
		if !matched {
			out = append(out, a)
		}
	}
	return out, found
}

// invocation shapes, classified before cobra ever sees argv.
const (
	invokeActivate    = "activate"
	invokeControlLoop = "controlloop"
	invokeServiceHost = "servicehost"
	invokeCobra       = "cobra"
)

// classifyInvocation picks one of the four argv shapes documented at
// the top of this file. Separated from run so it can be tested without
// the side effects of actually driving a service manager.
func classifyInvocation(args []string, buildTag string) string {
	switch {
	case len(args) >= 2 && args[1] == "--activate":
		return invokeActivate
	case len(args) == 1 && args[0] == buildTag:
		return invokeControlLoop
	case len(args) == 0:
		return invokeServiceHost
	default:
		return invokeCobra
	}
}

func run(args []string) int {
	switch classifyInvocation(args, buildTag) {
	case invokeActivate:
		return runActivate(args)
	case invokeControlLoop:
		return runControlLoop(false)
	case invokeServiceHost:
		return runServiceHost()
	default:
		return runCobra(args)
	}
}

func runCobra(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		return exitCodeFor(err)
	}
	return exitSuccess
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "launchsupervisor",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var noAutostart bool

	install := &cobra.Command{
		Use: "install",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return servicehost.Install(controlLoopRun(false), terminateForServiceHost)
		},
	}
	remove := &cobra.Command{
		Use: "remove",
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := servicehost.Remove(controlLoopRun(false), terminateForServiceHost)
			if servicehost.IsMissing(err) {
				return nil
			}
			return err
		},
	}
	start := &cobra.Command{
		Use: "start",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return servicehost.Start(controlLoopRun(!noAutostart), terminateForServiceHost)
		},
	}
	start.Flags().BoolVar(&noAutostart, "no-autostart", false, "disable the autostart-at-boot config override for this run")

	shutdown := &cobra.Command{
		Use: "shutdown",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return servicehost.Shutdown(controlLoopRun(false), terminateForServiceHost)
		},
	}

	root.AddCommand(install, remove, start, shutdown)
	return root
}

// globalTerminate is the single process-wide flag bridging service
// control events to the Control Loop, per DESIGN NOTES §9: no other
// mutable state is shared with handlers. Its zero value is ready to
// use, same as sync.Mutex.
var globalTerminate servicehost.Terminate

func terminateForServiceHost() { globalTerminate.Set() }

// controlLoopRun returns a servicehost.RunFunc that constructs and
// drives a control.Loop. humanTriggered seeds the Starting-state
// synthesized launch condition (spec §4.8).
func controlLoopRun(humanTriggered bool) servicehost.RunFunc {
	return func() error {
		dataDir, err := resolveDataDir()
		if err != nil {
			return fmt.Errorf("%w: %v", control.ErrArgs, err)
		}
		log := rotlog.New(dataDir, "launchsupervisor")
		plat := hostplatform.New()

		exePath, err := plat.ExecutablePath()
		if err != nil {
			return fmt.Errorf("%w: %v", control.ErrArgs, err)
		}

		runAsUser, _ := datadir.ReadRunAsUser(exePath)

		loop := control.New(control.Options{
			BuildTag:                buildTag,
			DataDir:                 dataDir,
			BackendExePath:          backendExePath(exePath),
			RunAsUser:               runAsUser,
			HumanTriggered:          humanTriggered,
			RemoveServiceDescriptor: servicehost.RemoveDescriptor,
		}, plat, &globalTerminate, log)

		watchSignals()

		return loop.Run(context.Background())
	}
}

// runControlLoop runs the Control Loop directly in the foreground,
// used for the lone `<exe> <build-tag>` invocation.
func runControlLoop(humanTriggered bool) int {
	err := servicehost.RunForeground(controlLoopRun(humanTriggered), terminateForServiceHost, nil)
	return exitCodeFor(err)
}

// runServiceHost registers with the platform service manager and
// drives the Control Loop for the lifetime of the service.
func runServiceHost() int {
	err := servicehost.RunService(controlLoopRun(false), terminateForServiceHost)
	return exitCodeFor(err)
}

// runActivate implements `<build-tag> --activate <no-kill-pid>
// <local-data-dir> <uid> <username>`: writes the service descriptor,
// kills the backend family (excluding no-kill-pid), and ensures the
// data directory, per spec §6 and SPEC_FULL.md §4.7.
func runActivate(args []string) int {
	if args[0] != buildTag {
		return exitCodeFor(control.ErrBuildMismatch)
	}
	rest := args[2:]
	if len(rest) < 4 {
		return exitArgsOrGenericError
	}
	noKillPID, err := strconv.Atoi(rest[0])
	if err != nil {
		return exitArgsOrGenericError
	}
	localDataDir := rest[1]
	uid := rest[2]
	runAsUser := rest[3]

	if err := validateRunAsUser(uid, runAsUser); err != nil {
		return exitCodeFor(fmt.Errorf("%w: %v", control.ErrPrivilege, err))
	}

	if err := servicehost.Install(controlLoopRun(false), terminateForServiceHost); err != nil && !servicehost.IsAlreadyExists(err) {
		if servicehost.IsRemovalPending(err) {
			return exitServiceRemovalPending
		}
		return exitActivateOrServiceAPI
	}

	plat := hostplatform.New()
	excl := reaper.ExclusionSet(int32(os.Getpid()), int32(os.Getppid()), int32(noKillPID))
	if _, err := reaper.KillNamedUntilEmpty(context.Background(), plat, procfind.BackendFamily, excl, 10, 500*time.Millisecond, nil); err != nil {
		return exitActivateOrServiceAPI
	}

	if err := datadir.EnsureDir(localDataDir); err != nil {
		return exitActivateOrServiceAPI
	}
	exePath, err := plat.ExecutablePath()
	if err != nil {
		return exitActivateOrServiceAPI
	}
	if err := datadir.WritePointer(exePath, localDataDir); err != nil {
		return exitCodeFor(fmt.Errorf("%w: %v", errDataDirPointer, err))
	}
	if err := datadir.WriteRunAsUser(exePath, runAsUser); err != nil {
		return exitActivateOrServiceAPI
	}

	return exitSuccess
}

// validateRunAsUser resolves username and, where both values parse as
// plain POSIX integers, confirms uid matches the resolved account's
// uid. On platforms where the account identifier isn't a small integer
// (e.g. a Windows SID), the numeric comparison is skipped and looking
// the username up successfully is sufficient — mirroring shlaunch.c's
// activation-time validation of its `<uid> <username>` pair before
// setuid(uid) is ever attempted.
func validateRunAsUser(uid, username string) error {
	u, err := user.Lookup(username)
	if err != nil {
		return fmt.Errorf("lookup user %q: %w", username, err)
	}
	wantUID, wantErr := strconv.Atoi(uid)
	gotUID, gotErr := strconv.Atoi(u.Uid)
	if wantErr == nil && gotErr == nil && wantUID != gotUID {
		return fmt.Errorf("uid %d does not match resolved uid %d for user %q", wantUID, gotUID, username)
	}
	return nil
}

// resolveDataDir finds the data directory an activation may have
// already recorded (datadir.WritePointer), falling back to the
// platform's environment-variable resolution, and — only when
// -legacy-user-scan was passed — a walk of local user accounts for a
// pre-existing install under a different profile (SPEC_FULL.md §4.9).
func resolveDataDir() (string, error) {
	plat := hostplatform.New()

	if exePath, err := plat.ExecutablePath(); err == nil {
		if dir, ok := datadir.ReadPointer(exePath); ok {
			if err := datadir.EnsureDir(dir); err == nil {
				return dir, nil
			}
		}
	}

	dir, err := plat.ResolveDataDir()
	if err != nil {
		return "", err
	}
	if legacyUserScan && !datadir.IsDataDir(dir) {
		if legacy, ok := datadir.FindLegacyDataDir(currentUsername()); ok {
			dir = legacy
		}
	}
	if err := datadir.EnsureDir(dir); err != nil {
		return dir, nil // spec §4.9: creation failure degrades, never fatal
	}
	return dir, nil
}

func currentUsername() string {
	u, err := user.Current()
	if err != nil {
		return ""
	}
	return u.Username
}

// backendExePath locates the backend executable alongside the
// Supervisor's own binary, mirroring shlaunch.c's GetModuleFileName +
// strip-to-last-backslash + append BACKEND_EXE construction.
func backendExePath(supervisorExePath string) string {
	return filepath.Join(filepath.Dir(supervisorExePath), procfind.BackendFamily[0])
}

// watchSignals sets globalTerminate on SIGINT/SIGTERM, covering the
// run-in-terminal and non-service-manager invocation shapes where no
// platform service callback exists to drive it. The Control Loop
// notices within one loop period and drives its own graceful shutdown
// (spec §4.8's Stopping state); this must not cancel a context, which
// would abort that shutdown wait instead of letting it run.
func watchSignals() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ch
		terminateForServiceHost()
	}()
}


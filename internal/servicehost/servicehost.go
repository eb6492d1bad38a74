// Package servicehost registers the Supervisor with the host OS's
// service manager and bridges service-control events into the Control
// Loop's terminate flag. Grounded on shlaunch.c's
// service_install/service_remove/service_start/service_shutdown/
// ctrl_handler/svc_main, reworked onto github.com/kardianos/service so
// neither this package nor its caller branches on GOOS. See spec §4.7.
package servicehost

import (
	"sync/atomic"

	"github.com/kardianos/service"
	"github.com/sirupsen/logrus"
)

// Name, DisplayName, and Description mirror shlaunch.c's SERVICE_NAME /
// SERVICE_TITLE / SERVICE_INFO.
const (
	Name        = "launchsupervisor"
	DisplayName = "Launch Supervisor"
	Description = "Launches the backend automatically and brokers launch/kill commands from frontend clients."
)

// RunFunc is the Control Loop entry point, invoked once the service
// manager has started the process. It must return once StopFunc has
// signaled shutdown and teardown is complete.
type RunFunc func() error

// StopFunc is invoked by kardianos/service when the service manager
// (or an OS shutdown/console event) asks the process to stop. Per the
// design notes, this must do nothing but flip a flag and return
// quickly — no shared mutable state beyond the atomic itself.
type StopFunc func()

// program bridges service.Interface to the two callbacks above. All of
// its methods must return promptly: kardianos/service calls Stop from
// a context where blocking delays the OS's own shutdown sequence.
type program struct {
	run  RunFunc
	stop StopFunc
	done chan error
}

func (p *program) Start(s service.Service) error {
	p.done = make(chan error, 1)
	go func() { p.done <- p.run() }()
	return nil
}

func (p *program) Stop(s service.Service) error {
	p.stop()
	select {
	case err := <-p.done:
		return err
	default:
		return nil
	}
}

// Terminate holds the process-wide "please stop" flag the Control Loop
// polls. It's written only from the service-control callback (and test
// code), per the design notes' "no other mutable state is shared with
// handlers" rule.
type Terminate struct {
	flag int32
}

// Set flips the flag. Safe to call from a service-control callback.
func (t *Terminate) Set() { atomic.StoreInt32(&t.flag, 1) }

// Requested reports whether Set has been called.
func (t *Terminate) Requested() bool { return atomic.LoadInt32(&t.flag) != 0 }

func newService(run RunFunc, stop StopFunc) (service.Service, error) {
	cfg := &service.Config{
		Name:        Name,
		DisplayName: DisplayName,
		Description: Description,
	}
	return service.New(&program{run: run, stop: stop}, cfg)
}

// Install registers the Supervisor with the host service manager,
// writing its service descriptor. Corresponds to shlaunch.c's
// service_install.
func Install(run RunFunc, stop StopFunc) error {
	svc, err := newService(run, stop)
	if err != nil {
		return err
	}
	return svc.Install()
}

// Remove unregisters the Supervisor. Corresponds to service_remove.
func Remove(run RunFunc, stop StopFunc) error {
	svc, err := newService(run, stop)
	if err != nil {
		return err
	}
	return svc.Uninstall()
}

// Start asks the service manager to start an already-installed
// service. Corresponds to service_start.
func Start(run RunFunc, stop StopFunc) error {
	svc, err := newService(run, stop)
	if err != nil {
		return err
	}
	return svc.Start()
}

// Shutdown asks the service manager to stop the running service and
// waits for it to report stopped. Corresponds to service_shutdown.
func Shutdown(run RunFunc, stop StopFunc) error {
	svc, err := newService(run, stop)
	if err != nil {
		return err
	}
	return svc.Stop()
}

// RemoveDescriptor unregisters the Supervisor from the host service
// manager, deleting its on-disk descriptor. Unlike Remove (the `remove`
// CLI subcommand, invoked against a not-yet-running process), this is
// called by the Control Loop itself during self-retirement (spec §4.8
// step 3): no RunFunc/StopFunc is meaningful here since the process is
// already running under its current registration and about to exit.
func RemoveDescriptor() error {
	svc, err := newService(func() error { return nil }, func() {})
	if err != nil {
		return err
	}
	return svc.Uninstall()
}

// RunForeground runs the Control Loop directly, without going through
// the service manager's dispatcher; cmd/launchsupervisor uses it for the
// lone `<exe> <build-tag>` invocation. Corresponds to shlaunch.c's
// RUN_IN_CONSOLE path.
func RunForeground(run RunFunc, stop StopFunc, log logrus.FieldLogger) error {
	return run()
}

// RunService hands control to the platform service manager's
// dispatcher; it returns once the service has fully stopped.
// Corresponds to shlaunch.c's service_execute/StartServiceCtrlDispatcher.
func RunService(run RunFunc, stop StopFunc) error {
	svc, err := newService(run, stop)
	if err != nil {
		return err
	}
	return svc.Run()
}

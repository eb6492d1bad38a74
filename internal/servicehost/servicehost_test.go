package servicehost

import "testing"

func TestTerminateStartsUnset(t *testing.T) {
	var tm Terminate
	if tm.Requested() {
		t.Fatalf("zero-value Terminate must not be requested")
	}
}

func TestTerminateSetIsIdempotent(t *testing.T) {
	var tm Terminate
	tm.Set()
	tm.Set()
	if !tm.Requested() {
		t.Fatalf("Requested must report true after Set")
	}
}

func TestProgramStartRunsAsynchronously(t *testing.T) {
	started := make(chan struct{})
	blocked := make(chan struct{})
	p := &program{
		run: func() error {
			close(started)
			<-blocked
			return nil
		},
	}
	if err := p.Start(nil); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	<-started
	close(blocked)
}

func TestProgramStopInvokesCallback(t *testing.T) {
	var called bool
	p := &program{
		run:  func() error { return nil },
		stop: func() { called = true },
		done: make(chan error, 1),
	}
	p.done <- nil
	if err := p.Stop(nil); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
	if !called {
		t.Fatalf("Stop must invoke the StopFunc callback")
	}
}

func TestRunForegroundInvokesRunDirectly(t *testing.T) {
	var ran bool
	err := RunForeground(func() error { ran = true; return nil }, func() {}, nil)
	if err != nil {
		t.Fatalf("RunForeground returned error: %v", err)
	}
	if !ran {
		t.Fatalf("RunForeground must invoke RunFunc")
	}
}

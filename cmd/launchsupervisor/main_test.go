package main

import (
	"errors"
	"os/user"
	"testing"

	"github.com/sighthoundinc/launchsupervisor/internal/control"
)

func TestClassifyInvocation(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want string
	}{
		{"bare", nil, invokeServiceHost},
		{"build tag alone", []string{"r1"}, invokeControlLoop},
		{"activate", []string{"r1", "--activate", "123", "/data", "501", "svc"}, invokeActivate},
		{"install", []string{"install"}, invokeCobra},
		{"start with flag", []string{"start", "--no-autostart"}, invokeCobra},
		{"unrelated single arg", []string{"bogus"}, invokeCobra},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyInvocation(tc.args, "r1"); got != tc.want {
				t.Fatalf("classifyInvocation(%v) = %q, want %q", tc.args, got, tc.want)
			}
		})
	}
}

func TestExitCodeForKnownSentinels(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, exitSuccess},
		{control.ErrSharedMemory, exitSharedMemory},
		{control.ErrActivate, exitActivateOrServiceAPI},
		{control.ErrBuildMismatch, exitBuildMismatch},
		{control.ErrPrivilege, exitPrivilege},
		{errors.New("unit already exists"), exitServiceAlreadyExists},
		{errors.New("service marked for deletion"), exitServiceRemovalPending},
		{errors.New("service does not exist"), exitServiceMissing},
		{errDataDirPointer, exitDataDirPointerFailure},
		{errors.New("something else entirely"), exitArgsOrGenericError},
	}
	for _, tc := range cases {
		if got := exitCodeFor(tc.err); got != tc.want {
			t.Fatalf("exitCodeFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestBackendExePathJoinsSupervisorDirWithFamilyHead(t *testing.T) {
	got := backendExePath("/opt/launchsupervisor/bin/launchsupervisor")
	want := "/opt/launchsupervisor/bin/sighthound-agent"
	if got != want {
		t.Fatalf("backendExePath() = %q, want %q", got, want)
	}
}

func TestExtractBoolFlagStripsEveryOccurrenceAndName(t *testing.T) {
	args, found := extractBoolFlag([]string{"install", "-legacy-user-scan", "--no-autostart", "--legacy-user-scan", "-legacy-user-scan"}, "-legacy-user-scan", "--legacy-user-scan")
	if !found {
		t.Fatal("extractBoolFlag() found = false, want true")
	}
	want := []string{"install", "--no-autostart"}
	if len(args) != len(want) {
		t.Fatalf("extractBoolFlag() args = %v, want %v", args, want)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Fatalf("extractBoolFlag() args = %v, want %v", args, want)
		}
	}

	args, found = extractBoolFlag([]string{"start"}, "-legacy-user-scan", "--legacy-user-scan")
	if found {
		t.Fatal("extractBoolFlag() found = true, want false when absent")
	}
	if len(args) != 1 || args[0] != "start" {
		t.Fatalf("extractBoolFlag() args = %v, want [start]", args)
	}
}

func TestValidateRunAsUser(t *testing.T) {
	self, err := user.Current()
	if err != nil {
		t.Skipf("user.Current unavailable: %v", err)
	}

	if err := validateRunAsUser(self.Uid, self.Username); err != nil {
		t.Fatalf("validateRunAsUser(%q, %q) = %v, want nil", self.Uid, self.Username, err)
	}

	if err := validateRunAsUser(self.Uid, "no-such-user-launchsupervisor-test"); err == nil {
		t.Fatal("validateRunAsUser() with unknown username = nil, want error")
	}

	if err := validateRunAsUser("99999999", self.Username); err == nil {
		t.Fatal("validateRunAsUser() with mismatched uid = nil, want error")
	}
}

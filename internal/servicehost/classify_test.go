package servicehost

import (
	"errors"
	"testing"
)

func TestIsAlreadyExistsMatchesCommonPhrasing(t *testing.T) {
	if !IsAlreadyExists(errors.New("Cannot create service: unit already exists")) {
		t.Fatalf("expected match")
	}
	if IsAlreadyExists(errors.New("permission denied")) {
		t.Fatalf("expected no match")
	}
}

func TestIsRemovalPendingMatchesCommonPhrasing(t *testing.T) {
	if !IsRemovalPending(errors.New("service marked for deletion")) {
		t.Fatalf("expected match")
	}
}

func TestIsMissingMatchesCommonPhrasing(t *testing.T) {
	if !IsMissing(errors.New("unit launchsupervisor does not exist")) {
		t.Fatalf("expected match")
	}
}

func TestClassifiersReturnFalseOnNilError(t *testing.T) {
	if IsAlreadyExists(nil) || IsRemovalPending(nil) || IsMissing(nil) {
		t.Fatalf("nil error must never classify as a specific condition")
	}
}

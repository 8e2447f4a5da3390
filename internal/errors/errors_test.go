package errors

import (
	"fmt"
	"testing"
)

func TestIsTypeFollowsWrappedChain(t *testing.T) {
	inner := Conflict("email already registered", nil)
	outer := fmt.Errorf("submit: %w", Backend("register failed", inner))

	if !IsType(outer, TypeBackend) {
		t.Error("expected backend type in chain")
	}
	if !IsType(outer, TypeConflict) {
		t.Error("expected conflict type in wrapped cause")
	}
	if IsType(outer, TypeNetwork) {
		t.Error("network type should not match")
	}
}

func TestErrorMessageIncludesCause(t *testing.T) {
	err := Network("backend unreachable", fmt.Errorf("dial tcp: refused"))
	want := "[NETWORK_ERROR] backend unreachable: dial tcp: refused"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	err.WithContext("url", "http://localhost/api/v1/register")
	if err.Context["url"] != "http://localhost/api/v1/register" {
		t.Errorf("context not recorded: %v", err.Context)
	}
}

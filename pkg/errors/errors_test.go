package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	err := New(ErrCodeInvalidInput, "bad style: %s", "gothic")
	want := "INVALID_INPUT: bad style: gothic"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	wrapped := Wrap(ErrCodeRenderFailure, stderrors.New("exit status 1"), "compile poster")
	if got := wrapped.Error(); got != "RENDER_FAILURE: compile poster: exit status 1" {
		t.Errorf("wrapped Error() = %q", got)
	}
}

func TestIs(t *testing.T) {
	err := New(ErrCodeTimeout, "render timed out")
	if !Is(err, ErrCodeTimeout) {
		t.Error("Is should match the error's own code")
	}
	if Is(err, ErrCodeProvider) {
		t.Error("Is should not match a different code")
	}

	// Code matching survives fmt wrapping.
	outer := fmt.Errorf("session: %w", err)
	if !Is(outer, ErrCodeTimeout) {
		t.Error("Is should unwrap fmt-wrapped errors")
	}

	if Is(stderrors.New("plain"), ErrCodeTimeout) {
		t.Error("Is should be false for non-Error errors")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeProvider, "quota")); got != ErrCodeProvider {
		t.Errorf("GetCode = %q, want %q", got, ErrCodeProvider)
	}
	if got := GetCode(stderrors.New("plain")); got != "" {
		t.Errorf("GetCode on plain error = %q, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	err := Wrap(ErrCodeCapabilityUnavailable, stderrors.New("no key"), "heavy model not configured")
	if got := UserMessage(err); got != "heavy model not configured" {
		t.Errorf("UserMessage = %q", got)
	}
	if got := UserMessage(stderrors.New("plain")); got != "plain" {
		t.Errorf("UserMessage on plain error = %q", got)
	}
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(ErrCodeProvider, cause, "completion call")
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

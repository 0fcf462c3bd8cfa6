package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestHarnessError_Error(t *testing.T) {
	err := &HarnessError{Message: "boot failed"}
	if err.Error() != "boot failed" {
		t.Errorf("Error() = %q", err.Error())
	}

	wrapped := err.WithCause(fmt.Errorf("exit status 1"))
	if wrapped.Error() != "boot failed: exit status 1" {
		t.Errorf("Error() with cause = %q", wrapped.Error())
	}
}

func TestHarnessError_Is(t *testing.T) {
	cause := fmt.Errorf("adb: device offline")
	err := ErrDeviceUnhealthy.WithCause(cause)

	if !errors.Is(err, ErrDeviceUnhealthy) {
		t.Error("WithCause copy should match its sentinel")
	}
	if errors.Is(err, ErrBootTimeout) {
		t.Error("should not match a different sentinel")
	}
	if !errors.Is(err, cause) {
		t.Error("should unwrap to the underlying cause")
	}
}

func TestHarnessError_IsAfterWithMessage(t *testing.T) {
	err := ErrBootTimeout.WithMessage("emulator-5554 never appeared")
	if !errors.Is(err, ErrBootTimeout) {
		t.Error("WithMessage copy should match its sentinel")
	}
	if err.Error() != "emulator-5554 never appeared" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestHarnessError_As(t *testing.T) {
	var harnessErr *HarnessError
	err := fmt.Errorf("ensure ready: %w", ErrStartExhausted.WithCause(errors.New("boom")))

	if !errors.As(err, &harnessErr) {
		t.Fatal("errors.As should find the HarnessError")
	}
	if harnessErr.Code != "start_exhausted" {
		t.Errorf("Code = %q", harnessErr.Code)
	}
	if harnessErr.Category != ErrCategoryDevice {
		t.Errorf("Category = %v", harnessErr.Category)
	}
}

func TestHarnessError_WithDetails(t *testing.T) {
	base := ErrDeviceNotFound.WithDetails(map[string]interface{}{"serial": "emulator-5554"})
	merged := base.WithDetails(map[string]interface{}{"attempt": 2})

	if merged.Details["serial"] != "emulator-5554" {
		t.Error("existing details should be preserved")
	}
	if merged.Details["attempt"] != 2 {
		t.Error("new details should be merged")
	}
	if base.Details["attempt"] != nil {
		t.Error("WithDetails must not mutate the receiver")
	}
}

func TestErrorCategory_String(t *testing.T) {
	tests := []struct {
		category ErrorCategory
		want     string
	}{
		{ErrCategoryNone, "none"},
		{ErrCategoryTimeout, "timeout"},
		{ErrCategoryDevice, "device"},
		{ErrCategoryDriver, "driver"},
		{ErrCategoryConfig, "config"},
		{ErrCategoryDiagnostic, "diagnostic"},
		{ErrorCategory(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.category.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

// Package core provides the shared device, driver and error model for
// device-harness.
package core

import (
	"fmt"
)

// HarnessError represents a structured error with category and details
type HarnessError struct {
	Category ErrorCategory
	Code     string                 // Machine-readable code: boot_timeout, device_unhealthy, etc.
	Message  string                 // Human-readable message
	Details  map[string]interface{} // Additional context
	Cause    error                  // Underlying error
}

// Error implements the error interface
func (e *HarnessError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *HarnessError) Unwrap() error {
	return e.Cause
}

// Is matches another HarnessError by category and code, so sentinel
// comparisons survive WithCause/WithMessage copies.
func (e *HarnessError) Is(target error) bool {
	t, ok := target.(*HarnessError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause returns a copy of the error with the given cause
func (e *HarnessError) WithCause(cause error) *HarnessError {
	return &HarnessError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  e.Details,
		Cause:    cause,
	}
}

// WithMessage returns a copy of the error with a custom message
func (e *HarnessError) WithMessage(msg string) *HarnessError {
	return &HarnessError{
		Category: e.Category,
		Code:     e.Code,
		Message:  msg,
		Details:  e.Details,
		Cause:    e.Cause,
	}
}

// WithDetails returns a copy of the error with additional details
func (e *HarnessError) WithDetails(details map[string]interface{}) *HarnessError {
	merged := make(map[string]interface{})
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &HarnessError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  merged,
		Cause:    e.Cause,
	}
}

// Predefined errors
var (
	// Timeout errors
	ErrBootTimeout = &HarnessError{
		Category: ErrCategoryTimeout,
		Code:     "boot_timeout",
		Message:  "device did not finish booting in time",
	}

	// Device errors
	ErrDeviceUnhealthy = &HarnessError{
		Category: ErrCategoryDevice,
		Code:     "device_unhealthy",
		Message:  "device failed health check",
	}
	ErrDeviceNotFound = &HarnessError{
		Category: ErrCategoryDevice,
		Code:     "device_not_found",
		Message:  "device not present in listing",
	}
	ErrStartExhausted = &HarnessError{
		Category: ErrCategoryDevice,
		Code:     "start_exhausted",
		Message:  "device start failed after all retries",
	}

	// Driver errors
	ErrDriverUnreachable = &HarnessError{
		Category: ErrCategoryDriver,
		Code:     "driver_unreachable",
		Message:  "could not connect to automation driver",
	}
	ErrNoSession = &HarnessError{
		Category: ErrCategoryDriver,
		Code:     "no_session",
		Message:  "no active automation session",
	}

	// Config errors
	ErrInvalidConfig = &HarnessError{
		Category: ErrCategoryConfig,
		Code:     "invalid_config",
		Message:  "invalid configuration",
	}
	ErrMissingIdentifier = &HarnessError{
		Category: ErrCategoryConfig,
		Code:     "missing_identifier",
		Message:  "no device or app identifier available",
	}
)

// NewHarnessError creates a new HarnessError with the given parameters
func NewHarnessError(category ErrorCategory, code, message string) *HarnessError {
	return &HarnessError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}

package core

// DeviceState represents the lifecycle state of a managed device
type DeviceState int

const (
	StateUnknown        DeviceState = iota // No device tracked yet
	StateListed                            // Serial/UDID appears in the listing
	StateHealthChecking                    // Health verification in progress
	StateHealthy                           // All health probes passed
	StateUnhealthy                         // One or more health probes failed
	StateBooting                           // Boot command issued, waiting for listing
	StateStopping                          // Shutdown in progress
	StateReady                             // Confirmed healthy, session may open
	StateStopped                           // Shut down, identifier cleared
)

// String returns the string representation of DeviceState
func (s DeviceState) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateListed:
		return "listed"
	case StateHealthChecking:
		return "health_checking"
	case StateHealthy:
		return "healthy"
	case StateUnhealthy:
		return "unhealthy"
	case StateBooting:
		return "booting"
	case StateStopping:
		return "stopping"
	case StateReady:
		return "ready"
	case StateStopped:
		return "stopped"
	default:
		return "invalid"
	}
}

// IsTerminal returns true if no further transitions are expected
func (s DeviceState) IsTerminal() bool {
	return s == StateReady || s == StateStopped
}

// ErrorCategory classifies the type of error for reporting
type ErrorCategory int

const (
	ErrCategoryNone       ErrorCategory = iota // No error
	ErrCategoryTimeout                         // Boot or health wait exceeded its deadline
	ErrCategoryDevice                          // Device missing, unhealthy, or failed to start
	ErrCategoryDriver                          // Automation driver unreachable or session lost
	ErrCategoryConfig                          // Invalid or missing configuration
	ErrCategoryDiagnostic                      // Diagnostic probe failure (never fatal)
)

// String returns the string representation of ErrorCategory
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategoryTimeout:
		return "timeout"
	case ErrCategoryDevice:
		return "device"
	case ErrCategoryDriver:
		return "driver"
	case ErrCategoryConfig:
		return "config"
	case ErrCategoryDiagnostic:
		return "diagnostic"
	default:
		return "unknown"
	}
}

// Package validator checks the harness configuration before any device
// work starts. It collects every problem it finds instead of stopping
// at the first, so a broken config is fixed in one pass.
package validator

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/dop251/goja"

	"github.com/devicelab-dev/device-harness/pkg/config"
)

// Emulator console ports accepted by adb.
const (
	minConsolePort = 5554
	maxConsolePort = 5682
)

// ValidationError represents a validation error with context.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Result contains the validation result.
type Result struct {
	// Errors contains all validation errors found.
	Errors []error
}

// IsValid returns true if there are no validation errors.
func (r *Result) IsValid() bool {
	return len(r.Errors) == 0
}

func (r *Result) addf(field, format string, args ...interface{}) {
	r.Errors = append(r.Errors, &ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	})
}

// Validate checks the whole configuration and returns every problem
// found. An empty platform is treated as android, matching the runtime
// default.
func Validate(cfg *config.Config) *Result {
	result := &Result{}

	switch strings.ToLower(cfg.Platform) {
	case "", "android":
		validateAndroid(cfg.Android, result)
	case "ios":
		validateIOS(cfg.IOS, result)
	default:
		result.addf("platform", "unknown platform %q, expected android or ios", cfg.Platform)
	}

	validateDriverURL(cfg.DriverURL, result)
	validateHooks(cfg.Hooks, result)

	if cfg.Diag.MaxTreeChars < 0 {
		result.addf("diagnostics.maxTreeChars", "must not be negative, got %d", cfg.Diag.MaxTreeChars)
	}

	return result
}

func validateAndroid(a config.Android, result *Result) {
	if a.AVD == "" {
		result.addf("android.avd", "an AVD name is required to manage an emulator")
	}
	if a.Port%2 != 0 {
		result.addf("android.port", "console port %d is odd; the emulator only binds even ports", a.Port)
	} else if a.Port < minConsolePort || a.Port > maxConsolePort {
		result.addf("android.port", "console port %d is outside the emulator range %d-%d", a.Port, minConsolePort, maxConsolePort)
	}
	if a.BootTimeoutMs <= 0 {
		result.addf("android.bootTimeoutMs", "must be positive, got %d", a.BootTimeoutMs)
	}
	if a.StartRetries < 0 {
		result.addf("android.startRetries", "must not be negative, got %d", a.StartRetries)
	}
	if a.HealthRetries < 0 {
		result.addf("android.healthRetries", "must not be negative, got %d", a.HealthRetries)
	}
}

func validateIOS(i config.IOS, result *Result) {
	if i.UDID == "" && i.DeviceName == "" {
		result.addf("ios", "a udid or deviceName is required to manage a simulator")
	}
	if i.BootTimeoutMs <= 0 {
		result.addf("ios.bootTimeoutMs", "must be positive, got %d", i.BootTimeoutMs)
	}
}

func validateDriverURL(raw string, result *Result) {
	if raw == "" {
		result.addf("driverUrl", "a driver endpoint is required")
		return
	}
	u, err := url.Parse(raw)
	if err != nil {
		result.addf("driverUrl", "cannot parse %q: %v", raw, err)
		return
	}
	// "localhost:4723" parses with the host as the scheme, so an
	// explicit scheme check catches that mistake too.
	if u.Scheme != "http" && u.Scheme != "https" {
		result.addf("driverUrl", "%q must be an http or https URL", raw)
		return
	}
	if u.Host == "" {
		result.addf("driverUrl", "%q has no host", raw)
	}
}

// validateHooks parses each configured hook script so syntax errors
// surface before a device is booted for them.
func validateHooks(h config.Hooks, result *Result) {
	scripts := []struct {
		field string
		path  string
	}{
		{"hooks.onPrepare", h.OnPrepare},
		{"hooks.beforeSession", h.BeforeSession},
		{"hooks.onComplete", h.OnComplete},
	}

	for _, s := range scripts {
		if s.path == "" {
			continue
		}
		src, err := os.ReadFile(s.path) //#nosec G304 -- user-provided hook script
		if err != nil {
			result.addf(s.field, "cannot read hook script: %v", err)
			continue
		}
		if _, err := goja.Compile(s.path, string(src), false); err != nil {
			result.addf(s.field, "hook script does not parse: %v", err)
		}
	}
}

package diag

import (
	"time"

	"github.com/devicelab-dev/device-harness/pkg/core"
	"github.com/devicelab-dev/device-harness/pkg/locator"
)

// Bundle is one diagnostics collection result. Fields whose probe
// failed are absent; the failure is recorded in Notes instead.
type Bundle struct {
	ID        string           `json:"id"`
	Timestamp time.Time        `json:"timestamp"`
	Platform  locator.Platform `json:"platform"`
	SessionID string           `json:"sessionId,omitempty"`
	DeviceID  string           `json:"deviceId,omitempty"`

	App      AppIdentity     `json:"app"`
	Device   *DeviceIdentity `json:"device,omitempty"`
	Context  string          `json:"context,omitempty"`
	Contexts []string        `json:"contexts,omitempty"`
	Window   *core.Rect      `json:"window,omitempty"`
	UITree   string          `json:"uiTree,omitempty"`

	Permissions    []Permission    `json:"permissions,omitempty"`
	RawPermissions string          `json:"rawPermissions,omitempty"`
	Logs           []core.LogEntry `json:"logs,omitempty"`

	Notes []string `json:"notes,omitempty"`
}

// AppIdentity identifies the application under test. Populated from the
// session configuration, never from a process-global cache.
type AppIdentity struct {
	Package  string `json:"package,omitempty"`
	Activity string `json:"activity,omitempty"`
	BundleID string `json:"bundleId,omitempty"`
}

// DeviceIdentity describes the hardware the bundle was captured on.
// Read over adb, so it is only present for Android collections.
type DeviceIdentity struct {
	Model     string `json:"model,omitempty"`
	Brand     string `json:"brand,omitempty"`
	OSVersion string `json:"osVersion,omitempty"`
	SDK       string `json:"sdk,omitempty"`
	Emulator  bool   `json:"emulator,omitempty"`
}

// Permission is the grant state of one permission or privacy service.
type Permission struct {
	Name    string `json:"name"`
	Granted bool   `json:"granted"`
}

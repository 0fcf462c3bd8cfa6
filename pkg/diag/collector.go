// Package diag assembles device diagnostics bundles. Collection is
// best-effort: every probe is guarded, and a failing probe appends a
// human-readable note and leaves its field absent instead of aborting
// the bundle.
package diag

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/devicelab-dev/device-harness/pkg/adb"
	"github.com/devicelab-dev/device-harness/pkg/config"
	"github.com/devicelab-dev/device-harness/pkg/core"
	"github.com/devicelab-dev/device-harness/pkg/locator"
	"github.com/devicelab-dev/device-harness/pkg/logger"
	"github.com/devicelab-dev/device-harness/pkg/simctl"
)

// Collector gathers diagnostics from the automation driver and the
// device-management commands.
type Collector struct {
	automation core.Automation
	adb        *adb.ADB
	cfg        config.Diag
}

// Options carries the per-collection session identifiers.
type Options struct {
	SessionID string
	DeviceID  string // emulator serial or simulator UDID
	App       config.App
}

// NewCollector creates a collector. The adb handle may be nil when no
// Android device is in play.
func NewCollector(automation core.Automation, a *adb.ADB, cfg config.Diag) *Collector {
	return &Collector{automation: automation, adb: a, cfg: cfg}
}

// Collect assembles a bundle. It never fails: probes that error leave
// notes on the bundle.
func (c *Collector) Collect(opts Options) *Bundle {
	b := &Bundle{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Platform:  c.automation.Platform(),
		SessionID: opts.SessionID,
		DeviceID:  opts.DeviceID,
	}

	c.collectApp(b, opts)
	c.collectDevice(b, opts)
	c.collectContexts(b)
	c.collectWindow(b)
	c.collectTree(b)
	c.collectLogs(b)
	c.collectPermissions(b, opts)

	logger.Info("Collected diagnostics bundle %s (%d notes)", b.ID, len(b.Notes))
	return b
}

func (b *Bundle) note(format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	logger.Debug("Diagnostics: %s", msg)
	b.Notes = append(b.Notes, msg)
}

func (c *Collector) collectApp(b *Bundle, opts Options) {
	b.App = AppIdentity{
		Package:  opts.App.Package,
		Activity: opts.App.Activity,
		BundleID: opts.App.BundleID,
	}
	if b.App == (AppIdentity{}) {
		b.note("app identity unresolved: no package or bundle id configured")
	}
}

// collectDevice reads the hardware identity over adb. iOS collections
// have no adb handle and leave the field absent.
func (c *Collector) collectDevice(b *Bundle, opts Options) {
	if c.adb == nil || opts.DeviceID == "" {
		return
	}

	info, err := c.adb.Info(opts.DeviceID)
	if err != nil {
		b.note("device identity unavailable: %v", err)
		return
	}
	b.Device = &DeviceIdentity{
		Model:     info.Model,
		Brand:     info.Brand,
		OSVersion: info.OSVersion,
		SDK:       info.SDK,
		Emulator:  info.IsEmulator,
	}
}

func (c *Collector) collectContexts(b *Bundle) {
	current, err := c.automation.CurrentContext()
	if err != nil {
		b.note("current context unavailable: %v", err)
	} else {
		b.Context = current
	}

	list, err := c.automation.Contexts()
	if err != nil {
		b.note("context listing unavailable: %v", err)
	} else {
		b.Contexts = list
	}
}

func (c *Collector) collectWindow(b *Bundle) {
	rect, err := c.automation.WindowRect()
	if err != nil {
		b.note("window geometry unavailable: %v", err)
		return
	}
	b.Window = &rect
}

func (c *Collector) collectTree(b *Bundle) {
	source, err := c.automation.Source()
	if err != nil {
		b.note("UI tree unavailable: %v", err)
		return
	}

	max := c.cfg.MaxTreeChars
	if max <= 0 {
		max = config.DefaultMaxTreeChars
	}
	b.UITree = truncate(source, max)
}

// truncate cuts s at max characters and appends a marker naming how
// many were cut.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + fmt.Sprintf("\n...[%d chars truncated]", len(s)-max)
}

func (c *Collector) collectLogs(b *Bundle) {
	channel := "logcat"
	if b.Platform == locator.IOS {
		channel = "syslog"
	}

	entries, err := c.automation.Log(channel)
	if err != nil {
		b.note("%s collection failed: %v", channel, err)
		return
	}
	b.Logs = entries
}

func (c *Collector) collectPermissions(b *Bundle, opts Options) {
	if b.Platform == locator.IOS {
		c.collectPrivacy(b, opts)
		return
	}
	c.collectPackagePermissions(b, opts)
}

// collectPackagePermissions reads the Android permission state from a
// dumpsys package dump.
func (c *Collector) collectPackagePermissions(b *Bundle, opts Options) {
	if opts.DeviceID == "" || opts.App.Package == "" {
		b.note("permission dump skipped: requires a device serial and an app package")
		return
	}
	if c.adb == nil {
		b.note("permission dump skipped: no adb available")
		return
	}

	raw, err := c.adb.Dumpsys(opts.DeviceID, "package", opts.App.Package)
	if err != nil {
		b.note("permission dump failed: %v", err)
		return
	}

	b.Permissions = parseGrantedPermissions(raw)
	if c.cfg.RawPermissions {
		b.RawPermissions = raw
	}
}

// collectPrivacy reads the simulator's per-app privacy grants. Both the
// UDID and the bundle id must be known to locate the right table row.
func (c *Collector) collectPrivacy(b *Bundle, opts Options) {
	if opts.DeviceID == "" || opts.App.BundleID == "" {
		b.note("privacy table skipped: requires a simulator UDID and a bundle id")
		return
	}

	dataPath, err := simctl.DataPath(opts.DeviceID)
	if err != nil {
		b.note("privacy table skipped: %v", err)
		return
	}

	perms, err := readPrivacyTable(filepath.Join(dataPath, "Library", "TCC", "TCC.db"), opts.App.BundleID)
	if err != nil {
		b.note("privacy table read failed: %v", err)
		return
	}
	b.Permissions = perms
}

// Package lifecycle orchestrates a test run around a single device:
// the global prepare phase, per-session setup, diagnostics collection
// and the final teardown with its run summary. It glues the platform
// managers, the automation driver, the user hooks and the report
// writer together; each of those stays usable on its own.
package lifecycle

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/devicelab-dev/device-harness/pkg/adb"
	"github.com/devicelab-dev/device-harness/pkg/backend"
	"github.com/devicelab-dev/device-harness/pkg/config"
	"github.com/devicelab-dev/device-harness/pkg/core"
	"github.com/devicelab-dev/device-harness/pkg/diag"
	"github.com/devicelab-dev/device-harness/pkg/driver/appium"
	"github.com/devicelab-dev/device-harness/pkg/emulator"
	"github.com/devicelab-dev/device-harness/pkg/hooks"
	"github.com/devicelab-dev/device-harness/pkg/locator"
	"github.com/devicelab-dev/device-harness/pkg/logger"
	"github.com/devicelab-dev/device-harness/pkg/report"
	"github.com/devicelab-dev/device-harness/pkg/shell"
	"github.com/devicelab-dev/device-harness/pkg/simctl"
	"github.com/devicelab-dev/device-harness/pkg/simulator"
)

// Manager owns the lifecycle of one run against one device. Phases are
// meant to be called in order: OnPrepare once, BeforeSession per
// worker, OnComplete once at the end. OnComplete always runs cleanup
// and writes the summary, even after an earlier phase failed.
type Manager struct {
	cfg      *config.Config
	runID    string
	platform locator.Platform

	adb   *adb.ADB
	sim   *simctl.Simctl
	hooks *hooks.Runner

	emulator  *emulator.Manager // android only
	simulator *simulator.Manager

	driver  *appium.Client
	backend backend.Backend
	session backend.Session

	started time.Time
	runErr  error
	bundles []string
}

// New creates a lifecycle manager for the configured platform. All
// external processes go through the given runner.
func New(cfg *config.Config, runner shell.Runner) *Manager {
	m := &Manager{
		cfg:      cfg,
		runID:    uuid.NewString(),
		platform: locator.Android,
		adb:      adb.New(runner),
		sim:      simctl.New(runner),
		hooks:    hooks.NewRunner(cfg.Hooks),
	}

	if strings.EqualFold(cfg.Platform, "ios") {
		m.platform = locator.IOS
		m.simulator = simulator.NewManager(m.sim, cfg.IOS)
	} else {
		m.emulator = emulator.NewManager(m.adb, runner, cfg.Android)
	}
	return m
}

// OnPrepare is the global pre-run phase: the prepare hook runs first,
// then the platform device is brought up. Both failures are fatal to
// the run.
func (m *Manager) OnPrepare() error {
	m.started = time.Now()
	logger.Info("Run %s: preparing %s device", m.runID, m.platform)

	if err := m.hooks.OnPrepare(m.hookDevice()); err != nil {
		return m.fail(err)
	}
	if err := m.ensureReady(); err != nil {
		return m.fail(err)
	}

	m.session = backend.Session{DeviceID: m.DeviceID(), AppID: m.appID()}
	return nil
}

// BeforeSession is the per-worker phase. On Android the device health
// is re-verified first; a healthy instance answers the probes and
// boots nothing, a dead one is healed. The simulator is only started
// globally, so iOS skips straight to the hook. Then the automation
// driver connects and the platform backend is bound to the session.
func (m *Manager) BeforeSession() error {
	if m.platform == locator.Android {
		if err := m.emulator.EnsureReady(); err != nil {
			return m.fail(err)
		}
	}

	m.hooks.BeforeSession(m.hookDevice())

	// Refresh identifiers: healing may have replaced the instance.
	m.session = backend.Session{DeviceID: m.DeviceID(), AppID: m.appID()}

	client := appium.NewClient(m.cfg.DriverURL)
	if err := client.Connect(appium.Capabilities(m.cfg, m.session.DeviceID)); err != nil {
		return m.fail(err)
	}
	m.driver = client
	m.backend = backend.For(m.platform, client, m.adb, m.sim, m.session)

	logger.Info("Run %s: driver session %s ready on %s", m.runID, client.SessionID(), m.session.DeviceID)
	return nil
}

// OnComplete is the teardown phase. The completion hook, the driver
// disconnect and the device shutdown all run regardless of earlier
// failures; their own errors are logged, never propagated. The run
// summary is written last so it reflects the final state.
func (m *Manager) OnComplete() {
	deviceID, deviceName := m.DeviceID(), m.deviceName()

	m.hooks.OnComplete(m.hookDevice())

	if m.driver != nil {
		if err := m.driver.Disconnect(); err != nil {
			logger.Warn("Driver disconnect failed: %v", err)
		}
		m.driver = nil
		m.backend = nil
	}

	m.stopDevice()
	m.writeSummary(deviceID, deviceName)
}

// Collect gathers a diagnostics bundle through the active driver
// session and writes it under the output directory. The bundle itself
// never fails; only the write can.
func (m *Manager) Collect() (*diag.Bundle, string, error) {
	if m.driver == nil {
		return nil, "", fmt.Errorf("diagnostics need an active driver session")
	}

	collector := diag.NewCollector(m.driver, m.androidADB(), m.cfg.Diag)
	bundle := collector.Collect(diag.Options{
		SessionID: m.runID,
		DeviceID:  m.DeviceID(),
		App:       m.cfg.App,
	})

	path, err := report.WriteBundle(m.cfg.Output, bundle)
	if err != nil {
		return bundle, "", fmt.Errorf("failed to write diagnostics bundle: %w", err)
	}

	if rel, relErr := filepath.Rel(m.cfg.Output, path); relErr == nil {
		m.bundles = append(m.bundles, rel)
	} else {
		m.bundles = append(m.bundles, path)
	}
	return bundle, path, nil
}

// RunID returns the identifier minted for this run.
func (m *Manager) RunID() string {
	return m.runID
}

// Platform returns the configured target platform.
func (m *Manager) Platform() locator.Platform {
	return m.platform
}

// Driver returns the automation session, nil before BeforeSession.
func (m *Manager) Driver() core.Automation {
	if m.driver == nil {
		return nil
	}
	return m.driver
}

// Backend returns the platform backend bound to the session, nil
// before BeforeSession.
func (m *Manager) Backend() backend.Backend {
	return m.backend
}

// Session returns the device and app identifiers of the current run.
func (m *Manager) Session() backend.Session {
	return m.session
}

// HookOutput returns the values hook scripts accumulated in their
// shared output object across the phases run so far.
func (m *Manager) HookOutput() map[string]interface{} {
	return m.hooks.Output()
}

// DeviceID returns the tracked device identifier. Before a device was
// confirmed it falls back to the configured one, so hooks and
// capabilities always see the intended target.
func (m *Manager) DeviceID() string {
	if m.platform == locator.IOS {
		if udid := m.simulator.UDID(); udid != "" {
			return udid
		}
		return m.cfg.IOS.UDID
	}
	if serial := m.emulator.Serial(); serial != "" {
		return serial
	}
	return m.cfg.Android.Serial()
}

func (m *Manager) deviceName() string {
	if m.platform == locator.IOS {
		if name := m.simulator.Name(); name != "" {
			return name
		}
		return m.cfg.IOS.DeviceName
	}
	return m.cfg.Android.AVD
}

func (m *Manager) appID() string {
	if m.platform == locator.IOS {
		return m.cfg.App.BundleID
	}
	return m.cfg.App.Package
}

func (m *Manager) hookDevice() hooks.Device {
	return hooks.Device{
		Platform: string(m.platform),
		ID:       m.DeviceID(),
		Name:     m.deviceName(),
	}
}

func (m *Manager) ensureReady() error {
	if m.platform == locator.IOS {
		return m.simulator.EnsureReady()
	}
	return m.emulator.EnsureReady()
}

// androidADB returns the adb handle for Android runs and nil
// otherwise, keeping the collector off adb on iOS.
func (m *Manager) androidADB() *adb.ADB {
	if m.platform == locator.Android {
		return m.adb
	}
	return nil
}

// stopDevice applies the kill-on-complete policy. Emulators are
// disposable and default to kill; simulators are slow to boot and
// default to staying up.
func (m *Manager) stopDevice() {
	if m.platform == locator.Android {
		if !boolValue(m.cfg.Android.KillOnComplete, true) {
			logger.Info("Keeping emulator alive (killOnComplete=false)")
			return
		}
		if err := m.emulator.Stop(); err != nil {
			logger.Warn("Emulator stop failed: %v", err)
		}
		return
	}

	if !boolValue(m.cfg.IOS.KillOnComplete, false) {
		logger.Info("Keeping simulator alive (killOnComplete=false)")
		return
	}
	if err := m.simulator.Stop(); err != nil {
		logger.Warn("Simulator stop failed: %v", err)
	}
}

func (m *Manager) writeSummary(deviceID, deviceName string) {
	if m.cfg.Output == "" {
		return
	}

	end := time.Now()
	start := m.started
	if start.IsZero() {
		start = end
	}

	summary := &report.RunSummary{
		RunID:      m.runID,
		Status:     report.StatusCompleted,
		Platform:   string(m.platform),
		DeviceID:   deviceID,
		DeviceName: deviceName,
		StartTime:  start,
		EndTime:    &end,
		DurationMs: end.Sub(start).Milliseconds(),
		Bundles:    m.bundles,
	}
	if m.runErr != nil {
		summary.Status = report.StatusFailed
		summary.Error = m.runErr.Error()
	}

	if _, err := report.WriteSummary(m.cfg.Output, summary); err != nil {
		logger.Warn("Failed to write run summary: %v", err)
	}
}

// fail records the first fatal error of the run and passes it through.
func (m *Manager) fail(err error) error {
	if m.runErr == nil {
		m.runErr = err
	}
	return err
}

func boolValue(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

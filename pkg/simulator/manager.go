// Package simulator manages the iOS simulator lifecycle: resolve,
// boot, readiness polling and shutdown of a single instance. Simulators
// only exist on macOS; on other hosts the manager skips instead of
// failing so mixed-platform configurations stay runnable.
package simulator

import (
	"fmt"
	"runtime"
	"time"

	"github.com/devicelab-dev/device-harness/pkg/config"
	"github.com/devicelab-dev/device-harness/pkg/core"
	"github.com/devicelab-dev/device-harness/pkg/logger"
	"github.com/devicelab-dev/device-harness/pkg/simctl"
)

const bootPollInterval = 1 * time.Second

// NewManager creates a simulator manager for the given configuration.
func NewManager(sim *simctl.Simctl, cfg config.IOS) *Manager {
	return &Manager{
		sim:      sim,
		cfg:      cfg,
		goos:     runtime.GOOS,
		state:    core.StateUnknown,
		bootPoll: bootPollInterval,
	}
}

// UDID returns the tracked identifier, empty until a device was confirmed.
func (m *Manager) UDID() string {
	return m.udid
}

// Name returns the resolved device name.
func (m *Manager) Name() string {
	return m.name
}

// Started reports whether a simulator was confirmed booted.
func (m *Manager) Started() bool {
	return m.started
}

// Skipped reports whether the lifecycle was skipped on a non-macOS host.
func (m *Manager) Skipped() bool {
	return m.skipped
}

// State returns the current lifecycle state.
func (m *Manager) State() core.DeviceState {
	return m.state
}

// EnsureReady resolves the configured simulator and brings it to the
// Booted state. On non-macOS hosts it logs and skips without error. An
// already-booted simulator is adopted as-is.
func (m *Manager) EnsureReady() error {
	if m.goos != "darwin" {
		logger.Info("Simulator lifecycle skipped: host is %s, not darwin", m.goos)
		m.skipped = true
		return nil
	}

	device, err := m.resolve()
	if err != nil {
		return err
	}

	if device.State == "Booted" {
		logger.Info("Simulator already booted: %s (%s)", device.Name, device.UDID)
		m.markReady(device)
		return nil
	}

	if err := m.boot(device); err != nil {
		return err
	}
	m.markReady(device)
	return nil
}

// resolve finds the target simulator, by explicit UDID when configured,
// else by device name.
func (m *Manager) resolve() (*simctl.Device, error) {
	if m.cfg.UDID != "" {
		return m.sim.Find(m.cfg.UDID)
	}
	if m.cfg.DeviceName != "" {
		device, err := m.sim.FindByName(m.cfg.DeviceName)
		if err != nil {
			return nil, err
		}
		logger.Info("Resolved simulator %q to %s (%s)", m.cfg.DeviceName, device.Name, device.UDID)
		return device, nil
	}
	return nil, core.ErrMissingIdentifier.WithMessage("simulator lifecycle requires a udid or deviceName")
}

// boot issues the boot command, brings the Simulator UI forward unless
// headless, and polls until the device reports Booted.
func (m *Manager) boot(device *simctl.Device) error {
	m.state = core.StateBooting
	bootStart := time.Now()
	logger.Info("Booting simulator: %s (%s)", device.Name, device.UDID)

	if err := m.sim.Boot(device.UDID); err != nil {
		return fmt.Errorf("failed to boot simulator %s: %w", device.UDID, err)
	}

	if !m.cfg.Headless {
		if err := m.sim.OpenSimulatorApp(); err != nil {
			logger.Warn("Could not open the Simulator app: %v", err)
		}
	}

	if err := m.waitForBooted(device.UDID, m.cfg.BootTimeout()); err != nil {
		return err
	}

	logger.Info("Simulator booted in %v: %s", time.Since(bootStart).Round(time.Millisecond), device.UDID)
	return nil
}

// waitForBooted polls the simulator state until it reports Booted.
func (m *Manager) waitForBooted(udid string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(m.bootPoll)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		device, err := m.sim.Find(udid)
		if err != nil {
			logger.Debug("Simulator status poll failed: %v", err)
		} else if device.State == "Booted" {
			return nil
		}
		<-ticker.C
	}

	return core.ErrBootTimeout.WithMessage(
		fmt.Sprintf("simulator %s not booted after %v", udid, timeout))
}

// Stop shuts the tracked simulator down, best-effort: shutdown failures
// are logged, never propagated. Without a tracked UDID it is a no-op.
func (m *Manager) Stop() error {
	if m.udid == "" {
		logger.Info("No simulator tracked, stop is a no-op")
		return nil
	}

	udid := m.udid
	m.state = core.StateStopping
	logger.Info("Shutting down simulator: %s", udid)

	if err := m.sim.Shutdown(udid); err != nil {
		logger.Warn("Simulator shutdown failed for %s: %v", udid, err)
	}

	m.udid = ""
	m.name = ""
	m.started = false
	m.state = core.StateStopped
	return nil
}

func (m *Manager) markReady(device *simctl.Device) {
	m.udid = device.UDID
	m.name = device.Name
	m.started = true
	m.state = core.StateReady
	logger.Info("Simulator ready: %s (%s)", device.Name, device.UDID)
}

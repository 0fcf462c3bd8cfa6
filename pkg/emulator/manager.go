// Package emulator manages the Android emulator lifecycle: boot,
// health verification, healing and shutdown of a single instance.
package emulator

import (
	"fmt"
	"time"

	"github.com/devicelab-dev/device-harness/pkg/adb"
	"github.com/devicelab-dev/device-harness/pkg/config"
	"github.com/devicelab-dev/device-harness/pkg/core"
	"github.com/devicelab-dev/device-harness/pkg/logger"
	"github.com/devicelab-dev/device-harness/pkg/shell"
)

const (
	listPollInterval = 1500 * time.Millisecond
	bootPollInterval = 1 * time.Second
	propRetryPause   = 500 * time.Millisecond
	minBootComplete  = 60 * time.Second
)

// NewManager creates an emulator manager for the given configuration.
func NewManager(a *adb.ADB, runner shell.Runner, cfg config.Android) *Manager {
	return &Manager{
		adb:          a,
		runner:       runner,
		cfg:          cfg,
		emulatorPath: "emulator",
		state:        core.StateUnknown,
		listPoll:     listPollInterval,
		bootPoll:     bootPollInterval,
		propPause:    propRetryPause,
		minBootWait:  minBootComplete,
	}
}

// SetEmulatorBinary overrides the emulator binary path. Production
// wiring resolves it via FindEmulatorBinary.
func (m *Manager) SetEmulatorBinary(path string) {
	m.emulatorPath = path
}

// Serial returns the tracked serial, empty until a device was confirmed.
func (m *Manager) Serial() string {
	return m.serial
}

// Started reports whether a device was confirmed healthy at least once.
func (m *Manager) Started() bool {
	return m.started
}

// State returns the current lifecycle state.
func (m *Manager) State() core.DeviceState {
	return m.state
}

// EnsureReady brings the configured emulator to a session-ready state.
// It is idempotent: with a healthy instance already listed it performs
// only listing and health checks, never a boot. The whole start-or-heal
// sequence is retried with linear backoff, bouncing the adb server
// between attempts; after exhausting retries the last error surfaces.
func (m *Manager) EnsureReady() error {
	attempts := m.cfg.StartRetries + 1
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			backoff := m.cfg.StartBackoff(attempt - 1)
			logger.Warn("Emulator start attempt %d/%d failed: %v; retrying in %v",
				attempt-1, attempts, lastErr, backoff)
			time.Sleep(backoff)
			if err := m.adb.RestartServer(); err != nil {
				logger.Warn("adb server restart failed: %v", err)
			}
		}

		if err := m.startOrHeal(); err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	return core.ErrStartExhausted.WithDetails(map[string]interface{}{
		"avd":      m.cfg.AVD,
		"attempts": attempts,
	}).WithCause(lastErr)
}

// startOrHeal runs one pass of the state machine: an already-listed
// instance is health-checked and healed if needed, a missing instance
// is booted fresh.
func (m *Manager) startOrHeal() error {
	serial := m.cfg.Serial()

	listed, err := m.adb.Listed(serial)
	if err != nil {
		// Listing itself failed, the instance cannot be confirmed.
		logger.Warn("Device listing failed: %v; attempting fresh boot", err)
		if err := m.boot(m.cfg.ColdBoot); err != nil {
			return err
		}
		m.markReady(serial)
		return nil
	}

	if listed {
		m.state = core.StateListed
		if err := m.WaitForHealthy(serial); err == nil {
			m.markReady(serial)
			return nil
		}

		m.state = core.StateUnhealthy
		logger.Warn("Emulator %s is unhealthy, restarting it", serial)
		m.serial = serial // adopt the listed instance so Stop targets it
		if err := m.Stop(); err != nil {
			logger.Warn("Stop before restart failed: %v", err)
		}

		cold := m.cfg.ColdBoot || m.coldRestartOnFailure()
		if err := m.boot(cold); err != nil {
			return err
		}
		m.markReady(serial)
		return nil
	}

	if err := m.boot(m.cfg.ColdBoot); err != nil {
		return err
	}
	m.markReady(serial)
	return nil
}

// WaitForHealthy repeats the health check until it passes or the
// configured retries are exhausted.
func (m *Manager) WaitForHealthy(serial string) error {
	m.state = core.StateHealthChecking

	retries := m.cfg.HealthRetries
	for attempt := 1; attempt <= retries; attempt++ {
		if m.Healthy(serial) {
			m.state = core.StateHealthy
			return nil
		}
		logger.Debug("Health check %d/%d failed for %s", attempt, retries, serial)
		if attempt < retries {
			time.Sleep(m.cfg.HealthInterval())
		}
	}

	m.state = core.StateUnhealthy
	return core.ErrDeviceUnhealthy.WithMessage(
		fmt.Sprintf("emulator %s failed health check after %d attempts", serial, retries))
}

// Stop shuts the tracked emulator down via the console kill command,
// falling back to an adb server restart. Without a tracked serial it is
// a no-op.
func (m *Manager) Stop() error {
	if m.serial == "" {
		logger.Info("No emulator tracked, stop is a no-op")
		return nil
	}

	serial := m.serial
	m.state = core.StateStopping
	logger.Info("Stopping emulator: %s", serial)

	if err := m.adb.EmuKill(serial); err != nil {
		logger.Warn("adb emu kill failed for %s: %v; restarting adb server", serial, err)
		if rerr := m.adb.RestartServer(); rerr != nil {
			logger.Error("adb server restart failed: %v", rerr)
			// Device left dangling; identifier kept so a later stop can retry.
			return fmt.Errorf("stop emulator %s: %w", serial, err)
		}
	}

	logger.Info("Emulator stopped: %s", serial)
	m.serial = ""
	m.started = false
	m.state = core.StateStopped
	return nil
}

func (m *Manager) markReady(serial string) {
	m.serial = serial
	m.started = true
	m.state = core.StateReady
	logger.Info("Emulator ready: %s", serial)
}

func (m *Manager) coldRestartOnFailure() bool {
	if m.cfg.ColdRestartOnFailure != nil {
		return *m.cfg.ColdRestartOnFailure
	}
	return true
}

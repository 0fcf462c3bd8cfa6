package emulator

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/devicelab-dev/device-harness/pkg/adb"
	"github.com/devicelab-dev/device-harness/pkg/core"
	"github.com/devicelab-dev/device-harness/pkg/logger"
	"github.com/devicelab-dev/device-harness/pkg/shell"
)

// FindEmulatorBinary locates the Android emulator binary.
func FindEmulatorBinary() (string, error) {
	androidHome := adb.AndroidHome()
	if androidHome != "" {
		// New SDK layout
		emulatorPath := filepath.Join(androidHome, "emulator", "emulator")
		if _, err := os.Stat(emulatorPath); err == nil {
			return emulatorPath, nil
		}

		// Old SDK layout
		emulatorPath = filepath.Join(androidHome, "tools", "emulator")
		if _, err := os.Stat(emulatorPath); err == nil {
			return emulatorPath, nil
		}
	}

	if path, err := exec.LookPath("emulator"); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("emulator binary not found. Set ANDROID_HOME or add emulator to PATH")
}

// ListAVDs returns the names of all Android Virtual Devices.
func ListAVDs(runner shell.Runner) ([]string, error) {
	emulatorPath, err := FindEmulatorBinary()
	if err != nil {
		return nil, err
	}

	out, err := runner.Output(emulatorPath, "-list-avds")
	if err != nil {
		return nil, fmt.Errorf("failed to list AVDs: %w", err)
	}

	var avds []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		avds = append(avds, line)
	}
	return avds, nil
}

// IsEmulator checks if a device serial is an emulator.
func IsEmulator(serial string) bool {
	return strings.HasPrefix(serial, "emulator-")
}

// boot launches the emulator process detached, then polls external
// state until the instance is listed and fully booted. The manager
// never owns the process; shutdown always goes through the console
// kill command.
func (m *Manager) boot(cold bool) error {
	serial := m.cfg.Serial()
	m.state = core.StateBooting
	bootStart := time.Now()

	args := []string{
		"-avd", m.cfg.AVD,
		"-port", fmt.Sprintf("%d", m.cfg.Port),
		"-netdelay", "none",
		"-netspeed", "full",
		"-no-boot-anim",
	}
	if cold {
		args = append(args, "-no-snapshot-load")
	}
	if m.cfg.NoSnapshot {
		args = append(args, "-no-snapshot")
	}
	if m.cfg.Headless {
		args = append(args, "-no-window")
	}

	logger.Info("Booting emulator: %s on port %d (cold=%v headless=%v)",
		m.cfg.AVD, m.cfg.Port, cold, m.cfg.Headless)
	logger.Debug("Emulator command: %s %v", m.emulatorPath, args)

	if err := m.runner.Start(m.emulatorPath, args...); err != nil {
		return fmt.Errorf("failed to start emulator process: %w", err)
	}

	if err := m.waitForListed(serial, m.cfg.BootTimeout()); err != nil {
		return err
	}

	remaining := m.cfg.BootTimeout() - time.Since(bootStart)
	if remaining < m.minBootWait {
		remaining = m.minBootWait
	}
	if err := m.waitForBootComplete(serial, remaining); err != nil {
		return err
	}

	// Dismiss the lock screen, best-effort.
	if err := m.adb.KeyEvent(serial, 82); err != nil {
		logger.Debug("Unlock keyevent failed for %s: %v", serial, err)
	}

	logger.Info("Emulator boot completed in %v: %s", time.Since(bootStart).Round(time.Millisecond), serial)
	return nil
}

// waitForListed polls the device listing until the serial appears.
func (m *Manager) waitForListed(serial string, timeout time.Duration) error {
	logger.Info("Waiting for %s to appear in device listing", serial)
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(m.listPoll)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		listed, err := m.adb.Listed(serial)
		if err != nil {
			logger.Debug("Listing poll failed: %v", err)
		} else if listed {
			logger.Debug("Device listed: %s", serial)
			return nil
		}
		<-ticker.C
	}

	return core.ErrBootTimeout.WithMessage(
		fmt.Sprintf("emulator %s never appeared in device listing after %v", serial, timeout))
}

// waitForBootComplete polls the boot-completion signals until the
// device reports a finished boot: adb state ready, both boot-complete
// properties set, and the package manager responding.
func (m *Manager) waitForBootComplete(serial string, timeout time.Duration) error {
	logger.Info("Waiting for boot complete: %s", serial)
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(m.bootPoll)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		status := m.checkBootStatus(serial)
		logger.Debug("Boot status for %s: state=%v sys=%v dev=%v pm=%v",
			serial, status.StateReady, status.SysBootComplete, status.DevBootComplete, status.PackageManager)

		if status.IsFullyReady() {
			logger.Info("Emulator fully booted: %s", serial)
			return nil
		}
		<-ticker.C
	}

	status := m.checkBootStatus(serial)
	return core.ErrBootTimeout.WithMessage(
		fmt.Sprintf("emulator %s boot incomplete after %v (state:%v sys:%v dev:%v pm:%v)",
			serial, timeout, status.StateReady, status.SysBootComplete, status.DevBootComplete, status.PackageManager))
}

// checkBootStatus probes the boot-completion signals. The state probe
// gates the rest: shell probes are meaningless until adb reports the
// device state.
func (m *Manager) checkBootStatus(serial string) *BootStatus {
	status := &BootStatus{}

	state, err := m.adb.State(serial)
	status.StateReady = err == nil && state == "device"
	if !status.StateReady {
		return status
	}

	v, err := m.adb.Getprop(serial, "sys.boot_completed")
	status.SysBootComplete = err == nil && v == "1"

	v, err = m.adb.Getprop(serial, "dev.bootcomplete")
	status.DevBootComplete = err == nil && v == "1"

	out, err := m.adb.PackagePath(serial, "android")
	status.PackageManager = err == nil && out != ""

	return status
}

// Healthy runs the composite health check: listed, adb state ready, a
// non-empty platform version (filters transient connection errors), a
// responsive package manager, and the boot-completed property set. The
// boot property gets one recheck after a short pause. Probes
// short-circuit; any failure means unhealthy, never an error.
func (m *Manager) Healthy(serial string) bool {
	listed, err := m.adb.Listed(serial)
	if err != nil || !listed {
		logger.Debug("Health: %s not listed (err=%v)", serial, err)
		return false
	}

	state, err := m.adb.State(serial)
	if err != nil || state != "device" {
		logger.Debug("Health: %s state %q (err=%v)", serial, state, err)
		return false
	}

	version, err := m.adb.Getprop(serial, "ro.build.version.release")
	if err != nil || version == "" {
		logger.Debug("Health: %s version probe failed (err=%v)", serial, err)
		return false
	}

	if out, err := m.adb.PackagePath(serial, "android"); err != nil || out == "" {
		logger.Debug("Health: %s package manager not responding (err=%v)", serial, err)
		return false
	}

	boot, err := m.adb.Getprop(serial, "sys.boot_completed")
	if err != nil {
		logger.Debug("Health: %s boot property probe failed: %v", serial, err)
		return false
	}
	if boot != "1" {
		time.Sleep(m.propPause)
		boot, err = m.adb.Getprop(serial, "sys.boot_completed")
		if err != nil || boot != "1" {
			logger.Debug("Health: %s boot not completed (%q, err=%v)", serial, boot, err)
			return false
		}
	}

	return true
}

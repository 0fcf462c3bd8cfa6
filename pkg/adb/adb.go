// Package adb wraps the adb management-command namespace used by the
// emulator lifecycle, the capability backend and the diagnostics
// collector. Commands run through a shell.Runner so tests can script
// device responses.
package adb

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/devicelab-dev/device-harness/pkg/shell"
)

// ADB issues adb commands through a shell runner.
type ADB struct {
	runner shell.Runner
	path   string
}

// Device is one row of the adb device listing.
type Device struct {
	Serial string
	State  string // device, offline, unauthorized, ...
}

// Info describes the device behind a serial. Secondary probes are
// best-effort; a field stays empty when its property cannot be read.
type Info struct {
	Serial     string
	Model      string
	Brand      string
	SDK        string
	OSVersion  string
	IsEmulator bool
}

// New creates an ADB wrapper. The adb binary is addressed by name; use
// FindADB to resolve an absolute path when PATH lookup matters.
func New(runner shell.Runner) *ADB {
	return &ADB{runner: runner, path: "adb"}
}

// NewWithPath creates an ADB wrapper bound to a specific adb binary.
func NewWithPath(runner shell.Runner, path string) *ADB {
	return &ADB{runner: runner, path: path}
}

// FindADB locates the adb binary via PATH or the Android SDK layout.
func FindADB() (string, error) {
	if path, err := exec.LookPath("adb"); err == nil {
		return path, nil
	}

	if home := AndroidHome(); home != "" {
		adbPath := filepath.Join(home, "platform-tools", "adb")
		if _, err := os.Stat(adbPath); err == nil {
			return adbPath, nil
		}
	}

	return "", fmt.Errorf("adb not found in PATH; ensure Android SDK is installed")
}

// AndroidHome returns the Android SDK root from the environment.
func AndroidHome() string {
	if home := os.Getenv("ANDROID_HOME"); home != "" {
		return home
	}
	if home := os.Getenv("ANDROID_SDK_ROOT"); home != "" {
		return home
	}
	if home := os.Getenv("ANDROID_SDK_HOME"); home != "" {
		return home
	}
	return ""
}

func (a *ADB) run(args ...string) (string, error) {
	return a.runner.Output(a.path, args...)
}

func (a *ADB) device(serial string, args ...string) (string, error) {
	return a.run(append([]string{"-s", serial}, args...)...)
}

// Devices returns all rows of `adb devices`.
func (a *ADB) Devices() ([]Device, error) {
	out, err := a.run("devices")
	if err != nil {
		return nil, err
	}

	var devices []Device
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "List of") || strings.HasPrefix(line, "*") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) >= 2 {
			devices = append(devices, Device{Serial: parts[0], State: parts[1]})
		}
	}
	return devices, nil
}

// Listed reports whether a serial appears in the device listing.
func (a *ADB) Listed(serial string) (bool, error) {
	devices, err := a.Devices()
	if err != nil {
		return false, err
	}
	for _, d := range devices {
		if d.Serial == serial {
			return true, nil
		}
	}
	return false, nil
}

// State returns the adb connection state for a serial.
func (a *ADB) State(serial string) (string, error) {
	out, err := a.device(serial, "get-state")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Shell executes a shell command on the device.
func (a *ADB) Shell(serial string, args ...string) (string, error) {
	return a.device(serial, append([]string{"shell"}, args...)...)
}

// Getprop reads a system property, trimmed.
func (a *ADB) Getprop(serial, prop string) (string, error) {
	out, err := a.Shell(serial, "getprop", prop)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Info collects the basic identity of a device. The model probe gates
// the rest; a device that cannot answer it is not usably connected.
func (a *ADB) Info(serial string) (*Info, error) {
	model, err := a.Getprop(serial, "ro.product.model")
	if err != nil {
		return nil, fmt.Errorf("failed to read device identity for %s: %w", serial, err)
	}

	info := &Info{Serial: serial, Model: model}
	info.Brand, _ = a.Getprop(serial, "ro.product.brand")
	info.SDK, _ = a.Getprop(serial, "ro.build.version.sdk")
	info.OSVersion, _ = a.Getprop(serial, "ro.build.version.release")

	qemu, _ := a.Getprop(serial, "ro.kernel.qemu")
	info.IsEmulator = qemu == "1"
	return info, nil
}

// PackagePath resolves a package through the package manager. The
// lifecycle uses it as a responsiveness probe against a known system
// package.
func (a *ADB) PackagePath(serial, pkg string) (string, error) {
	out, err := a.Shell(serial, "pm", "path", pkg)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// KeyEvent injects a key event.
func (a *ADB) KeyEvent(serial string, keycode int) error {
	_, err := a.Shell(serial, "input", "keyevent", fmt.Sprintf("%d", keycode))
	return err
}

// Dumpsys dumps a system service section.
func (a *ADB) Dumpsys(serial, section string, args ...string) (string, error) {
	return a.Shell(serial, append([]string{"dumpsys", section}, args...)...)
}

// Grant grants a runtime permission to a package.
func (a *ADB) Grant(serial, pkg, permission string) error {
	_, err := a.Shell(serial, "pm", "grant", pkg, permission)
	return err
}

// Revoke revokes a runtime permission from a package.
func (a *ADB) Revoke(serial, pkg, permission string) error {
	_, err := a.Shell(serial, "pm", "revoke", pkg, permission)
	return err
}

// SetAirplaneMode toggles airplane mode and broadcasts the change.
func (a *ADB) SetAirplaneMode(serial string, on bool) error {
	value := "0"
	state := "false"
	if on {
		value = "1"
		state = "true"
	}
	if _, err := a.Shell(serial, "settings", "put", "global", "airplane_mode_on", value); err != nil {
		return err
	}
	_, err := a.Shell(serial, "am", "broadcast",
		"-a", "android.intent.action.AIRPLANE_MODE", "--ez", "state", state)
	return err
}

// SetMobileData toggles mobile data.
func (a *ADB) SetMobileData(serial string, on bool) error {
	verb := "disable"
	if on {
		verb = "enable"
	}
	_, err := a.Shell(serial, "svc", "data", verb)
	return err
}

// SetNightMode toggles the dark UI mode.
func (a *ADB) SetNightMode(serial string, on bool) error {
	value := "no"
	if on {
		value = "yes"
	}
	_, err := a.Shell(serial, "cmd", "uimode", "night", value)
	return err
}

// EmuKill asks a running emulator to shut down via its console.
func (a *ADB) EmuKill(serial string) error {
	_, err := a.device(serial, "emu", "kill")
	return err
}

// KillServer stops the adb server.
func (a *ADB) KillServer() error {
	_, err := a.run("kill-server")
	return err
}

// StartServer starts the adb server.
func (a *ADB) StartServer() error {
	_, err := a.run("start-server")
	return err
}

// RestartServer bounces the adb server, a cheap recovery action between
// start attempts.
func (a *ADB) RestartServer() error {
	if err := a.KillServer(); err != nil {
		return err
	}
	return a.StartServer()
}

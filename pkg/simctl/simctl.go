// Package simctl wraps the xcrun simctl command namespace used by the
// simulator lifecycle, the capability backend and the diagnostics
// collector. Commands run through a shell.Runner so tests can script
// listing output without a Mac.
package simctl

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/devicelab-dev/device-harness/pkg/shell"
)

// Simctl issues simctl commands through a shell runner.
type Simctl struct {
	runner shell.Runner
}

// Device is one simulator from the simctl listing.
type Device struct {
	Name      string // e.g. "iPhone 15 Pro"
	UDID      string
	Runtime   string // e.g. "com.apple.CoreSimulator.SimRuntime.iOS-17-2"
	OSVersion string // e.g. "17.2", extracted from Runtime
	State     string // "Shutdown", "Booted", ...
	Available bool
}

// New creates a Simctl wrapper.
func New(runner shell.Runner) *Simctl {
	return &Simctl{runner: runner}
}

// FindXcrun verifies that xcrun is available.
func FindXcrun() (string, error) {
	path, err := exec.LookPath("xcrun")
	if err != nil {
		return "", fmt.Errorf("xcrun not found; install Xcode Command Line Tools: xcode-select --install")
	}
	return path, nil
}

// listOutput represents the JSON from `simctl list devices -j`.
type listOutput struct {
	Devices map[string][]listDevice `json:"devices"`
}

type listDevice struct {
	Name        string `json:"name"`
	UDID        string `json:"udid"`
	State       string `json:"state"`
	IsAvailable bool   `json:"isAvailable"`
}

// ListDevices returns all available simulators. Unavailable entries
// (broken runtimes) are excluded.
func (s *Simctl) ListDevices() ([]Device, error) {
	out, err := s.runner.Output("xcrun", "simctl", "list", "devices", "available", "-j")
	if err != nil {
		return nil, fmt.Errorf("failed to list simulators: %w", err)
	}

	var data listOutput
	if err := json.Unmarshal([]byte(out), &data); err != nil {
		return nil, fmt.Errorf("failed to parse simctl output: %w", err)
	}

	var devices []Device
	for runtime, devs := range data.Devices {
		osVersion := extractOSVersion(runtime)
		for _, d := range devs {
			if !d.IsAvailable {
				continue
			}
			devices = append(devices, Device{
				Name:      d.Name,
				UDID:      d.UDID,
				Runtime:   runtime,
				OSVersion: osVersion,
				State:     d.State,
				Available: d.IsAvailable,
			})
		}
	}
	return devices, nil
}

// Find returns the device with the given UDID.
func (s *Simctl) Find(udid string) (*Device, error) {
	devices, err := s.ListDevices()
	if err != nil {
		return nil, err
	}
	for i := range devices {
		if devices[i].UDID == udid {
			return &devices[i], nil
		}
	}
	return nil, fmt.Errorf("simulator not found: %s", udid)
}

// FindByName resolves a human-readable device name to a device. An
// exact name match (case-insensitive) wins; otherwise the most specific
// match is the shortest device name containing the query, so "iPhone 15"
// picks "iPhone 15" over "iPhone 15 Pro Max".
func (s *Simctl) FindByName(name string) (*Device, error) {
	devices, err := s.ListDevices()
	if err != nil {
		return nil, err
	}

	for i := range devices {
		if strings.EqualFold(devices[i].Name, name) {
			return &devices[i], nil
		}
	}

	var best *Device
	query := strings.ToLower(name)
	for i := range devices {
		if !strings.Contains(strings.ToLower(devices[i].Name), query) {
			continue
		}
		if best == nil || len(devices[i].Name) < len(best.Name) {
			best = &devices[i]
		}
	}
	if best == nil {
		return nil, fmt.Errorf("no simulator matching name %q", name)
	}
	return best, nil
}

// Boot boots a simulator. Booting an already-booted simulator is not an
// error.
func (s *Simctl) Boot(udid string) error {
	_, err := s.runner.Output("xcrun", "simctl", "boot", udid)
	if err != nil && strings.Contains(err.Error(), "current state: Booted") {
		return nil
	}
	return err
}

// Shutdown shuts a simulator down. Shutting down an already-stopped
// simulator is not an error.
func (s *Simctl) Shutdown(udid string) error {
	_, err := s.runner.Output("xcrun", "simctl", "shutdown", udid)
	if err != nil && strings.Contains(err.Error(), "current state: Shutdown") {
		return nil
	}
	return err
}

// OpenSimulatorApp brings the Simulator UI to the foreground.
func (s *Simctl) OpenSimulatorApp() error {
	_, err := s.runner.Output("open", "-a", "Simulator")
	return err
}

// GrantPrivacy grants a privacy service (camera, photos, ...) to a
// bundle id.
func (s *Simctl) GrantPrivacy(udid, service, bundleID string) error {
	_, err := s.runner.Output("xcrun", "simctl", "privacy", udid, "grant", service, bundleID)
	return err
}

// RevokePrivacy revokes a privacy service from a bundle id.
func (s *Simctl) RevokePrivacy(udid, service, bundleID string) error {
	_, err := s.runner.Output("xcrun", "simctl", "privacy", udid, "revoke", service, bundleID)
	return err
}

// SetAppearance switches the simulator between light and dark mode.
func (s *Simctl) SetAppearance(udid, appearance string) error {
	_, err := s.runner.Output("xcrun", "simctl", "ui", udid, "appearance", appearance)
	return err
}

// DataPath returns the simulator's data directory, which holds the
// per-app privacy table at Library/TCC/TCC.db.
func DataPath(udid string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "Library", "Developer", "CoreSimulator", "Devices", udid, "data"), nil
}

// extractOSVersion extracts the version from a runtime identifier.
func extractOSVersion(runtime string) string {
	for _, prefix := range []string{"iOS-", "watchOS-", "tvOS-", "xrOS-"} {
		if idx := strings.LastIndex(runtime, prefix); idx != -1 {
			version := runtime[idx+len(prefix):]
			return strings.ReplaceAll(version, "-", ".")
		}
	}
	return ""
}

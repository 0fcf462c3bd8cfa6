package backend

import (
	"github.com/devicelab-dev/device-harness/pkg/adb"
	"github.com/devicelab-dev/device-harness/pkg/core"
	"github.com/devicelab-dev/device-harness/pkg/locator"
	"github.com/devicelab-dev/device-harness/pkg/logger"
)

// androidBackend implements Backend against an emulator through adb
// and the automation driver.
type androidBackend struct {
	gestures
	adb     *adb.ADB
	session Session
}

func (b *androidBackend) Platform() locator.Platform {
	return locator.Android
}

// identifiers checks that the privileged-operation identifiers are
// resolvable.
func (b *androidBackend) identifiers() error {
	if b.session.DeviceID == "" {
		return core.ErrMissingIdentifier.WithMessage("permission toggling requires a device serial")
	}
	if b.session.AppID == "" {
		return core.ErrMissingIdentifier.WithMessage("permission toggling requires an app package")
	}
	return nil
}

func (b *androidBackend) GrantPermission(permission string) error {
	if err := b.identifiers(); err != nil {
		return err
	}
	return b.adb.Grant(b.session.DeviceID, b.session.AppID, permission)
}

func (b *androidBackend) RevokePermission(permission string) error {
	if err := b.identifiers(); err != nil {
		return err
	}
	return b.adb.Revoke(b.session.DeviceID, b.session.AppID, permission)
}

func (b *androidBackend) SetAirplaneMode(on bool) error {
	if b.session.DeviceID == "" {
		return core.ErrMissingIdentifier.WithMessage("network toggling requires a device serial")
	}
	return b.adb.SetAirplaneMode(b.session.DeviceID, on)
}

func (b *androidBackend) SetMobileData(on bool) error {
	if b.session.DeviceID == "" {
		return core.ErrMissingIdentifier.WithMessage("network toggling requires a device serial")
	}
	return b.adb.SetMobileData(b.session.DeviceID, on)
}

// Shake relays to the driver; most Android drivers reject it, which is
// reported as degradation, not an error.
func (b *androidBackend) Shake() core.Outcome {
	if _, err := b.automation.ExecuteMobile("shake", nil); err != nil {
		logger.Debug("Shake degraded: %v", err)
		return core.Degraded("shake not supported: %v", err)
	}
	return core.Applied()
}

// SetBiometricEnrollment reports degradation: emulator fingerprints are
// enrolled through device settings, not a management command.
func (b *androidBackend) SetBiometricEnrollment(enrolled bool) core.Outcome {
	return core.Degraded("biometric enrollment requires manual emulator setup")
}

// MatchBiometric simulates a fingerprint touch. A non-enrolled finger
// id simulates the failed match.
func (b *androidBackend) MatchBiometric(match bool) core.Outcome {
	fingerID := 1
	if !match {
		fingerID = 2
	}
	if _, err := b.automation.ExecuteMobile("fingerprint", map[string]interface{}{
		"fingerprintId": fingerID,
	}); err != nil {
		logger.Debug("Fingerprint match degraded: %v", err)
		return core.Degraded("fingerprint not supported: %v", err)
	}
	return core.Applied()
}

// SetAppearance toggles dark mode through the ui-mode service.
func (b *androidBackend) SetAppearance(dark bool) core.Outcome {
	if b.session.DeviceID == "" {
		return core.Degraded("no device serial to toggle appearance")
	}
	if err := b.adb.SetNightMode(b.session.DeviceID, dark); err != nil {
		logger.Debug("Appearance degraded: %v", err)
		return core.Degraded("night mode failed: %v", err)
	}
	return core.Applied()
}

package backend

import (
	"fmt"

	"github.com/devicelab-dev/device-harness/pkg/core"
	"github.com/devicelab-dev/device-harness/pkg/locator"
	"github.com/devicelab-dev/device-harness/pkg/logger"
	"github.com/devicelab-dev/device-harness/pkg/simctl"
)

// iosBackend implements Backend against a simulator through simctl and
// the automation driver.
type iosBackend struct {
	gestures
	sim     *simctl.Simctl
	session Session
}

func (b *iosBackend) Platform() locator.Platform {
	return locator.IOS
}

func (b *iosBackend) identifiers() error {
	if b.session.DeviceID == "" {
		return core.ErrMissingIdentifier.WithMessage("privacy toggling requires a simulator UDID")
	}
	if b.session.AppID == "" {
		return core.ErrMissingIdentifier.WithMessage("privacy toggling requires a bundle id")
	}
	return nil
}

// GrantPermission grants a privacy service (camera, photos, ...) to the
// session's bundle id.
func (b *iosBackend) GrantPermission(service string) error {
	if err := b.identifiers(); err != nil {
		return err
	}
	return b.sim.GrantPrivacy(b.session.DeviceID, service, b.session.AppID)
}

func (b *iosBackend) RevokePermission(service string) error {
	if err := b.identifiers(); err != nil {
		return err
	}
	return b.sim.RevokePrivacy(b.session.DeviceID, service, b.session.AppID)
}

func (b *iosBackend) SetAirplaneMode(on bool) error {
	return fmt.Errorf("airplane mode is not supported on simulators")
}

func (b *iosBackend) SetMobileData(on bool) error {
	return fmt.Errorf("mobile data toggling is not supported on simulators")
}

// Shake relays to the driver shake command.
func (b *iosBackend) Shake() core.Outcome {
	if _, err := b.automation.ExecuteMobile("shake", nil); err != nil {
		logger.Debug("Shake degraded: %v", err)
		return core.Degraded("shake not supported: %v", err)
	}
	return core.Applied()
}

// SetBiometricEnrollment toggles simulated biometric enrollment.
func (b *iosBackend) SetBiometricEnrollment(enrolled bool) core.Outcome {
	if _, err := b.automation.ExecuteMobile("enrollBiometric", map[string]interface{}{
		"isEnabled": enrolled,
	}); err != nil {
		logger.Debug("Biometric enrollment degraded: %v", err)
		return core.Degraded("biometric enrollment failed: %v", err)
	}
	return core.Applied()
}

// MatchBiometric simulates a matching or non-matching biometric prompt
// response.
func (b *iosBackend) MatchBiometric(match bool) core.Outcome {
	if _, err := b.automation.ExecuteMobile("sendBiometricMatch", map[string]interface{}{
		"type":  "touchId",
		"match": match,
	}); err != nil {
		logger.Debug("Biometric match degraded: %v", err)
		return core.Degraded("biometric match failed: %v", err)
	}
	return core.Applied()
}

// SetAppearance switches the simulator between light and dark mode.
func (b *iosBackend) SetAppearance(dark bool) core.Outcome {
	if b.session.DeviceID == "" {
		return core.Degraded("no simulator UDID to switch appearance")
	}
	style := "light"
	if dark {
		style = "dark"
	}
	if err := b.sim.SetAppearance(b.session.DeviceID, style); err != nil {
		logger.Debug("Appearance degraded: %v", err)
		return core.Degraded("appearance switch failed: %v", err)
	}
	return core.Applied()
}

package appium

import (
	"github.com/devicelab-dev/device-harness/pkg/config"
	"github.com/devicelab-dev/device-harness/pkg/core"
)

var _ core.Automation = (*Client)(nil)

// Capabilities builds W3C session capabilities from the harness
// configuration and the resolved device identifier (emulator serial or
// simulator UDID).
func Capabilities(cfg *config.Config, deviceID string) map[string]interface{} {
	caps := make(map[string]interface{})

	switch cfg.Platform {
	case "ios":
		caps["platformName"] = "iOS"
		caps["appium:automationName"] = "XCUITest"
		if cfg.App.BundleID != "" {
			caps["appium:bundleId"] = cfg.App.BundleID
		}
	default:
		caps["platformName"] = "Android"
		caps["appium:automationName"] = "UiAutomator2"
		// Grant declared permissions up front to avoid permission popups
		caps["appium:autoGrantPermissions"] = true
		if cfg.App.Package != "" {
			caps["appium:appPackage"] = cfg.App.Package
		}
		if cfg.App.Activity != "" {
			caps["appium:appActivity"] = cfg.App.Activity
		}
	}

	if deviceID != "" {
		caps["appium:deviceName"] = deviceID
		caps["appium:udid"] = deviceID
	}

	return caps
}

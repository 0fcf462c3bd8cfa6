// Package config handles configuration for device-harness.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for the device lifecycle. Timeouts and intervals are
// milliseconds in the file format; accessors convert to time.Duration.
const (
	DefaultEmulatorPort       = 5554
	DefaultAndroidBootTimeout = 240_000 // ms
	DefaultIOSBootTimeout     = 120_000 // ms
	DefaultStartRetries       = 2
	DefaultStartBackoffMs     = 1500
	DefaultHealthRetries      = 3
	DefaultHealthIntervalMs   = 1500
	DefaultMaxTreeChars       = 250_000
)

// Config is the full harness configuration (config.yaml).
type Config struct {
	// Target platform: "android" or "ios".
	Platform string `yaml:"platform"`

	Android Android `yaml:"android"`
	IOS     IOS     `yaml:"ios"`
	App     App     `yaml:"app"`
	Hooks   Hooks   `yaml:"hooks"`
	Diag    Diag    `yaml:"diagnostics"`

	// Output directory for logs, bundles and run summaries.
	Output string `yaml:"output"`

	// Appium/WebDriver endpoint of the automation driver.
	DriverURL string `yaml:"driverUrl"`
}

// Android configures the emulator lifecycle.
type Android struct {
	AVD                  string `yaml:"avd"`                  // AVD profile name
	Port                 int    `yaml:"port"`                 // console port (even), default 5554
	Headless             bool   `yaml:"headless"`             // -no-window
	ColdBoot             bool   `yaml:"coldBoot"`             // -no-snapshot-load
	NoSnapshot           bool   `yaml:"noSnapshot"`           // -no-snapshot
	BootTimeoutMs        int    `yaml:"bootTimeoutMs"`        // default 240000
	KillOnComplete       *bool  `yaml:"killOnComplete"`       // default true (emulators are disposable)
	StartRetries         int    `yaml:"startRetries"`         // default 2
	StartBackoffMs       int    `yaml:"startBackoffMs"`       // linear backoff base, default 1500
	HealthRetries        int    `yaml:"healthRetries"`        // default 3
	HealthIntervalMs     int    `yaml:"healthIntervalMs"`     // default 1500
	ColdRestartOnFailure *bool  `yaml:"coldRestartOnFailure"` // default true
}

// IOS configures the simulator lifecycle.
type IOS struct {
	UDID           string `yaml:"udid"`           // explicit simulator UDID
	DeviceName     string `yaml:"deviceName"`     // lookup by name when UDID is empty
	Headless       bool   `yaml:"headless"`       // skip opening the Simulator UI
	BootTimeoutMs  int    `yaml:"bootTimeoutMs"`  // default 120000
	KillOnComplete *bool  `yaml:"killOnComplete"` // default false (simulators are long-lived)
}

// App identifies the application under test. Set once per session and
// passed explicitly; there is no process-global cache.
type App struct {
	Package  string `yaml:"package"`  // Android application package
	Activity string `yaml:"activity"` // Android launch activity
	BundleID string `yaml:"bundleId"` // iOS bundle identifier
}

// Hooks names user JS files evaluated around lifecycle phases.
type Hooks struct {
	OnPrepare     string `yaml:"onPrepare"`
	BeforeSession string `yaml:"beforeSession"`
	OnComplete    string `yaml:"onComplete"`
}

// Diag configures the diagnostics collector.
type Diag struct {
	MaxTreeChars   int  `yaml:"maxTreeChars"`   // UI-tree truncation cap, default 250000
	RawPermissions bool `yaml:"rawPermissions"` // retain the raw Android permission dump
}

// Load loads configuration from a file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// LoadFromDir looks for config.yaml or config.yml in the directory.
// A missing file yields a default config, not an error.
func LoadFromDir(dir string) (*Config, error) {
	for _, name := range []string{"config.yaml", "config.yml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults fills zero values with the documented defaults.
func (c *Config) ApplyDefaults() {
	if c.Android.Port == 0 {
		c.Android.Port = DefaultEmulatorPort
	}
	if c.Android.BootTimeoutMs == 0 {
		c.Android.BootTimeoutMs = DefaultAndroidBootTimeout
	}
	if c.Android.StartRetries == 0 {
		c.Android.StartRetries = DefaultStartRetries
	}
	if c.Android.StartBackoffMs == 0 {
		c.Android.StartBackoffMs = DefaultStartBackoffMs
	}
	if c.Android.HealthRetries == 0 {
		c.Android.HealthRetries = DefaultHealthRetries
	}
	if c.Android.HealthIntervalMs == 0 {
		c.Android.HealthIntervalMs = DefaultHealthIntervalMs
	}
	if c.Android.KillOnComplete == nil {
		c.Android.KillOnComplete = boolPtr(true)
	}
	if c.Android.ColdRestartOnFailure == nil {
		c.Android.ColdRestartOnFailure = boolPtr(true)
	}
	if c.IOS.BootTimeoutMs == 0 {
		c.IOS.BootTimeoutMs = DefaultIOSBootTimeout
	}
	if c.IOS.KillOnComplete == nil {
		c.IOS.KillOnComplete = boolPtr(false)
	}
	if c.Diag.MaxTreeChars == 0 {
		c.Diag.MaxTreeChars = DefaultMaxTreeChars
	}
	if c.DriverURL == "" {
		c.DriverURL = "http://127.0.0.1:4723"
	}
}

// BootTimeout returns the Android boot deadline as a duration.
func (a Android) BootTimeout() time.Duration {
	return time.Duration(a.BootTimeoutMs) * time.Millisecond
}

// StartBackoff returns the backoff delay before retry attempt n (1-based).
// Linear: base × n.
func (a Android) StartBackoff(attempt int) time.Duration {
	return time.Duration(a.StartBackoffMs*attempt) * time.Millisecond
}

// HealthInterval returns the pause between health-check retries.
func (a Android) HealthInterval() time.Duration {
	return time.Duration(a.HealthIntervalMs) * time.Millisecond
}

// Serial returns the emulator serial derived from the console port.
func (a Android) Serial() string {
	return fmt.Sprintf("emulator-%d", a.Port)
}

// BootTimeout returns the simulator boot deadline as a duration.
func (i IOS) BootTimeout() time.Duration {
	return time.Duration(i.BootTimeoutMs) * time.Millisecond
}

func boolPtr(b bool) *bool { return &b }

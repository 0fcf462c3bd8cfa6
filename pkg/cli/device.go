package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/device-harness/pkg/adb"
	"github.com/devicelab-dev/device-harness/pkg/config"
	"github.com/devicelab-dev/device-harness/pkg/emulator"
	"github.com/devicelab-dev/device-harness/pkg/simctl"
	"github.com/devicelab-dev/device-harness/pkg/simulator"
)

var deviceCommand = &cli.Command{
	Name:  "device",
	Usage: "Manage the emulator or simulator lifecycle",
	Subcommands: []*cli.Command{
		deviceUpCommand,
		deviceDownCommand,
		deviceStatusCommand,
	},
}

var deviceUpCommand = &cli.Command{
	Name:  "up",
	Usage: "Bring the configured device up and verify its health",
	Description: `Start the emulator or simulator named in the configuration and wait
until it answers the health probes. A healthy running instance is
adopted as-is, an unhealthy one is restarted.

Examples:
  device-harness device up
  device-harness -p ios device up`,
	Action: runDeviceUp,
}

var deviceDownCommand = &cli.Command{
	Name:  "down",
	Usage: "Shut the configured device down",
	Description: `Stop the emulator or simulator named in the configuration, whether or
not this process started it.

Examples:
  device-harness device down
  device-harness -p ios device down`,
	Action: runDeviceDown,
}

var deviceStatusCommand = &cli.Command{
	Name:  "status",
	Usage: "Report the health of the configured device",
	Description: `Probe the configured device and report its state. Exits non-zero when
the device is missing or unhealthy, so scripts can gate on it.

Examples:
  device-harness device status
  device-harness -p ios device status`,
	Action: runDeviceStatus,
}

func runDeviceUp(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := ensureValid(cfg); err != nil {
		return err
	}
	closeLog := initLogging(cfg)
	defer closeLog()

	runner := newRunner()

	if isIOS(cfg) {
		mgr := simulator.NewManager(simctl.New(runner), cfg.IOS)
		if err := mgr.EnsureReady(); err != nil {
			return err
		}
		if mgr.Skipped() {
			fmt.Println("Simulator lifecycle skipped: not a macOS host")
			return nil
		}
		fmt.Printf("%s✓%s Simulator ready: %s (%s)\n",
			color(colorGreen), color(colorReset), mgr.Name(), mgr.UDID())
		return nil
	}

	mgr := emulator.NewManager(adb.New(runner), runner, cfg.Android)
	if err := mgr.EnsureReady(); err != nil {
		return err
	}
	fmt.Printf("%s✓%s Emulator ready: %s (%s)\n",
		color(colorGreen), color(colorReset), mgr.Serial(), cfg.Android.AVD)
	return nil
}

func runDeviceDown(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	closeLog := initLogging(cfg)
	defer closeLog()

	runner := newRunner()

	if isIOS(cfg) {
		sim := simctl.New(runner)
		udid, err := resolveUDID(sim, cfg)
		if err != nil {
			return err
		}
		if err := sim.Shutdown(udid); err != nil {
			return fmt.Errorf("failed to shut down simulator %s: %w", udid, err)
		}
		fmt.Printf("%s✓%s Simulator stopped: %s\n", color(colorGreen), color(colorReset), udid)
		return nil
	}

	serial := cfg.Android.Serial()
	if err := adb.New(runner).EmuKill(serial); err != nil {
		return fmt.Errorf("failed to stop emulator %s: %w", serial, err)
	}
	fmt.Printf("%s✓%s Emulator stopped: %s\n", color(colorGreen), color(colorReset), serial)
	return nil
}

func runDeviceStatus(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	closeLog := initLogging(cfg)
	defer closeLog()

	runner := newRunner()

	if isIOS(cfg) {
		device, err := findSimulator(simctl.New(runner), cfg)
		if err != nil {
			return err
		}
		if device.State == "Booted" {
			fmt.Printf("%s●%s %s (%s) Booted\n",
				color(colorGreen), color(colorReset), device.Name, device.UDID)
			return nil
		}
		fmt.Printf("%s●%s %s (%s) %s\n",
			color(colorYellow), color(colorReset), device.Name, device.UDID, device.State)
		return fmt.Errorf("simulator %s is not booted", device.UDID)
	}

	serial := cfg.Android.Serial()
	a := adb.New(runner)
	mgr := emulator.NewManager(a, runner, cfg.Android)
	if mgr.Healthy(serial) {
		if info, err := a.Info(serial); err == nil {
			fmt.Printf("%s●%s %s healthy (%s, Android %s)\n",
				color(colorGreen), color(colorReset), serial, info.Model, info.OSVersion)
		} else {
			fmt.Printf("%s●%s %s healthy\n", color(colorGreen), color(colorReset), serial)
		}
		return nil
	}
	fmt.Printf("%s●%s %s unhealthy or not running\n", color(colorRed), color(colorReset), serial)
	return fmt.Errorf("emulator %s failed the health probes", serial)
}

// resolveUDID returns the explicit UDID or resolves the configured
// device name to one.
func resolveUDID(sim *simctl.Simctl, cfg *config.Config) (string, error) {
	if cfg.IOS.UDID != "" {
		return cfg.IOS.UDID, nil
	}
	device, err := findSimulator(sim, cfg)
	if err != nil {
		return "", err
	}
	return device.UDID, nil
}

func findSimulator(sim *simctl.Simctl, cfg *config.Config) (*simctl.Device, error) {
	if cfg.IOS.UDID != "" {
		return sim.Find(cfg.IOS.UDID)
	}
	if cfg.IOS.DeviceName != "" {
		return sim.FindByName(cfg.IOS.DeviceName)
	}
	return nil, fmt.Errorf("the ios configuration needs a udid or deviceName")
}

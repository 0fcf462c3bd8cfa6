package cli

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/device-harness/pkg/config"
	"github.com/devicelab-dev/device-harness/pkg/shell"
)

const listedDevices = "List of devices attached\nemulator-5554\tdevice\n"

const bootedSimListing = `{"devices":{"com.apple.CoreSimulator.SimRuntime.iOS-17-0":[` +
	`{"udid":"AAAA-1111","name":"iPhone 15","state":"Booted","isAvailable":true}]}}`

// scriptHealthyDevice registers the responses a listed, fully booted
// emulator answers the probes with, plus the teardown kill.
func scriptHealthyDevice(script *shell.Script) {
	script.
		On("adb devices", shell.Response{Out: listedDevices}).
		On("adb -s emulator-5554 get-state", shell.Response{Out: "device\n"}).
		On("adb -s emulator-5554 shell getprop ro.build.version.release", shell.Response{Out: "14\n"}).
		On("adb -s emulator-5554 shell getprop sys.boot_completed", shell.Response{Out: "1\n"}).
		On("adb -s emulator-5554 shell getprop dev.bootcomplete", shell.Response{Out: "1\n"}).
		On("adb -s emulator-5554 shell pm path android", shell.Response{Out: "package:/system/framework/framework-res.apk\n"}).
		On("adb -s emulator-5554 shell getprop ro.product.model", shell.Response{Out: "sdk_gphone64_x86_64\n"}).
		On("adb -s emulator-5554 shell getprop ro.product.brand", shell.Response{Out: "google\n"}).
		On("adb -s emulator-5554 shell getprop ro.build.version.sdk", shell.Response{Out: "34\n"}).
		On("adb -s emulator-5554 shell getprop ro.kernel.qemu", shell.Response{Out: "1\n"}).
		On("adb -s emulator-5554 emu kill", shell.Response{})
}

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

// androidYAML writes a minimal android config pointing output at a
// temp dir, and returns both paths.
func androidYAML(t *testing.T) (string, string) {
	t.Helper()
	output := t.TempDir()
	yaml := fmt.Sprintf(
		"platform: android\noutput: %s\nandroid:\n  avd: Pixel_7\napp:\n  package: com.example.app\n",
		output)
	return writeConfig(t, yaml), output
}

func newTestApp(cmd *cli.Command) *cli.App {
	return &cli.App{
		Name:     "device-harness",
		Flags:    GlobalFlags,
		Commands: []*cli.Command{cmd},
	}
}

// newDriverStub fakes the WebDriver endpoints a diagnose run touches.
func newDriverStub() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/session" && r.Method == http.MethodPost:
			fmt.Fprint(w, `{"value":{"sessionId":"sess-1","capabilities":{"platformName":"Android"}}}`)
		case r.URL.Path == "/session/sess-1" && r.Method == http.MethodDelete:
			fmt.Fprint(w, `{"value":null}`)
		case r.URL.Path == "/session/sess-1/window/rect":
			fmt.Fprint(w, `{"value":{"x":0,"y":0,"width":1080,"height":1920}}`)
		case r.URL.Path == "/session/sess-1/appium/settings":
			fmt.Fprint(w, `{"value":null}`)
		case r.URL.Path == "/session/sess-1/context":
			fmt.Fprint(w, `{"value":"NATIVE_APP"}`)
		case r.URL.Path == "/session/sess-1/contexts":
			fmt.Fprint(w, `{"value":["NATIVE_APP"]}`)
		case r.URL.Path == "/session/sess-1/source":
			fmt.Fprint(w, `{"value":"<hierarchy/>"}`)
		case r.URL.Path == "/session/sess-1/se/log":
			fmt.Fprint(w, `{"value":[]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestGlobalFlags(t *testing.T) {
	flagNames := make(map[string]bool)
	for _, f := range GlobalFlags {
		for _, name := range f.Names() {
			flagNames[name] = true
		}
	}

	for _, name := range []string{"config", "platform", "p", "output", "driver-url", "verbose"} {
		if !flagNames[name] {
			t.Errorf("expected flag %q to be defined", name)
		}
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	var cfg *config.Config
	app := &cli.App{
		Flags: GlobalFlags,
		Action: func(c *cli.Context) error {
			var err error
			cfg, err = loadConfig(c)
			return err
		},
	}

	if err := app.Run([]string{"device-harness"}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if cfg.Platform != "android" {
		t.Errorf("Expected default platform android, got %q", cfg.Platform)
	}
	if cfg.Output != "reports" {
		t.Errorf("Expected default output reports, got %q", cfg.Output)
	}
	if cfg.DriverURL != "http://127.0.0.1:4723" {
		t.Errorf("Expected default driver URL, got %q", cfg.DriverURL)
	}
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	cfgPath := writeConfig(t, "platform: android\noutput: from-file\ndriverUrl: http://file:1\n")

	var cfg *config.Config
	app := &cli.App{
		Flags: GlobalFlags,
		Action: func(c *cli.Context) error {
			var err error
			cfg, err = loadConfig(c)
			return err
		},
	}

	err := app.Run([]string{
		"device-harness",
		"--config", cfgPath,
		"-p", "ios",
		"-o", "from-flag",
		"--driver-url", "http://flag:2",
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if cfg.Platform != "ios" {
		t.Errorf("Expected flag to override platform, got %q", cfg.Platform)
	}
	if cfg.Output != "from-flag" {
		t.Errorf("Expected flag to override output, got %q", cfg.Output)
	}
	if cfg.DriverURL != "http://flag:2" {
		t.Errorf("Expected flag to override driver URL, got %q", cfg.DriverURL)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	app := &cli.App{
		Flags: GlobalFlags,
		Action: func(c *cli.Context) error {
			_, err := loadConfig(c)
			return err
		},
	}

	err := app.Run([]string{"device-harness", "--config", "/nonexistent/config.yaml"})
	if err == nil {
		t.Fatal("Expected an explicit config path that does not exist to fail")
	}
}

func TestDeviceUp_AndroidHealthy(t *testing.T) {
	script := shell.NewScript()
	scriptHealthyDevice(script)
	orig := newRunner
	newRunner = func() shell.Runner { return script }
	defer func() { newRunner = orig }()

	cfgPath, _ := androidYAML(t)

	app := newTestApp(deviceCommand)
	if err := app.Run([]string{"device-harness", "--config", cfgPath, "device", "up"}); err != nil {
		t.Fatalf("device up failed: %v", err)
	}

	if n := script.CallCount("emulator -avd"); n != 0 {
		t.Errorf("Expected a healthy device to boot nothing, got %d boots", n)
	}
	if n := script.CallCount("adb devices"); n != 2 {
		t.Errorf("Expected two listing calls, got %d", n)
	}
}

func TestDeviceUp_IOSBootedListing(t *testing.T) {
	script := shell.NewScript().
		On("xcrun simctl list devices available -j", shell.Response{Out: bootedSimListing})
	orig := newRunner
	newRunner = func() shell.Runner { return script }
	defer func() { newRunner = orig }()

	output := t.TempDir()
	cfgPath := writeConfig(t, fmt.Sprintf(
		"platform: ios\noutput: %s\nios:\n  udid: AAAA-1111\n  headless: true\n", output))

	app := newTestApp(deviceCommand)
	if err := app.Run([]string{"device-harness", "--config", cfgPath, "device", "up"}); err != nil {
		t.Fatalf("device up failed: %v", err)
	}

	// Adopted on macOS, skipped elsewhere; either way nothing boots.
	if n := script.CallCount("xcrun simctl boot"); n != 0 {
		t.Errorf("Expected no boot, got %d", n)
	}
}

func TestDeviceDown_Android(t *testing.T) {
	script := shell.NewScript().
		On("adb -s emulator-5554 emu kill", shell.Response{})
	orig := newRunner
	newRunner = func() shell.Runner { return script }
	defer func() { newRunner = orig }()

	cfgPath, _ := androidYAML(t)

	app := newTestApp(deviceCommand)
	if err := app.Run([]string{"device-harness", "--config", cfgPath, "device", "down"}); err != nil {
		t.Fatalf("device down failed: %v", err)
	}

	if n := script.CallCount("adb -s emulator-5554 emu kill"); n != 1 {
		t.Errorf("Expected exactly one kill, got %d", n)
	}
}

func TestDeviceStatus_Healthy(t *testing.T) {
	script := shell.NewScript()
	scriptHealthyDevice(script)
	orig := newRunner
	newRunner = func() shell.Runner { return script }
	defer func() { newRunner = orig }()

	cfgPath, _ := androidYAML(t)

	app := newTestApp(deviceCommand)
	if err := app.Run([]string{"device-harness", "--config", cfgPath, "device", "status"}); err != nil {
		t.Fatalf("device status failed: %v", err)
	}
}

func TestDeviceStatus_Unhealthy(t *testing.T) {
	script := shell.NewScript().
		On("adb devices", shell.Response{Out: "List of devices attached\n"})
	orig := newRunner
	newRunner = func() shell.Runner { return script }
	defer func() { newRunner = orig }()

	cfgPath, _ := androidYAML(t)

	app := newTestApp(deviceCommand)
	err := app.Run([]string{"device-harness", "--config", cfgPath, "device", "status"})
	if err == nil {
		t.Fatal("Expected status to fail for an unlisted device")
	}
}

func TestDiagnose_WritesBundle(t *testing.T) {
	server := newDriverStub()
	defer server.Close()

	script := shell.NewScript().
		On("adb -s emulator-5554 shell dumpsys package com.example.app",
			shell.Response{Out: "    android.permission.CAMERA: granted=true\n"})
	scriptHealthyDevice(script)
	orig := newRunner
	newRunner = func() shell.Runner { return script }
	defer func() { newRunner = orig }()

	cfgPath, output := androidYAML(t)

	app := newTestApp(diagnoseCommand)
	err := app.Run([]string{"device-harness", "--config", cfgPath, "--driver-url", server.URL, "diagnose"})
	if err != nil {
		t.Fatalf("diagnose failed: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(output, "diagnostics"))
	if err != nil || len(entries) != 1 {
		t.Fatalf("Expected one bundle file, got %d (err=%v)", len(entries), err)
	}
	if _, err := os.Stat(filepath.Join(output, "run.json")); err != nil {
		t.Errorf("Expected a run summary: %v", err)
	}
	if n := script.CallCount("adb -s emulator-5554 emu kill"); n != 1 {
		t.Errorf("Expected the emulator to be torn down, got %d kills", n)
	}
}

func TestDiagnose_KeepSession(t *testing.T) {
	server := newDriverStub()
	defer server.Close()

	script := shell.NewScript().
		On("adb -s emulator-5554 shell dumpsys package com.example.app",
			shell.Response{Out: "    android.permission.CAMERA: granted=true\n"})
	scriptHealthyDevice(script)
	orig := newRunner
	newRunner = func() shell.Runner { return script }
	defer func() { newRunner = orig }()

	cfgPath, _ := androidYAML(t)

	app := newTestApp(diagnoseCommand)
	err := app.Run([]string{
		"device-harness", "--config", cfgPath, "--driver-url", server.URL,
		"diagnose", "--keep-session",
	})
	if err != nil {
		t.Fatalf("diagnose failed: %v", err)
	}

	if n := script.CallCount("adb -s emulator-5554 emu kill"); n != 0 {
		t.Errorf("Expected the emulator to stay up, got %d kills", n)
	}
}

func TestValidateCommand_CleanConfig(t *testing.T) {
	cfgPath, _ := androidYAML(t)

	app := newTestApp(validateCommand)
	if err := app.Run([]string{"device-harness", "--config", cfgPath, "validate"}); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
}

func TestValidateCommand_ReportsProblems(t *testing.T) {
	cfgPath := writeConfig(t, "platform: android\nandroid:\n  port: 5555\n")

	app := newTestApp(validateCommand)
	err := app.Run([]string{"device-harness", "--config", cfgPath, "validate"})
	if err == nil {
		t.Fatal("Expected validation to fail for a config without an AVD and an odd port")
	}
	if !strings.Contains(err.Error(), "2 problem") {
		t.Errorf("Expected two problems to be counted, got %v", err)
	}
}

func TestDeviceUp_RejectsBrokenConfig(t *testing.T) {
	script := shell.NewScript()
	orig := newRunner
	newRunner = func() shell.Runner { return script }
	defer func() { newRunner = orig }()

	cfgPath := writeConfig(t, "platform: android\n")

	app := newTestApp(deviceCommand)
	err := app.Run([]string{"device-harness", "--config", cfgPath, "device", "up"})
	if err == nil {
		t.Fatal("Expected device up to refuse a config without an AVD")
	}
	if n := len(script.Calls); n != 0 {
		t.Errorf("Expected no device activity, got %d calls", n)
	}
}

func TestCheckDriver(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/status" {
			fmt.Fprint(w, `{"value":{"ready":true}}`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	var got error
	collect := func(name, detail string, err error) { got = err }

	checkDriver(server.URL, collect)
	if got != nil {
		t.Errorf("Expected a reachable driver, got %v", got)
	}

	server.Close()
	checkDriver(server.URL, collect)
	if got == nil {
		t.Error("Expected an unreachable driver to report an error")
	}
}

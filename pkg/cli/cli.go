// Package cli provides the command-line interface for device-harness.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/device-harness/pkg/config"
	"github.com/devicelab-dev/device-harness/pkg/logger"
	"github.com/devicelab-dev/device-harness/pkg/shell"
)

// Version is set at build time.
var Version = "dev"

// newRunner builds the process runner commands use; tests swap it for
// a scripted fake.
var newRunner = func() shell.Runner { return shell.NewExecRunner() }

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to config.yaml (default: ./config.yaml)",
		EnvVars: []string{"HARNESS_CONFIG"},
	},
	&cli.StringFlag{
		Name:    "platform",
		Aliases: []string{"p"},
		Usage:   "Target platform (android, ios)",
		EnvVars: []string{"HARNESS_PLATFORM"},
	},
	&cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Output directory for logs, bundles and run summaries",
		EnvVars: []string{"HARNESS_OUTPUT"},
	},
	&cli.StringFlag{
		Name:    "driver-url",
		Usage:   "WebDriver endpoint of the automation driver",
		EnvVars: []string{"HARNESS_DRIVER_URL"},
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Echo the harness log to stderr",
		EnvVars: []string{"HARNESS_VERBOSE"},
	},
	&cli.BoolFlag{
		Name:  "no-ansi",
		Usage: "Disable ANSI colors",
	},
}

// Execute runs the CLI.
func Execute() {
	app := &cli.App{
		Name:    "device-harness",
		Usage:   "Device lifecycle and diagnostics for mobile test runs",
		Version: Version,
		Description: `Device Harness brings Android emulators and iOS simulators up for
automated test runs, verifies their health, opens driver sessions and
captures diagnostics bundles.

Examples:
  device-harness device up
  device-harness -p ios device status
  device-harness diagnose --keep-session
  device-harness validate
  device-harness doctor`,
		Flags: GlobalFlags,
		Before: func(c *cli.Context) error {
			if c.Bool("no-ansi") {
				colorsEnabled = false
			}
			logger.Verbose(c.Bool("verbose"))
			return nil
		},
		Commands: []*cli.Command{
			deviceCommand,
			diagnoseCommand,
			validateCommand,
			doctorCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the workspace configuration and applies the global
// flag overrides on top.
func loadConfig(c *cli.Context) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if path := c.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadFromDir(".")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if v := c.String("platform"); v != "" {
		cfg.Platform = v
	}
	if v := c.String("output"); v != "" {
		cfg.Output = v
	}
	if v := c.String("driver-url"); v != "" {
		cfg.DriverURL = v
	}

	if cfg.Platform == "" {
		cfg.Platform = "android"
	}
	if cfg.Output == "" {
		cfg.Output = "reports"
	}
	return cfg, nil
}

// initLogging prepares the output directory and the file log inside
// it. Logging problems are warnings; commands still run without a log.
func initLogging(cfg *config.Config) func() {
	if err := os.MkdirAll(cfg.Output, 0o755); err != nil {
		fmt.Printf("Warning: Failed to create output directory: %v\n", err)
	}
	if err := logger.Init(filepath.Join(cfg.Output, "device-harness.log")); err != nil {
		fmt.Printf("Warning: Failed to initialize logger: %v\n", err)
	}
	return logger.Close
}

func isIOS(cfg *config.Config) bool {
	return strings.EqualFold(cfg.Platform, "ios")
}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
)

// colorsEnabled determines if ANSI colors should be used
var colorsEnabled = true

func init() {
	// Respect NO_COLOR environment variable
	if os.Getenv("NO_COLOR") != "" {
		colorsEnabled = false
		return
	}
	// Check if stdout is a terminal
	if fileInfo, err := os.Stdout.Stat(); err == nil {
		if (fileInfo.Mode() & os.ModeCharDevice) == 0 {
			colorsEnabled = false
		}
	}
}

// color returns the color code if colors are enabled, empty string otherwise
func color(c string) string {
	if colorsEnabled {
		return c
	}
	return ""
}

package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/device-harness/pkg/lifecycle"
)

var diagnoseCommand = &cli.Command{
	Name:  "diagnose",
	Usage: "Capture a diagnostics bundle from the device",
	Description: `Bring the configured device up, open a driver session and collect a
diagnostics bundle: app identity, contexts, window geometry, the UI
tree, device logs and the permission state. The bundle is written under
the output directory; probes that fail leave notes instead of aborting.

Examples:
  device-harness diagnose
  device-harness -p ios diagnose
  device-harness diagnose --keep-session`,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "keep-session",
			Usage: "Leave the device running after collecting",
		},
	},
	Action: runDiagnose,
}

func runDiagnose(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := ensureValid(cfg); err != nil {
		return err
	}
	closeLog := initLogging(cfg)
	defer closeLog()

	if c.Bool("keep-session") {
		kill := false
		cfg.Android.KillOnComplete = &kill
		cfg.IOS.KillOnComplete = &kill
	}

	m := lifecycle.New(cfg, newRunner())

	// Tear down on Ctrl+C so the driver session never leaks.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(os.Stderr, "\nReceived %v, cleaning up...\n", sig)
		m.OnComplete()
		os.Exit(1)
	}()
	defer signal.Stop(sigCh)

	if err := m.OnPrepare(); err != nil {
		m.OnComplete()
		return err
	}
	if err := m.BeforeSession(); err != nil {
		m.OnComplete()
		return err
	}

	bundle, path, err := m.Collect()
	m.OnComplete()
	if err != nil {
		return err
	}

	fmt.Printf("%s✓%s Diagnostics bundle: %s\n", color(colorGreen), color(colorReset), path)
	fmt.Printf("  Session %s on %s (%s)\n", bundle.SessionID, bundle.DeviceID, bundle.Platform)
	if len(bundle.Permissions) > 0 {
		fmt.Printf("  Permissions captured: %d\n", len(bundle.Permissions))
	}
	for _, note := range bundle.Notes {
		fmt.Printf("  %s!%s %s\n", color(colorYellow), color(colorReset), note)
	}
	return nil
}

package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/device-harness/pkg/config"
	"github.com/devicelab-dev/device-harness/pkg/validator"
)

var validateCommand = &cli.Command{
	Name:  "validate",
	Usage: "Check the configuration without touching any device",
	Description: `Check the platform settings, hook scripts and driver endpoint and
report every problem found. Nothing is booted.

Examples:
  device-harness validate
  device-harness -c staging.yaml validate`,
	Action: runValidate,
}

func runValidate(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := ensureValid(cfg); err != nil {
		return err
	}
	fmt.Printf("%s✓%s Configuration is valid\n", color(colorGreen), color(colorReset))
	return nil
}

// ensureValid prints every configuration problem and fails when any
// were found.
func ensureValid(cfg *config.Config) error {
	result := validator.Validate(cfg)
	if result.IsValid() {
		return nil
	}
	for _, err := range result.Errors {
		fmt.Printf("%s✗%s %v\n", color(colorRed), color(colorReset), err)
	}
	return fmt.Errorf("configuration has %d problem(s)", len(result.Errors))
}

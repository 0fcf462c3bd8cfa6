package cli

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/device-harness/pkg/adb"
	"github.com/devicelab-dev/device-harness/pkg/emulator"
	"github.com/devicelab-dev/device-harness/pkg/simctl"
)

var doctorCommand = &cli.Command{
	Name:  "doctor",
	Usage: "Check that the required tooling is available",
	Description: `Verify the platform tooling the harness shells out to and probe the
automation driver endpoint. Exits non-zero when something is missing.

Examples:
  device-harness doctor
  device-harness -p ios doctor`,
	Action: runDoctor,
}

func runDoctor(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ok := true
	check := func(name, detail string, err error) {
		if err != nil {
			ok = false
			fmt.Printf("%s✗%s %-10s %v\n", color(colorRed), color(colorReset), name, err)
			return
		}
		fmt.Printf("%s✓%s %-10s %s\n", color(colorGreen), color(colorReset), name, detail)
	}

	if isIOS(cfg) {
		path, err := simctl.FindXcrun()
		check("xcrun", path, err)
	} else {
		path, err := adb.FindADB()
		check("adb", path, err)

		path, err = emulator.FindEmulatorBinary()
		check("emulator", path, err)
	}

	checkDriver(cfg.DriverURL, check)

	if !ok {
		return fmt.Errorf("required tooling is missing")
	}
	return nil
}

// checkDriver probes the WebDriver status endpoint.
func checkDriver(url string, check func(name, detail string, err error)) {
	client := &http.Client{Timeout: 3 * time.Second}

	resp, err := client.Get(strings.TrimRight(url, "/") + "/status")
	if err != nil {
		check("driver", "", fmt.Errorf("not reachable at %s", url))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		check("driver", "", fmt.Errorf("%s answered %d", url, resp.StatusCode))
		return
	}
	check("driver", url, nil)
}

package simulator

import (
	"time"

	"github.com/devicelab-dev/device-harness/pkg/config"
	"github.com/devicelab-dev/device-harness/pkg/core"
	"github.com/devicelab-dev/device-harness/pkg/simctl"
)

// Manager owns at most one simulator instance per process. Like the
// emulator manager it is the single writer of the tracked identifier,
// so no locking is needed.
type Manager struct {
	sim *simctl.Simctl
	cfg config.IOS

	goos string // host OS, overridable in tests

	udid    string
	name    string
	started bool
	skipped bool
	state   core.DeviceState

	// Poll tuning, overridable in tests.
	bootPoll time.Duration
}

package emulator

import (
	"time"

	"github.com/devicelab-dev/device-harness/pkg/adb"
	"github.com/devicelab-dev/device-harness/pkg/config"
	"github.com/devicelab-dev/device-harness/pkg/core"
	"github.com/devicelab-dev/device-harness/pkg/shell"
)

// Manager owns exactly one emulator instance per process. It is the
// single writer of the tracked serial; there are no concurrent callers
// within a worker, so no locking is needed.
type Manager struct {
	adb    *adb.ADB
	runner shell.Runner
	cfg    config.Android

	emulatorPath string
	serial       string
	started      bool
	state        core.DeviceState

	// Poll tuning, overridable in tests.
	listPoll    time.Duration // listing poll while waiting for the serial
	bootPoll    time.Duration // boot-completion poll
	propPause   time.Duration // pause before the boot-prop recheck in Healthy
	minBootWait time.Duration // floor for the boot-completion wait
}

// BootStatus represents emulator boot state.
type BootStatus struct {
	StateReady      bool // adb get-state == "device"
	SysBootComplete bool // sys.boot_completed == "1"
	DevBootComplete bool // dev.bootcomplete == "1"
	PackageManager  bool // pm path android resolves
}

// IsFullyReady returns true if all boot checks passed.
func (bs *BootStatus) IsFullyReady() bool {
	return bs.StateReady && bs.SysBootComplete && bs.DevBootComplete && bs.PackageManager
}

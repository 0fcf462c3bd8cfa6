// Package mock provides a mock automation driver for testing without a
// real device or Appium server.
package mock

import (
	"fmt"
	"strings"
	"sync"

	"github.com/devicelab-dev/device-harness/pkg/core"
	"github.com/devicelab-dev/device-harness/pkg/locator"
)

var _ core.Automation = (*Driver)(nil)

// Driver is a mock implementation of core.Automation. Canned responses
// are exported fields; every invocation is recorded in Calls.
type Driver struct {
	mu sync.Mutex

	// Canned responses
	PlatformName  locator.Platform
	SourceXML     string
	ContextList   []string
	Context       string
	Window        core.Rect
	ElementID     string
	Clipboard     string
	Location      core.Geolocation
	Recording     []byte
	LogEntries    map[string][]core.LogEntry
	MobileResults map[string]interface{}

	// FailOn injects an error for the named operation (method name).
	FailOn map[string]error

	// Recorded state
	Calls   []string
	Actions [][]core.PointerAction
	Files   map[string][]byte
}

// New creates a mock driver with usable defaults.
func New() *Driver {
	return &Driver{
		PlatformName: locator.Android,
		SourceXML:    `<hierarchy><node text="Mock Element"/></hierarchy>`,
		ContextList:  []string{"NATIVE_APP"},
		Context:      "NATIVE_APP",
		Window:       core.Rect{Width: 1080, Height: 1920},
		ElementID:    "mock-element",
		Recording:    []byte("mock-recording"),
		Files:        make(map[string][]byte),
	}
}

func (d *Driver) record(format string, v ...interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Calls = append(d.Calls, fmt.Sprintf(format, v...))
}

func (d *Driver) fail(op string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.FailOn[op]
}

// CallCount returns how many recorded invocations start with prefix.
func (d *Driver) CallCount(prefix string) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := 0
	for _, c := range d.Calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// ExecuteMobile records the command and replays a canned result.
func (d *Driver) ExecuteMobile(command string, args map[string]interface{}) (interface{}, error) {
	d.record("ExecuteMobile %s %v", command, args)
	if err := d.fail("ExecuteMobile"); err != nil {
		return nil, err
	}
	if err := d.fail("ExecuteMobile:" + command); err != nil {
		return nil, err
	}
	return d.MobileResults[command], nil
}

// Contexts returns the canned context list.
func (d *Driver) Contexts() ([]string, error) {
	d.record("Contexts")
	if err := d.fail("Contexts"); err != nil {
		return nil, err
	}
	return d.ContextList, nil
}

// CurrentContext returns the canned active context.
func (d *Driver) CurrentContext() (string, error) {
	d.record("CurrentContext")
	if err := d.fail("CurrentContext"); err != nil {
		return "", err
	}
	return d.Context, nil
}

// SwitchContext updates the active context.
func (d *Driver) SwitchContext(name string) error {
	d.record("SwitchContext %s", name)
	if err := d.fail("SwitchContext"); err != nil {
		return err
	}
	d.Context = name
	return nil
}

// WindowRect returns the canned window geometry.
func (d *Driver) WindowRect() (core.Rect, error) {
	d.record("WindowRect")
	if err := d.fail("WindowRect"); err != nil {
		return core.Rect{}, err
	}
	return d.Window, nil
}

// SetWindowRect updates the window geometry.
func (d *Driver) SetWindowRect(r core.Rect) error {
	d.record("SetWindowRect %dx%d", r.Width, r.Height)
	if err := d.fail("SetWindowRect"); err != nil {
		return err
	}
	d.Window = r
	return nil
}

// Source returns the canned UI tree.
func (d *Driver) Source() (string, error) {
	d.record("Source")
	if err := d.fail("Source"); err != nil {
		return "", err
	}
	return d.SourceXML, nil
}

// FindElement returns the canned element reference.
func (d *Driver) FindElement(using, value string) (string, error) {
	d.record("FindElement %s %s", using, value)
	if err := d.fail("FindElement"); err != nil {
		return "", err
	}
	return d.ElementID, nil
}

// PerformActions records the pointer sequence.
func (d *Driver) PerformActions(actions []core.PointerAction) error {
	d.record("PerformActions %d", len(actions))
	if err := d.fail("PerformActions"); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Actions = append(d.Actions, actions)
	return nil
}

// ReleaseActions records the release.
func (d *Driver) ReleaseActions() error {
	d.record("ReleaseActions")
	return d.fail("ReleaseActions")
}

// PushFile stores the file in memory.
func (d *Driver) PushFile(devicePath string, data []byte) error {
	d.record("PushFile %s", devicePath)
	if err := d.fail("PushFile"); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Files[devicePath] = data
	return nil
}

// PullFile reads a previously pushed file.
func (d *Driver) PullFile(devicePath string) ([]byte, error) {
	d.record("PullFile %s", devicePath)
	if err := d.fail("PullFile"); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	data, ok := d.Files[devicePath]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", devicePath)
	}
	return data, nil
}

// GetClipboard returns the canned clipboard text.
func (d *Driver) GetClipboard() (string, error) {
	d.record("GetClipboard")
	if err := d.fail("GetClipboard"); err != nil {
		return "", err
	}
	return d.Clipboard, nil
}

// SetClipboard updates the clipboard text.
func (d *Driver) SetClipboard(text string) error {
	d.record("SetClipboard")
	if err := d.fail("SetClipboard"); err != nil {
		return err
	}
	d.Clipboard = text
	return nil
}

// GetGeolocation returns the canned location.
func (d *Driver) GetGeolocation() (core.Geolocation, error) {
	d.record("GetGeolocation")
	if err := d.fail("GetGeolocation"); err != nil {
		return core.Geolocation{}, err
	}
	return d.Location, nil
}

// SetGeolocation updates the location.
func (d *Driver) SetGeolocation(loc core.Geolocation) error {
	d.record("SetGeolocation %.4f %.4f", loc.Latitude, loc.Longitude)
	if err := d.fail("SetGeolocation"); err != nil {
		return err
	}
	d.Location = loc
	return nil
}

// StartRecording records the start.
func (d *Driver) StartRecording() error {
	d.record("StartRecording")
	return d.fail("StartRecording")
}

// StopRecording returns the canned video bytes.
func (d *Driver) StopRecording() ([]byte, error) {
	d.record("StopRecording")
	if err := d.fail("StopRecording"); err != nil {
		return nil, err
	}
	return d.Recording, nil
}

// Log returns canned entries for the channel.
func (d *Driver) Log(channel string) ([]core.LogEntry, error) {
	d.record("Log %s", channel)
	if err := d.fail("Log"); err != nil {
		return nil, err
	}
	return d.LogEntries[channel], nil
}

// Platform returns the configured platform.
func (d *Driver) Platform() locator.Platform {
	return d.PlatformName
}

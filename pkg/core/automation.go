package core

import (
	"time"

	"github.com/devicelab-dev/device-harness/pkg/locator"
)

// Automation is the seam to the device-automation driver. The harness
// treats the driver as an external collaborator providing primitive
// operations; anything session-specific beyond these primitives is out
// of scope. Implementations: appium.Client, mock.Driver.
type Automation interface {
	// ExecuteMobile executes a named remote command with a parameter
	// object and returns an arbitrary result
	ExecuteMobile(command string, args map[string]interface{}) (interface{}, error)

	// Contexts returns the available automation contexts
	Contexts() ([]string, error)

	// CurrentContext returns the active automation context
	CurrentContext() (string, error)

	// SwitchContext activates the named context
	SwitchContext(name string) error

	// WindowRect returns the window geometry
	WindowRect() (Rect, error)

	// SetWindowRect updates the window geometry
	SetWindowRect(r Rect) error

	// Source returns the UI-tree serialization
	Source() (string, error)

	// FindElement resolves a strategy pair to an element reference
	FindElement(using, value string) (string, error)

	// PerformActions runs a low-level pointer sequence
	PerformActions(actions []PointerAction) error

	// ReleaseActions releases any depressed pointers and keys
	ReleaseActions() error

	// PushFile writes a file onto the device
	PushFile(devicePath string, data []byte) error

	// PullFile reads a file from the device
	PullFile(devicePath string) ([]byte, error)

	// GetClipboard returns clipboard text
	GetClipboard() (string, error)

	// SetClipboard sets clipboard text
	SetClipboard(text string) error

	// GetGeolocation returns the simulated device location
	GetGeolocation() (Geolocation, error)

	// SetGeolocation sets the simulated device location
	SetGeolocation(loc Geolocation) error

	// StartRecording starts screen recording
	StartRecording() error

	// StopRecording stops recording and returns the video bytes
	StopRecording() ([]byte, error)

	// Log returns structured device logs for a channel (logcat, syslog, ...)
	Log(channel string) ([]LogEntry, error)

	// Platform returns the platform of the active session
	Platform() locator.Platform
}

// Rect represents window or element geometry
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Center returns the center point of the rect
func (r Rect) Center() (int, int) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Contains checks if a point is within the rect
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// PointerAction is one step of a W3C pointer sequence
type PointerAction struct {
	Type     string        // pointerMove, pointerDown, pointerUp, pause
	X        int           // move target (viewport origin)
	Y        int
	Duration time.Duration // move duration or pause length
	Button   int           // 0 = touch/left
	Origin   string        // element reference for element-relative moves, empty = viewport
}

// Pointer action types
const (
	ActionMove  = "pointerMove"
	ActionDown  = "pointerDown"
	ActionUp    = "pointerUp"
	ActionPause = "pause"
)

// MoveTo builds a viewport-relative pointer move
func MoveTo(x, y int, duration time.Duration) PointerAction {
	return PointerAction{Type: ActionMove, X: x, Y: y, Duration: duration}
}

// MoveToElement builds an element-relative pointer move
func MoveToElement(elementID string) PointerAction {
	return PointerAction{Type: ActionMove, Origin: elementID}
}

// Down builds a pointer press
func Down() PointerAction {
	return PointerAction{Type: ActionDown}
}

// Up builds a pointer release
func Up() PointerAction {
	return PointerAction{Type: ActionUp}
}

// Pause builds a pointer pause
func Pause(duration time.Duration) PointerAction {
	return PointerAction{Type: ActionPause, Duration: duration}
}

// Geolocation is a simulated device location
type Geolocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
}

// LogEntry represents a single device log line
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
}

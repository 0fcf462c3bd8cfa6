// Package backend provides the platform capability layer. A Backend is
// selected once at session setup; callers depend on the interface and
// never branch on platform per call.
package backend

import (
	"time"

	"github.com/devicelab-dev/device-harness/pkg/adb"
	"github.com/devicelab-dev/device-harness/pkg/core"
	"github.com/devicelab-dev/device-harness/pkg/locator"
	"github.com/devicelab-dev/device-harness/pkg/simctl"
)

// Session carries the per-session identifiers the backend needs:
// device (emulator serial or simulator UDID) and app (package or
// bundle id). Set once at session setup; there is no process-global
// cache.
type Session struct {
	DeviceID string
	AppID    string
}

// Backend is the platform capability contract: gesture, permission and
// network primitives plus the best-effort operations, which report
// degradation instead of failing.
type Backend interface {
	Platform() locator.Platform

	// Gesture primitives (W3C pointer sequences through the driver)
	Tap(x, y int) error
	TapElement(elementID string) error
	DoubleTap(x, y int) error
	LongPress(x, y int, duration time.Duration) error
	Swipe(startX, startY, endX, endY int, duration time.Duration) error

	// Permission primitives. Privileged: both session identifiers must
	// be resolvable or the call fails with a config error.
	GrantPermission(permission string) error
	RevokePermission(permission string) error

	// Network primitives
	SetAirplaneMode(on bool) error
	SetMobileData(on bool) error

	// Best-effort operations, degradation observable via Outcome
	Shake() core.Outcome
	SetBiometricEnrollment(enrolled bool) core.Outcome
	MatchBiometric(match bool) core.Outcome
	SetAppearance(dark bool) core.Outcome
}

// For selects the backend variant for a platform. Selection happens
// exactly once per session.
func For(platform locator.Platform, automation core.Automation, a *adb.ADB, sim *simctl.Simctl, session Session) Backend {
	if platform == locator.IOS {
		return &iosBackend{
			gestures: gestures{automation: automation},
			sim:      sim,
			session:  session,
		}
	}
	return &androidBackend{
		gestures: gestures{automation: automation},
		adb:      a,
		session:  session,
	}
}

const tapPause = 50 * time.Millisecond

// gestures implements the pointer primitives shared by both variants.
type gestures struct {
	automation core.Automation
}

// Tap performs a tap at coordinates.
func (g *gestures) Tap(x, y int) error {
	return g.automation.PerformActions([]core.PointerAction{
		core.MoveTo(x, y, 0),
		core.Down(),
		core.Pause(tapPause),
		core.Up(),
	})
}

// TapElement performs a tap on an element using element origin.
func (g *gestures) TapElement(elementID string) error {
	return g.automation.PerformActions([]core.PointerAction{
		core.MoveToElement(elementID),
		core.Down(),
		core.Pause(tapPause),
		core.Up(),
	})
}

// DoubleTap performs a double tap at coordinates.
func (g *gestures) DoubleTap(x, y int) error {
	return g.automation.PerformActions([]core.PointerAction{
		core.MoveTo(x, y, 0),
		core.Down(),
		core.Up(),
		core.Pause(100 * time.Millisecond),
		core.Down(),
		core.Up(),
	})
}

// LongPress performs a press held for duration.
func (g *gestures) LongPress(x, y int, duration time.Duration) error {
	return g.automation.PerformActions([]core.PointerAction{
		core.MoveTo(x, y, 0),
		core.Down(),
		core.Pause(duration),
		core.Up(),
	})
}

// Swipe performs a swipe gesture over duration.
func (g *gestures) Swipe(startX, startY, endX, endY int, duration time.Duration) error {
	return g.automation.PerformActions([]core.PointerAction{
		core.MoveTo(startX, startY, 0),
		core.Down(),
		core.MoveTo(endX, endY, duration),
		core.Up(),
	})
}

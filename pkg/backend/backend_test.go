package backend

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/devicelab-dev/device-harness/pkg/adb"
	"github.com/devicelab-dev/device-harness/pkg/core"
	"github.com/devicelab-dev/device-harness/pkg/driver/mock"
	"github.com/devicelab-dev/device-harness/pkg/locator"
	"github.com/devicelab-dev/device-harness/pkg/shell"
	"github.com/devicelab-dev/device-harness/pkg/simctl"
)

func androidSession() Session {
	return Session{DeviceID: "emulator-5554", AppID: "com.example.app"}
}

func iosSession() Session {
	return Session{DeviceID: "AAAA-1111", AppID: "com.example.App"}
}

func TestFor_SelectsVariantOnce(t *testing.T) {
	m := mock.New()
	script := shell.NewScript()

	android := For(locator.Android, m, adb.New(script), simctl.New(script), androidSession())
	if android.Platform() != locator.Android {
		t.Errorf("Expected android backend, got %s", android.Platform())
	}

	ios := For(locator.IOS, m, adb.New(script), simctl.New(script), iosSession())
	if ios.Platform() != locator.IOS {
		t.Errorf("Expected ios backend, got %s", ios.Platform())
	}

	// Unknown platforms get the android variant
	def := For("", m, adb.New(script), simctl.New(script), Session{})
	if def.Platform() != locator.Android {
		t.Errorf("Expected android fallback, got %s", def.Platform())
	}
}

func TestGestures_Tap(t *testing.T) {
	m := mock.New()
	b := For(locator.Android, m, adb.New(shell.NewScript()), nil, androidSession())

	if err := b.Tap(100, 200); err != nil {
		t.Fatalf("Tap failed: %v", err)
	}

	if len(m.Actions) != 1 {
		t.Fatalf("Expected one action sequence, got %d", len(m.Actions))
	}
	seq := m.Actions[0]
	if len(seq) != 4 {
		t.Fatalf("Expected 4 steps, got %d", len(seq))
	}
	if seq[0].Type != core.ActionMove || seq[0].X != 100 || seq[0].Y != 200 {
		t.Errorf("Unexpected move step: %+v", seq[0])
	}
	if seq[1].Type != core.ActionDown || seq[2].Type != core.ActionPause || seq[3].Type != core.ActionUp {
		t.Errorf("Unexpected tap sequence: %+v", seq)
	}
	if seq[2].Duration != 50*time.Millisecond {
		t.Errorf("Expected 50ms pause, got %v", seq[2].Duration)
	}
}

func TestGestures_TapElement(t *testing.T) {
	m := mock.New()
	b := For(locator.IOS, m, nil, simctl.New(shell.NewScript()), iosSession())

	if err := b.TapElement("element-42"); err != nil {
		t.Fatalf("TapElement failed: %v", err)
	}

	seq := m.Actions[0]
	if seq[0].Origin != "element-42" {
		t.Errorf("Expected element origin, got %+v", seq[0])
	}
}

func TestGestures_Swipe(t *testing.T) {
	m := mock.New()
	b := For(locator.Android, m, adb.New(shell.NewScript()), nil, androidSession())

	if err := b.Swipe(500, 1500, 500, 300, 250*time.Millisecond); err != nil {
		t.Fatalf("Swipe failed: %v", err)
	}

	seq := m.Actions[0]
	if len(seq) != 4 {
		t.Fatalf("Expected 4 steps, got %d", len(seq))
	}
	if seq[2].Type != core.ActionMove || seq[2].X != 500 || seq[2].Y != 300 {
		t.Errorf("Unexpected drag step: %+v", seq[2])
	}
	if seq[2].Duration != 250*time.Millisecond {
		t.Errorf("Expected 250ms drag, got %v", seq[2].Duration)
	}
}

func TestGestures_LongPress(t *testing.T) {
	m := mock.New()
	b := For(locator.Android, m, adb.New(shell.NewScript()), nil, androidSession())

	if err := b.LongPress(10, 20, time.Second); err != nil {
		t.Fatalf("LongPress failed: %v", err)
	}

	seq := m.Actions[0]
	if seq[2].Type != core.ActionPause || seq[2].Duration != time.Second {
		t.Errorf("Expected 1s hold, got %+v", seq[2])
	}
}

func TestAndroid_GrantPermission(t *testing.T) {
	m := mock.New()
	script := shell.NewScript().
		On("adb -s emulator-5554 shell pm grant com.example.app android.permission.CAMERA", shell.Response{})

	b := For(locator.Android, m, adb.New(script), nil, androidSession())
	if err := b.GrantPermission("android.permission.CAMERA"); err != nil {
		t.Fatalf("GrantPermission failed: %v", err)
	}

	want := "adb -s emulator-5554 shell pm grant com.example.app android.permission.CAMERA"
	if len(script.Calls) != 1 || script.Calls[0] != want {
		t.Errorf("Expected %q, got %v", want, script.Calls)
	}
}

func TestAndroid_PermissionWithoutIdentifiers(t *testing.T) {
	m := mock.New()
	script := shell.NewScript()

	b := For(locator.Android, m, adb.New(script), nil, Session{})
	err := b.GrantPermission("android.permission.CAMERA")
	if err == nil {
		t.Fatal("Expected GrantPermission to fail")
	}
	if !errors.Is(err, core.ErrMissingIdentifier) {
		t.Errorf("Expected missing-identifier error, got %v", err)
	}
	if len(script.Calls) != 0 {
		t.Errorf("Expected no adb calls, got %v", script.Calls)
	}
}

func TestAndroid_SetAirplaneMode(t *testing.T) {
	m := mock.New()
	script := shell.NewScript().
		On("adb -s emulator-5554 shell settings put global airplane_mode_on 1", shell.Response{}).
		On("adb -s emulator-5554 shell am broadcast", shell.Response{})

	b := For(locator.Android, m, adb.New(script), nil, androidSession())
	if err := b.SetAirplaneMode(true); err != nil {
		t.Fatalf("SetAirplaneMode failed: %v", err)
	}
	if len(script.Calls) != 2 {
		t.Errorf("Expected settings write plus broadcast, got %v", script.Calls)
	}
}

func TestAndroid_Shake_DegradesWhenUnsupported(t *testing.T) {
	m := mock.New()
	m.FailOn = map[string]error{
		"ExecuteMobile:shake": fmt.Errorf("unknown mobile command"),
	}

	b := For(locator.Android, m, adb.New(shell.NewScript()), nil, androidSession())
	outcome := b.Shake()
	if outcome.Applied {
		t.Error("Expected degraded outcome")
	}
	if outcome.Detail == "" {
		t.Error("Expected degradation detail")
	}
}

func TestAndroid_MatchBiometric(t *testing.T) {
	m := mock.New()
	b := For(locator.Android, m, adb.New(shell.NewScript()), nil, androidSession())

	if outcome := b.MatchBiometric(true); !outcome.Applied {
		t.Errorf("Expected applied, got %v", outcome)
	}
	if n := m.CallCount("ExecuteMobile fingerprint map[fingerprintId:1]"); n != 1 {
		t.Errorf("Expected matching finger id, calls: %v", m.Calls)
	}

	if outcome := b.MatchBiometric(false); !outcome.Applied {
		t.Errorf("Expected applied, got %v", outcome)
	}
	if n := m.CallCount("ExecuteMobile fingerprint map[fingerprintId:2]"); n != 1 {
		t.Errorf("Expected non-matching finger id, calls: %v", m.Calls)
	}
}

func TestAndroid_BiometricEnrollmentDegrades(t *testing.T) {
	m := mock.New()
	b := For(locator.Android, m, adb.New(shell.NewScript()), nil, androidSession())

	outcome := b.SetBiometricEnrollment(true)
	if outcome.Applied {
		t.Errorf("Expected degraded outcome, got %v", outcome)
	}
}

func TestAndroid_SetAppearance(t *testing.T) {
	m := mock.New()
	script := shell.NewScript().
		On("adb -s emulator-5554 shell cmd uimode night yes", shell.Response{})

	b := For(locator.Android, m, adb.New(script), nil, androidSession())
	if outcome := b.SetAppearance(true); !outcome.Applied {
		t.Errorf("Expected applied, got %v", outcome)
	}

	want := "adb -s emulator-5554 shell cmd uimode night yes"
	if script.Calls[0] != want {
		t.Errorf("Expected %q, got %q", want, script.Calls[0])
	}
}

func TestIOS_GrantPermission(t *testing.T) {
	m := mock.New()
	script := shell.NewScript().
		On("xcrun simctl privacy AAAA-1111 grant camera com.example.App", shell.Response{})

	b := For(locator.IOS, m, nil, simctl.New(script), iosSession())
	if err := b.GrantPermission("camera"); err != nil {
		t.Fatalf("GrantPermission failed: %v", err)
	}

	want := "xcrun simctl privacy AAAA-1111 grant camera com.example.App"
	if len(script.Calls) != 1 || script.Calls[0] != want {
		t.Errorf("Expected %q, got %v", want, script.Calls)
	}
}

func TestIOS_PermissionWithoutIdentifiers(t *testing.T) {
	m := mock.New()
	b := For(locator.IOS, m, nil, simctl.New(shell.NewScript()), Session{DeviceID: "AAAA-1111"})

	err := b.RevokePermission("photos")
	if err == nil {
		t.Fatal("Expected RevokePermission to fail")
	}
	if !errors.Is(err, core.ErrMissingIdentifier) {
		t.Errorf("Expected missing-identifier error, got %v", err)
	}
}

func TestIOS_NetworkUnsupported(t *testing.T) {
	m := mock.New()
	b := For(locator.IOS, m, nil, simctl.New(shell.NewScript()), iosSession())

	if err := b.SetAirplaneMode(true); err == nil {
		t.Error("Expected airplane mode to be unsupported")
	}
	if err := b.SetMobileData(false); err == nil {
		t.Error("Expected mobile data to be unsupported")
	}
}

func TestIOS_Biometrics(t *testing.T) {
	m := mock.New()
	b := For(locator.IOS, m, nil, simctl.New(shell.NewScript()), iosSession())

	if outcome := b.SetBiometricEnrollment(true); !outcome.Applied {
		t.Errorf("Expected applied, got %v", outcome)
	}
	if n := m.CallCount("ExecuteMobile enrollBiometric"); n != 1 {
		t.Errorf("Expected enrollBiometric call, calls: %v", m.Calls)
	}

	if outcome := b.MatchBiometric(false); !outcome.Applied {
		t.Errorf("Expected applied, got %v", outcome)
	}
	if n := m.CallCount("ExecuteMobile sendBiometricMatch"); n != 1 {
		t.Errorf("Expected sendBiometricMatch call, calls: %v", m.Calls)
	}
}

func TestIOS_SetAppearance(t *testing.T) {
	m := mock.New()
	script := shell.NewScript().
		On("xcrun simctl ui AAAA-1111 appearance dark", shell.Response{})

	b := For(locator.IOS, m, nil, simctl.New(script), iosSession())
	if outcome := b.SetAppearance(true); !outcome.Applied {
		t.Errorf("Expected applied, got %v", outcome)
	}
}

package shell

import (
	"errors"
	"runtime"
	"strings"
	"testing"
)

func TestExecRunner_Output(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test shells out to /bin/echo")
	}

	r := NewExecRunner()
	out, err := r.Output("echo", "hello")
	if err != nil {
		t.Fatalf("Output() failed: %v", err)
	}
	if strings.TrimSpace(out) != "hello" {
		t.Errorf("Output() = %q, want %q", strings.TrimSpace(out), "hello")
	}
}

func TestExecRunner_Output_CommandNotFound(t *testing.T) {
	r := NewExecRunner()
	_, err := r.Output("definitely-not-a-binary-5554")
	if err == nil {
		t.Error("Output() should fail for a missing binary")
	}
}

func TestScript_ConsumesResponsesInOrder(t *testing.T) {
	s := NewScript().
		On("adb devices",
			Response{Out: "List of devices attached\n"},
			Response{Out: "List of devices attached\nemulator-5554\tdevice\n"},
		)

	first, err := s.Output("adb", "devices")
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	if strings.Contains(first, "emulator-5554") {
		t.Error("first response should not list a device")
	}

	second, err := s.Output("adb", "devices")
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if !strings.Contains(second, "emulator-5554") {
		t.Error("second response should list emulator-5554")
	}

	// Last response sticks after the queue drains.
	third, err := s.Output("adb", "devices")
	if err != nil {
		t.Fatalf("third call: %v", err)
	}
	if third != second {
		t.Errorf("third response = %q, want the sticky last response %q", third, second)
	}
}

func TestScript_UnscriptedCommandFails(t *testing.T) {
	s := NewScript()
	_, err := s.Output("adb", "shell", "rm", "-rf", "/")
	if err == nil {
		t.Fatal("unscripted command should fail")
	}
	if !strings.Contains(err.Error(), "unscripted command") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestScript_LongestPrefixWins(t *testing.T) {
	s := NewScript().
		On("adb -s emulator-5554 shell getprop", Response{Out: "generic\n"}).
		On("adb -s emulator-5554 shell getprop sys.boot_completed", Response{Out: "1\n"})

	out, err := s.Output("adb", "-s", "emulator-5554", "shell", "getprop", "sys.boot_completed")
	if err != nil {
		t.Fatalf("Output() failed: %v", err)
	}
	if strings.TrimSpace(out) != "1" {
		t.Errorf("Output() = %q, want %q (longest prefix must win)", strings.TrimSpace(out), "1")
	}

	out, err = s.Output("adb", "-s", "emulator-5554", "shell", "getprop", "ro.build.version.release")
	if err != nil {
		t.Fatalf("Output() failed: %v", err)
	}
	if strings.TrimSpace(out) != "generic" {
		t.Errorf("Output() = %q, want %q", strings.TrimSpace(out), "generic")
	}
}

func TestScript_CallCount(t *testing.T) {
	s := NewScript().
		On("adb devices", Response{Out: ""}).
		On("emulator", Response{})

	s.Output("adb", "devices")
	s.Output("adb", "devices")
	s.Start("emulator", "-avd", "Pixel_7_API_33")

	if got := s.CallCount("adb devices"); got != 2 {
		t.Errorf("CallCount(adb devices) = %d, want 2", got)
	}
	if got := s.CallCount("emulator"); got != 1 {
		t.Errorf("CallCount(emulator) = %d, want 1", got)
	}
	if got := s.CallCount("xcrun"); got != 0 {
		t.Errorf("CallCount(xcrun) = %d, want 0", got)
	}
}

func TestScript_StartReplaysScriptedError(t *testing.T) {
	boom := errors.New("spawn failed")
	s := NewScript().On("emulator", Response{Err: boom})

	if err := s.Start("emulator", "-avd", "X"); !errors.Is(err, boom) {
		t.Errorf("Start() = %v, want scripted error", err)
	}
	// Unscripted starts succeed: detached boots default to fire-and-forget.
	if err := s.Start("open", "-a", "Simulator"); err != nil {
		t.Errorf("unscripted Start() = %v, want nil", err)
	}
}

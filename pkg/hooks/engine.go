// Package hooks evaluates user JavaScript around lifecycle phases.
//
// Scripts see four globals: console (routed to the harness log), env
// (a snapshot of the process environment), output (a mutable object
// shared across phases), and device (read-only identity of the managed
// device).
package hooks

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/dop251/goja"

	"github.com/devicelab-dev/device-harness/pkg/logger"
)

// Device is the read-only device identity exposed to hook scripts.
type Device struct {
	Platform string
	ID       string
	Name     string
}

// Engine wraps a goja runtime with the hook globals.
type Engine struct {
	runtime *goja.Runtime
	output  map[string]interface{}
	device  Device
	mu      sync.Mutex
}

// New creates an engine with the hook globals registered.
func New() *Engine {
	e := &Engine{
		runtime: goja.New(),
		output:  make(map[string]interface{}),
	}

	e.setupConsole()
	e.setupEnv()
	e.setupDevice()
	e.runtime.Set("output", e.output)

	return e
}

// setupConsole routes console.log/warn/error into the harness log.
func (e *Engine) setupConsole() {
	makeConsoleFunc := func(log func(string, ...interface{})) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			parts := make([]string, len(call.Arguments))
			for i, arg := range call.Arguments {
				parts[i] = fmt.Sprintf("%v", arg.Export())
			}
			log("hook: %s", strings.Join(parts, " "))
			return goja.Undefined()
		}
	}

	console := e.runtime.NewObject()
	console.Set("log", makeConsoleFunc(logger.Info))
	console.Set("error", makeConsoleFunc(logger.Error))
	console.Set("warn", makeConsoleFunc(logger.Warn))
	e.runtime.Set("console", console)
}

// setupEnv snapshots the process environment into the env global.
func (e *Engine) setupEnv() {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			env[parts[0]] = parts[1]
		}
	}
	e.runtime.Set("env", env)
}

// setupDevice exposes the tracked device identity as read-only
// accessors, so SetDevice updates are visible to later scripts.
func (e *Engine) setupDevice() {
	device := e.runtime.NewObject()
	device.DefineAccessorProperty("platform", e.runtime.ToValue(func() string {
		return e.device.Platform
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)
	device.DefineAccessorProperty("id", e.runtime.ToValue(func() string {
		return e.device.ID
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)
	device.DefineAccessorProperty("name", e.runtime.ToValue(func() string {
		return e.device.Name
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)
	e.runtime.Set("device", device)
}

// SetDevice updates the device identity seen by scripts.
func (e *Engine) SetDevice(d Device) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.device = d
}

// Run evaluates a script.
func (e *Engine) Run(script string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.runtime.RunString(script); err != nil {
		return fmt.Errorf("hook script error: %w", err)
	}
	return nil
}

// Output returns a copy of the output object populated by scripts.
func (e *Engine) Output() map[string]interface{} {
	e.mu.Lock()
	defer e.mu.Unlock()

	result := make(map[string]interface{}, len(e.output))
	for k, v := range e.output {
		result[k] = v
	}
	return result
}

package hooks

import (
	"fmt"
	"os"

	"github.com/devicelab-dev/device-harness/pkg/config"
	"github.com/devicelab-dev/device-harness/pkg/logger"
)

// Runner evaluates the configured hook scripts around lifecycle phases.
// One engine is shared across phases, so values stored in output during
// onPrepare are visible to the later hooks.
type Runner struct {
	cfg    config.Hooks
	engine *Engine
}

// NewRunner creates a runner for the configured hook files.
func NewRunner(cfg config.Hooks) *Runner {
	return &Runner{cfg: cfg, engine: New()}
}

// OnPrepare runs the pre-run hook. Failures propagate: a broken prepare
// hook aborts the run.
func (r *Runner) OnPrepare(device Device) error {
	return r.run("onPrepare", r.cfg.OnPrepare, device)
}

// BeforeSession runs the worker pre-session hook. Failures are logged,
// not propagated.
func (r *Runner) BeforeSession(device Device) {
	if err := r.run("beforeSession", r.cfg.BeforeSession, device); err != nil {
		logger.Warn("beforeSession hook failed: %v", err)
	}
}

// OnComplete runs the post-run hook. Failures are logged, not
// propagated.
func (r *Runner) OnComplete(device Device) {
	if err := r.run("onComplete", r.cfg.OnComplete, device); err != nil {
		logger.Warn("onComplete hook failed: %v", err)
	}
}

// Output returns the values scripts stored in the output object.
func (r *Runner) Output() map[string]interface{} {
	return r.engine.Output()
}

func (r *Runner) run(phase, path string, device Device) error {
	if path == "" {
		return nil
	}

	script, err := os.ReadFile(path) //#nosec G304 -- user-provided hook script
	if err != nil {
		return fmt.Errorf("failed to read %s hook: %w", phase, err)
	}

	logger.Info("Running %s hook: %s", phase, path)
	r.engine.SetDevice(device)
	return r.engine.Run(string(script))
}

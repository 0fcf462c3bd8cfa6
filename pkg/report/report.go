// Package report serializes run summaries and diagnostics bundles to
// the output directory. No rendering happens here; the files are plain
// JSON for downstream tooling.
package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/devicelab-dev/device-harness/pkg/diag"
)

// Run statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// RunSummary is the per-run result document (run.json).
type RunSummary struct {
	RunID      string     `json:"runId"`
	Status     string     `json:"status"`
	Platform   string     `json:"platform"`
	DeviceID   string     `json:"deviceId,omitempty"`
	DeviceName string     `json:"deviceName,omitempty"`
	StartTime  time.Time  `json:"startTime"`
	EndTime    *time.Time `json:"endTime,omitempty"`
	DurationMs int64      `json:"durationMs"`
	Error      string     `json:"error,omitempty"`

	// Bundles lists the paths of diagnostics bundles written during
	// the run, relative to the output directory.
	Bundles []string `json:"bundles,omitempty"`
}

// WriteBundle serializes a diagnostics bundle under
// outputDir/diagnostics/<bundle-id>.json and returns the path.
func WriteBundle(outputDir string, b *diag.Bundle) (string, error) {
	dir := filepath.Join(outputDir, "diagnostics")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, b.ID+".json")
	if err := writeJSON(path, b); err != nil {
		return "", err
	}
	return path, nil
}

// WriteSummary serializes the run summary as run.json under outputDir
// and returns the path.
func WriteSummary(outputDir string, s *RunSummary) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(outputDir, "run.json")
	if err := writeJSON(path, s); err != nil {
		return "", err
	}
	return path, nil
}

// writeJSON writes v as indented JSON through a temp file and rename,
// so a concurrent reader never sees a partial document.
func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

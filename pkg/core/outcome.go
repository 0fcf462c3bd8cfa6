package core

import "fmt"

// Outcome reports the result of a best-effort device operation (shake,
// biometrics, appearance). These operations degrade rather than fail:
// callers observe the degradation instead of an error.
type Outcome struct {
	Applied bool   `json:"applied"`
	Detail  string `json:"detail,omitempty"`
}

// Applied returns a successful outcome
func Applied() Outcome {
	return Outcome{Applied: true}
}

// Degraded returns a partial-failure outcome with a reason
func Degraded(format string, v ...interface{}) Outcome {
	return Outcome{Applied: false, Detail: fmt.Sprintf(format, v...)}
}

// String returns a log-friendly representation
func (o Outcome) String() string {
	if o.Applied {
		return "applied"
	}
	return "degraded: " + o.Detail
}

// Validation report
// The pass/fail artifact one validation run produces
package expect

import (
	"fmt"
	"strings"
)

// Failure is one failed validation stage with its explanation.
type Failure struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Report accumulates the outcome of one validation run. It is built
// synchronously, returned, and never mutated afterwards; running the
// same expectations over the same batch twice yields identical reports.
type Report struct {
	Passes   []string  `json:"passes"`
	Failures []Failure `json:"failures"`
}

// AddPass records a passing stage.
func (r *Report) AddPass(name string) {
	r.Passes = append(r.Passes, name)
}

// AddFailure records a failing stage with its message.
func (r *Report) AddFailure(name, message string) {
	r.Failures = append(r.Failures, Failure{Name: name, Message: message})
}

// IsSuccess reports whether no stage failed.
func (r *Report) IsSuccess() bool { return len(r.Failures) == 0 }

// PassCount returns the number of passing stages.
func (r *Report) PassCount() int { return len(r.Passes) }

// FailureCount returns the number of failing stages.
func (r *Report) FailureCount() int { return len(r.Failures) }

// FirstError returns the first failure message, or "" on success.
func (r *Report) FirstError() string {
	if len(r.Failures) == 0 {
		return ""
	}
	return r.Failures[0].Message
}

// Summary renders a one-line success message or a multi-line failure
// breakdown with one bullet per failed stage.
func (r *Report) Summary() string {
	if r.IsSuccess() {
		return fmt.Sprintf("✓ All %d validations passed", r.PassCount())
	}
	var b strings.Builder
	fmt.Fprintf(&b, "✗ %d passed, %d failed", r.PassCount(), r.FailureCount())
	for _, f := range r.Failures {
		fmt.Fprintf(&b, "\n  • %s: %s", f.Name, f.Message)
	}
	return b.String()
}

// merge appends another report's entries, preserving order.
func (r *Report) merge(other Report) {
	r.Passes = append(r.Passes, other.Passes...)
	r.Failures = append(r.Failures, other.Failures...)
}

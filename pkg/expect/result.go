// Declarative trace expectations and their validators
// Each validator checks one behavioral property of a span batch
package expect

import "fmt"

// Result is one validator's outcome over a span batch. A validator
// accumulates every violation it finds; it never stops at the first.
// The (Result, error) shape separates behavioral failures, which belong
// in the result, from configuration errors (bad glob, malformed
// expectation), which abort the stage.
type Result struct {
	Errors []string
}

// Passed reports whether the validator found no violations.
func (r Result) Passed() bool { return len(r.Errors) == 0 }

func (r *Result) failf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

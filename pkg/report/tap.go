// TAP report rendering
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/andrewh/tracecheck/pkg/expect"
)

// renderTAP writes TAP version 13 output: the plan line, one ok/not ok
// line per stage, and a YAML diagnostic block under each failure.
func renderTAP(w io.Writer, r *expect.Report) error {
	total := r.PassCount() + r.FailureCount()
	if _, err := fmt.Fprintf(w, "TAP version 13\n1..%d\n", total); err != nil {
		return err
	}

	n := 0
	for _, name := range r.Passes {
		n++
		if _, err := fmt.Fprintf(w, "ok %d - %s\n", n, name); err != nil {
			return err
		}
	}
	for _, f := range r.Failures {
		n++
		if _, err := fmt.Fprintf(w, "not ok %d - %s\n", n, f.Name); err != nil {
			return err
		}
		// Messages may span lines when a stage accumulated several
		// violations; indent each for a valid YAML block.
		msg := strings.ReplaceAll(f.Message, "\n", "\n    ")
		if _, err := fmt.Fprintf(w, "  ---\n  message: |-\n    %s\n  severity: fail\n  ...\n", msg); err != nil {
			return err
		}
	}
	return nil
}

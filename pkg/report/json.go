// JSON report rendering
package report

import (
	"encoding/json"
	"io"

	"github.com/andrewh/tracecheck/pkg/expect"
)

// jsonReport is the stable machine-readable shape. Field names are part
// of the output contract; empty slices render as [] rather than null.
type jsonReport struct {
	Success      bool             `json:"success"`
	PassCount    int              `json:"pass_count"`
	FailureCount int              `json:"failure_count"`
	Passes       []string         `json:"passes"`
	Failures     []expect.Failure `json:"failures"`
}

func renderJSON(w io.Writer, r *expect.Report) error {
	out := jsonReport{
		Success:      r.IsSuccess(),
		PassCount:    r.PassCount(),
		FailureCount: r.FailureCount(),
		Passes:       r.Passes,
		Failures:     r.Failures,
	}
	if out.Passes == nil {
		out.Passes = []string{}
	}
	if out.Failures == nil {
		out.Failures = []expect.Failure{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// Validation report formatters
// Renders a validation report for humans, CI systems, and pipelines
package report

import (
	"fmt"
	"io"

	"github.com/andrewh/tracecheck/pkg/expect"
)

// Format identifies an output rendering.
type Format string

const (
	FormatHuman Format = "human"
	FormatJSON  Format = "json"
	FormatJUnit Format = "junit"
	FormatTAP   Format = "tap"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatHuman, FormatJSON, FormatJUnit, FormatTAP:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown format %q, valid formats: human, json, junit, tap", s)
	}
}

// Render writes the report to w in the given format.
func Render(w io.Writer, r *expect.Report, format Format) error {
	switch format {
	case FormatHuman:
		return renderHuman(w, r)
	case FormatJSON:
		return renderJSON(w, r)
	case FormatJUnit:
		return renderJUnit(w, r)
	case FormatTAP:
		return renderTAP(w, r)
	default:
		return fmt.Errorf("unknown format %q, valid formats: human, json, junit, tap", format)
	}
}

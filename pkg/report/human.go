// Human-readable report rendering
package report

import (
	"io"

	"github.com/andrewh/tracecheck/pkg/expect"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// renderHuman writes a table of stages followed by the one-line summary.
func renderHuman(w io.Writer, r *expect.Report) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Validation", "Result", "Detail"})

	for _, name := range r.Passes {
		t.AppendRow(table.Row{name, text.FgGreen.Sprint("PASS"), ""})
	}
	for _, f := range r.Failures {
		t.AppendRow(table.Row{f.Name, text.FgRed.Sprint("FAIL"), f.Message})
	}
	t.Render()

	// Grouped digits keep large span counts readable.
	p := message.NewPrinter(language.English)
	if r.IsSuccess() {
		_, err := p.Fprintf(w, "\n✓ All %d validations passed\n", r.PassCount())
		return err
	}
	_, err := p.Fprintf(w, "\n✗ %d passed, %d failed\n", r.PassCount(), r.FailureCount())
	return err
}

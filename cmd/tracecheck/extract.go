package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/andrewh/tracecheck/pkg/spans"
	"github.com/spf13/cobra"
)

// outSpan is the normalized line shape extract emits, the same flat
// schema the validator accepts back on input.
type outSpan struct {
	Name               string         `json:"name"`
	TraceID            string         `json:"trace_id"`
	SpanID             string         `json:"span_id"`
	ParentSpanID       string         `json:"parent_span_id,omitempty"`
	StartTimeUnixNano  *uint64        `json:"start_time_unix_nano,omitempty"`
	EndTimeUnixNano    *uint64        `json:"end_time_unix_nano,omitempty"`
	Kind               string         `json:"kind,omitempty"`
	Attributes         map[string]any `json:"attributes,omitempty"`
	ResourceAttributes map[string]any `json:"resource_attributes,omitempty"`
	Events             []string       `json:"events,omitempty"`
}

func extractCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "extract [file]",
		Short: "Extract normalized spans from trace output",
		Long: "Reads trace output (mixed process stdout, Go SDK stdouttrace lines,\n" +
			"or OTLP JSON) and writes one normalized span per line as JSON.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0]) //nolint:gosec // user-supplied file path is expected
				if err != nil {
					return fmt.Errorf("opening input: %w", err)
				}
				defer f.Close() //nolint:errcheck // best-effort close on read-only file
				in = f
			}

			batch, err := spans.Extract(in, spans.Format(format))
			if err != nil {
				if strings.Contains(err.Error(), "no spans found") {
					return fmt.Errorf("%w\n\nProvide a file or pipe stdin:\n  tracecheck extract traces.json\n  cat traces.json | tracecheck extract", err)
				}
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			for i := range batch {
				s := &batch[i]
				if err := enc.Encode(outSpan{
					Name:               s.Name,
					TraceID:            s.TraceID,
					SpanID:             s.SpanID,
					ParentSpanID:       s.ParentSpanID,
					StartTimeUnixNano:  s.StartTimeUnixNano,
					EndTimeUnixNano:    s.EndTimeUnixNano,
					Kind:               string(s.Kind),
					Attributes:         s.Attributes,
					ResourceAttributes: s.ResourceAttributes,
					Events:             s.Events,
				}); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "auto", "input format: auto, lines, stdouttrace, or otlp")

	return cmd
}

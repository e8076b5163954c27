package main

import (
	"fmt"
	"io"
	"os"

	"github.com/andrewh/tracecheck/pkg/expect"
	"github.com/andrewh/tracecheck/pkg/history"
	"github.com/andrewh/tracecheck/pkg/report"
	"github.com/andrewh/tracecheck/pkg/spans"
	"github.com/spf13/cobra"
)

func validateCmd() *cobra.Command {
	var (
		format        string
		spanFormat    string
		storePath     string
		strict        bool
		pprofAddr     string
		pyroscopeAddr string
	)
	env := envDefaults()

	cmd := &cobra.Command{
		Use:   "validate <expectations.toml> [spans-file]",
		Short: "Validate trace spans against an expectation document",
		Long: "Validate trace spans against an expectation document.\n\n" +
			"Expectations are read from a TOML (or YAML) file using the [expect.*]\n" +
			"schema. Spans are read from the given file or from stdin: mixed process\n" +
			"output, Go SDK stdouttrace lines, and OTLP JSON are all accepted.\n" +
			"A failed validation exits non-zero.",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("missing expectations file\n\nUsage: tracecheck validate <expectations.toml> [spans-file]")
			}
			return cobra.RangeArgs(1, 2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := report.ParseFormat(format)
			if err != nil {
				return err
			}

			stopProfiling, err := startProfiling(pprofAddr, pyroscopeAddr)
			if err != nil {
				return err
			}
			defer stopProfiling()

			suite, err := expect.Load(args[0])
			if err != nil {
				return err
			}

			var in io.Reader = cmd.InOrStdin()
			source := "stdin"
			if len(args) == 2 {
				f, err := os.Open(args[1]) //nolint:gosec // user-supplied file path is expected
				if err != nil {
					return fmt.Errorf("opening spans: %w", err)
				}
				defer f.Close() //nolint:errcheck // best-effort close on read-only file
				in = f
				source = args[1]
			}

			batch, err := spans.Extract(in, spans.Format(spanFormat))
			if err != nil {
				return err
			}

			rep := suite.Validate(batch)

			if storePath != "" {
				if err := saveRun(cmd, storePath, &rep, source); err != nil {
					return err
				}
			}

			if strict {
				if !rep.IsSuccess() {
					return fmt.Errorf("validation failed with %d failure(s), first: %s",
						rep.FailureCount(), rep.FirstError())
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), rep.Summary())
				return nil
			}

			if err := report.Render(cmd.OutOrStdout(), &rep, outFormat); err != nil {
				return err
			}
			if !rep.IsSuccess() {
				return fmt.Errorf("validation failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", env.GetString("format"), "output format: human, json, junit, or tap (env TRACECHECK_FORMAT)")
	cmd.Flags().StringVar(&spanFormat, "span-format", "auto", "span input format: auto, lines, stdouttrace, or otlp")
	cmd.Flags().StringVar(&storePath, "store", env.GetString("db"), "sqlite database to record this run in (env TRACECHECK_DB)")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail fast with a single aggregate error instead of a report")
	cmd.Flags().StringVar(&pprofAddr, "pprof", "", "start pprof HTTP server on this address (e.g. :6060)")
	cmd.Flags().StringVar(&pyroscopeAddr, "pyroscope", "", "push profiles to a pyroscope server at this address")

	return cmd
}

func saveRun(cmd *cobra.Command, path string, rep *expect.Report, source string) error {
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck // best-effort close after save

	run, err := store.Save(cmd.Context(), rep, source)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "recorded run %s (digest %s)\n", run.ID, run.Digest)
	return nil
}

package main

import (
	"fmt"
	"time"

	"github.com/andrewh/tracecheck/pkg/history"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func historyCmd() *cobra.Command {
	var (
		dbPath string
		limit  int
	)
	env := envDefaults()

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded validation runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				return fmt.Errorf("no history database, set --db or TRACECHECK_DB")
			}

			store, err := history.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck // best-effort close on read path

			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No recorded runs.")
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Run", "When", "Source", "Passed", "Failed", "Digest"})
			for _, run := range runs {
				t.AppendRow(table.Row{
					run.ID[:8],
					run.CreatedAt.Format(time.RFC3339),
					run.Source,
					run.PassCount,
					run.FailureCount,
					run.Digest,
				})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", env.GetString("db"), "sqlite history database (env TRACECHECK_DB)")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to show (0 = all)")

	return cmd
}

package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"scribe/internal/store"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored transcripts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			records, err := st.List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No transcripts stored yet.")
				return nil
			}
			fmt.Fprintln(out, renderTranscriptTable(out, records))
			fmt.Fprintf(out, "%d transcript(s)\n", len(records))
			return nil
		},
	}
}

func renderTranscriptTable(out io.Writer, records []*store.Transcript) string {
	headers := []string{"ID", "Title", "Model", "Duration", "Created"}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			strconv.FormatInt(record.ID, 10),
			truncate(record.Title, 60),
			record.ModelUsed,
			formatDuration(record.DurationSeconds),
			record.CreatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	return renderTable(out, headers, rows, aligns)
}

func truncate(value string, max int) string {
	if max <= 3 || len(value) <= max {
		return value
	}
	return value[:max-3] + "..."
}

func formatDuration(seconds float64) string {
	if seconds <= 0 {
		return "-"
	}
	total := int(seconds)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}

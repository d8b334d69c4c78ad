package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"scribe/internal/services"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var metadataOnly bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id < 1 {
				return fmt.Errorf("invalid transcript id %q", args[0])
			}

			st, err := ctx.openStore()
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			record, err := st.GetByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			if record == nil {
				return fmt.Errorf("%w: transcript %d", services.ErrNotFound, id)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "#%d  %s\n", record.ID, record.Title)
			fmt.Fprintf(out, "Source:   %s\n", record.SourceURL)
			fmt.Fprintf(out, "Model:    %s\n", record.ModelUsed)
			fmt.Fprintf(out, "Duration: %s\n", formatDuration(record.DurationSeconds))
			fmt.Fprintf(out, "Created:  %s\n", record.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			if metadataOnly {
				return nil
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, record.Text)
			return nil
		},
	}

	cmd.Flags().BoolVar(&metadataOnly, "metadata", false, "Print metadata without the transcript text")
	return cmd
}

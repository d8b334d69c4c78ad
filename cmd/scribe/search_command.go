package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "search <keyword>",
		Short: "Search transcript titles and text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keyword := strings.TrimSpace(args[0])
			if keyword == "" {
				return fmt.Errorf("keyword is required")
			}

			st, err := ctx.openStore()
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			records, err := st.Search(cmd.Context(), keyword)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintf(out, "No transcripts match %q.\n", keyword)
				return nil
			}
			fmt.Fprintln(out, renderTranscriptTable(out, records))
			fmt.Fprintf(out, "%d match(es) for %q\n", len(records), keyword)
			return nil
		},
	}
}

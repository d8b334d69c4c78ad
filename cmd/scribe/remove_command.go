package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"scribe/internal/services"
)

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Delete a stored transcript",
		Args:    cobra.ExactArgs(1),
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

			removed, err := st.Remove(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("%w: transcript %d", services.ErrNotFound, id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed transcript #%d\n", id)
			return nil
		},
	}
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scribe/internal/preflight"
	"scribe/internal/store"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check external tools, directories, and database health",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			headers := []string{"Check", "Status", "Detail"}
			rows := make([][]string, 0, 8)

			failed := 0
			for _, result := range preflight.RunAll(cmd.Context(), cfg) {
				status := "ok"
				if !result.Passed {
					status = "FAIL"
					failed++
				}
				rows = append(rows, []string{result.Name, status, result.Detail})
			}

			st, err := ctx.openStore()
			if err != nil {
				rows = append(rows, []string{"Database", "FAIL", err.Error()})
				failed++
			} else {
				defer st.Close()
				health, healthErr := st.CheckHealth(cmd.Context())
				rows = append(rows, []string{"Database", databaseStatus(health, healthErr), databaseDetail(health, healthErr)})
				if healthErr != nil || !databaseHealthy(health) {
					failed++
				}
			}

			fmt.Fprintln(out, renderTable(out, headers, rows, []columnAlignment{alignLeft, alignLeft, alignLeft}))
			if failed > 0 {
				return fmt.Errorf("%d check(s) failed", failed)
			}
			fmt.Fprintln(out, "All checks passed.")
			return nil
		},
	}
}

func databaseHealthy(health store.Health) bool {
	return health.DatabaseExists && health.DatabaseReadable && health.TableExists && health.IntegrityCheck
}

func databaseStatus(health store.Health, err error) string {
	if err != nil || !databaseHealthy(health) {
		return "FAIL"
	}
	return "ok"
}

func databaseDetail(health store.Health, err error) string {
	switch {
	case err != nil:
		return err.Error()
	case health.Error != "":
		return health.Error
	case !health.DatabaseExists:
		return fmt.Sprintf("%s (not created yet; run a transcription first)", health.DBPath)
	case !health.TableExists:
		return fmt.Sprintf("%s (transcripts table missing)", health.DBPath)
	case !health.IntegrityCheck:
		return fmt.Sprintf("%s (integrity check failed)", health.DBPath)
	default:
		return fmt.Sprintf("%s (%d transcript(s))", health.DBPath, health.TotalRecords)
	}
}

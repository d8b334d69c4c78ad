package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"scribe/internal/downloader"
	"scribe/internal/pipeline"
	"scribe/internal/transcriber"
)

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var model string
	var language string
	var timestamps bool
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "transcribe <url>",
		Short: "Download an audio track and transcribe it",
		Long: "Download the audio for a URL, run speech recognition on it, store the\n" +
			"transcript in the local database, and write a transcript text file.\n" +
			"The downloaded audio is deleted when the run finishes.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := strings.TrimSpace(args[0])
			if url == "" {
				return fmt.Errorf("url is required")
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.pipelineLogger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			st, err := ctx.openStore()
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			runner, err := pipeline.New(cfg, st, downloader.New(cfg, logger), transcriber.New(cfg, logger), logger)
			if err != nil {
				return err
			}

			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			result, err := runner.Run(runCtx, pipeline.Request{
				URL:            url,
				Model:          model,
				Language:       language,
				WithTimestamps: timestamps,
				Overwrite:      overwrite,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if result.Duplicate {
				fmt.Fprintf(out, "Already transcribed as #%d (%s).\n", result.TranscriptID, result.Title)
				fmt.Fprintln(out, "Re-run with --overwrite to replace the stored transcript.")
				return nil
			}
			fmt.Fprintf(out, "Transcribed #%d: %s\n", result.TranscriptID, result.Title)
			fmt.Fprintf(out, "Transcript written to %s\n", result.TranscriptPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", "", "Whisper model size: "+modelChoices())
	cmd.Flags().StringVarP(&language, "language", "l", "", "Language hint (ISO 639-1), e.g. en")
	cmd.Flags().BoolVarP(&timestamps, "timestamps", "t", false, "Render one [mm:ss] line per segment")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing transcript for the same source")
	return cmd
}

func modelChoices() string {
	sizes := transcriber.ModelSizes()
	names := make([]string, 0, len(sizes))
	for _, size := range sizes {
		names = append(names, size.String())
	}
	return strings.Join(names, ", ")
}

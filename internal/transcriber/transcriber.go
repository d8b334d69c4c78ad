package transcriber

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"scribe/internal/config"
	"scribe/internal/logging"
	"scribe/internal/services"
)

const stage = "transcribe"

// Options controls a single transcription.
type Options struct {
	Model ModelSize
	// Language is an optional hint (ISO 639-1); empty lets the engine detect.
	Language string
	// WithTimestamps renders one "[mm:ss] text" line per segment instead of
	// a flat paragraph.
	WithTimestamps bool
}

// Result carries the recognized text and its segment breakdown.
type Result struct {
	// Text is the rendered transcript: timestamped lines when requested,
	// otherwise the engine's flat text.
	Text     string
	Segments []Segment
	Language string
	Model    ModelSize
}

// CommandRunner executes an external command.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Transcriber wraps Whisper CLI invocations.
type Transcriber struct {
	binary string
	logger *slog.Logger
	runner CommandRunner
}

// New creates a Transcriber from configuration.
func New(cfg *config.Config, logger *slog.Logger) *Transcriber {
	return &Transcriber{
		binary: cfg.WhisperBinary(),
		logger: logging.NewComponentLogger(logger, "transcriber"),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (t *Transcriber) WithCommandRunner(runner CommandRunner) {
	t.runner = runner
}

// Transcribe runs speech recognition on audioPath. The engine's JSON output
// is written next to the audio file and parsed into the returned Result.
func (t *Transcriber) Transcribe(ctx context.Context, audioPath string, opts Options) (*Result, error) {
	if _, err := os.Stat(audioPath); err != nil {
		return nil, services.Wrap(services.ErrTranscription, stage, "read audio", audioPath, err)
	}
	if opts.Model == "" {
		opts.Model = ModelBase
	}

	outputDir := filepath.Dir(audioPath)
	logger := logging.WithContext(ctx, t.logger)
	logger.Info("transcribing audio",
		logging.String("file", filepath.Base(audioPath)),
		logging.String("model", opts.Model.String()),
		logging.Bool("timestamps", opts.WithTimestamps),
	)

	args := t.buildArgs(audioPath, outputDir, opts)
	if err := t.run(ctx, t.binary, args...); err != nil {
		marker := services.Classify(ctx, services.ErrTranscription, err)
		return nil, services.Wrap(marker, stage, t.binary, audioPath, err)
	}

	payload, err := loadPayload(jsonPathFor(audioPath, outputDir))
	if err != nil {
		return nil, services.Wrap(services.ErrTranscription, stage, "parse engine output", audioPath, err)
	}

	result := &Result{
		Segments: payload.Segments,
		Language: payload.Language,
		Model:    opts.Model,
	}
	if opts.WithTimestamps {
		result.Text = renderTimestamped(payload.Segments)
	} else {
		result.Text = strings.TrimSpace(payload.Text)
		if result.Text == "" {
			result.Text = joinSegments(payload.Segments)
		}
	}
	if result.Text == "" {
		return nil, services.Wrap(services.ErrTranscription, stage, "", "engine produced an empty transcription", nil)
	}

	logger.Info("transcription complete",
		logging.String("language", result.Language),
		logging.Int64("characters", int64(len(result.Text))),
	)
	return result, nil
}

func (t *Transcriber) buildArgs(audioPath, outputDir string, opts Options) []string {
	args := []string{
		audioPath,
		"--model", opts.Model.String(),
		"--output_format", "json",
		"--output_dir", outputDir,
		"--verbose", "False",
	}
	if opts.Language != "" {
		args = append(args, "--language", opts.Language)
	}
	return args
}

func (t *Transcriber) run(ctx context.Context, name string, args ...string) error {
	if t.runner != nil {
		return t.runner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(output.String())
		if detail == "" {
			return fmt.Errorf("%s: %w", name, err)
		}
		return fmt.Errorf("%s: %w: %s", name, err, detail)
	}
	return nil
}

func jsonPathFor(audioPath, outputDir string) string {
	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	return filepath.Join(outputDir, base+".json")
}

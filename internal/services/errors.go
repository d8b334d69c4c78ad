package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDownload marks failures to fetch audio: unreachable URLs,
	// unsupported sources, or sources without an audio stream.
	ErrDownload = errors.New("download error")
	// ErrTranscription marks unreadable audio or speech engine failures.
	ErrTranscription = errors.New("transcription error")
	// ErrTimeout marks a stage that exceeded its configured bound. It is
	// distinct from ErrDownload/ErrTranscription so callers can tell
	// "unreachable" from "too slow".
	ErrTimeout = errors.New("timeout")
	// ErrDuplicate marks an insert for a source that is already transcribed.
	// The pipeline treats it as a non-fatal outcome.
	ErrDuplicate = errors.New("already transcribed")
	// ErrStore marks I/O or schema failures on the transcript database.
	ErrStore = errors.New("store error")
	// ErrConfiguration marks unusable configuration values.
	ErrConfiguration = errors.New("configuration error")
	// ErrExternalTool marks a missing or broken external binary.
	ErrExternalTool = errors.New("external tool error")
	// ErrNotFound marks lookups for records that do not exist.
	ErrNotFound = errors.New("not found")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrStore
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify maps context cancellation and deadline errors onto ErrTimeout,
// leaving other errors untouched. Stage code calls it before wrapping so a
// slow subprocess surfaces as a timeout rather than a generic tool failure.
func Classify(ctx context.Context, marker error, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || (ctx != nil && ctx.Err() == context.DeadlineExceeded) {
		return ErrTimeout
	}
	return marker
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "stage failure"
	}
	return strings.Join(parts, ": ")
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"scribe/internal/config"
	"scribe/internal/downloader"
	"scribe/internal/logging"
	"scribe/internal/preflight"
	"scribe/internal/services"
	"scribe/internal/store"
	"scribe/internal/transcriber"
)

// AudioFetcher stages remote audio locally.
type AudioFetcher interface {
	Fetch(ctx context.Context, url string) (*downloader.Audio, error)
	Cleanup(audio *downloader.Audio) error
}

// SpeechRecognizer converts an audio file into text.
type SpeechRecognizer interface {
	Transcribe(ctx context.Context, audioPath string, opts transcriber.Options) (*transcriber.Result, error)
}

// Request describes one transcription run.
type Request struct {
	URL string
	// Model overrides the configured whisper model when non-empty.
	Model string
	// Language is an optional recognition hint; empty falls back to config.
	Language       string
	WithTimestamps bool
	// Overwrite replaces an existing transcript for the same source instead
	// of rejecting the run as a duplicate.
	Overwrite bool
}

// Result reports what a run produced.
type Result struct {
	TranscriptID   int64
	SourceID       string
	Title          string
	TranscriptPath string
	Model          transcriber.ModelSize
	Duration       float64
	Characters     int
	// Duplicate is set when the source was already transcribed and the run
	// stopped without touching the stored record.
	Duplicate bool
}

// Runner executes transcription runs against a shared store.
type Runner struct {
	cfg        *config.Config
	store      *store.Store
	fetcher    AudioFetcher
	recognizer SpeechRecognizer
	logger     *slog.Logger
	lock       *flock.Flock
}

// New constructs a Runner. The fetcher and recognizer are injectable so
// tests can run the pipeline without external binaries.
func New(cfg *config.Config, st *store.Store, fetcher AudioFetcher, recognizer SpeechRecognizer, logger *slog.Logger) (*Runner, error) {
	if cfg == nil || st == nil || fetcher == nil || recognizer == nil {
		return nil, errors.New("pipeline requires config, store, fetcher, and recognizer")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		cfg:        cfg,
		store:      st,
		fetcher:    fetcher,
		recognizer: recognizer,
		logger:     logging.NewComponentLogger(logger, "pipeline"),
		lock:       flock.New(cfg.LockPath()),
	}, nil
}

// Run executes the full pipeline for one request. Duplicate sources are
// reported through Result.Duplicate rather than an error so callers can
// finish cleanly. The staging directory is removed on every exit path.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	model, err := r.resolveModel(req.Model)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "setup", "resolve model", "", err)
	}

	if err := preflight.Verify(ctx, r.cfg); err != nil {
		return nil, err
	}

	locked, err := r.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return nil, errors.New("another scribe run is already in progress")
	}
	defer func() {
		_ = r.lock.Unlock()
	}()

	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, r.logger)
	logger.Info("run started", logging.String("url", req.URL), logging.String("model", string(model)))

	audio, err := r.download(ctx, req.URL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cleanupErr := r.fetcher.Cleanup(audio); cleanupErr != nil {
			logger.Warn("staging cleanup failed", logging.Error(cleanupErr))
		}
	}()

	existing, err := r.store.FindBySourceID(ctx, audio.SourceID)
	if err != nil {
		return nil, err
	}
	if existing != nil && !req.Overwrite {
		logger.Warn("source already transcribed",
			logging.String("source_id", audio.SourceID),
			logging.Int64("transcript_id", existing.ID),
		)
		return &Result{
			TranscriptID: existing.ID,
			SourceID:     existing.SourceID,
			Title:        existing.Title,
			Duplicate:    true,
		}, nil
	}

	recognition, err := r.transcribe(ctx, audio, transcriber.Options{
		Model:          model,
		Language:       r.resolveLanguage(req.Language),
		WithTimestamps: req.WithTimestamps,
	})
	if err != nil {
		return nil, err
	}

	record := &store.Transcript{
		SourceURL:       audio.SourceURL,
		SourceID:        audio.SourceID,
		Title:           audio.Title,
		Text:            recognition.Text,
		HasTimestamps:   req.WithTimestamps,
		ModelUsed:       string(model),
		DurationSeconds: audio.Duration,
		FileSizeMB:      audio.SizeMB,
	}

	ctx = services.WithStage(ctx, "persist")
	var id int64
	if existing != nil {
		id, err = r.store.Overwrite(ctx, record)
	} else {
		id, err = r.store.Insert(ctx, record)
	}
	if err != nil {
		return nil, err
	}

	path, err := writeTranscriptFile(r.cfg, record)
	if err != nil {
		return nil, err
	}

	logger.Info("run complete",
		logging.Int64("transcript_id", id),
		logging.String("title", record.Title),
		logging.String("file", path),
	)
	return &Result{
		TranscriptID:   id,
		SourceID:       record.SourceID,
		Title:          record.Title,
		TranscriptPath: path,
		Model:          model,
		Duration:       audio.Duration,
		Characters:     len(record.Text),
	}, nil
}

func (r *Runner) download(ctx context.Context, url string) (*downloader.Audio, error) {
	ctx = services.WithStage(ctx, "download")
	ctx, cancel := r.stageContext(ctx, r.cfg.Download.TimeoutSeconds)
	defer cancel()
	return r.fetcher.Fetch(ctx, url)
}

func (r *Runner) transcribe(ctx context.Context, audio *downloader.Audio, opts transcriber.Options) (*transcriber.Result, error) {
	ctx = services.WithStage(ctx, "transcribe")
	ctx, cancel := r.stageContext(ctx, r.cfg.Whisper.TimeoutSeconds)
	defer cancel()
	return r.recognizer.Transcribe(ctx, audio.Path, opts)
}

func (r *Runner) stageContext(ctx context.Context, timeoutSeconds int) (context.Context, context.CancelFunc) {
	if timeoutSeconds <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Duration(timeoutSeconds)*time.Second)
}

func (r *Runner) resolveModel(override string) (transcriber.ModelSize, error) {
	name := override
	if name == "" {
		name = r.cfg.Whisper.Model
	}
	return transcriber.ParseModelSize(name)
}

func (r *Runner) resolveLanguage(override string) string {
	if override != "" {
		return override
	}
	return r.cfg.Whisper.Language
}

package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"scribe/internal/config"
	"scribe/internal/downloader"
	"scribe/internal/logging"
	"scribe/internal/pipeline"
	"scribe/internal/services"
	"scribe/internal/store"
	"scribe/internal/testsupport"
	"scribe/internal/transcriber"
)

type fakeFetcher struct {
	cfg      *config.Config
	sourceID string
	title    string
	err      error

	fetched bool
	cleaned bool
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (*downloader.Audio, error) {
	f.fetched = true
	if f.err != nil {
		return nil, f.err
	}
	staging := filepath.Join(f.cfg.Paths.TempDir, "run-"+f.sourceID)
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return nil, err
	}
	audioPath := filepath.Join(staging, f.sourceID+".mp3")
	if err := os.WriteFile(audioPath, []byte("audio"), 0o644); err != nil {
		return nil, err
	}
	return &downloader.Audio{
		Path:       audioPath,
		StagingDir: staging,
		Title:      f.title,
		SourceID:   f.sourceID,
		SourceURL:  url,
		Duration:   321,
		SizeMB:     4.2,
	}, nil
}

func (f *fakeFetcher) Cleanup(audio *downloader.Audio) error {
	f.cleaned = true
	if audio == nil {
		return nil
	}
	return os.RemoveAll(audio.StagingDir)
}

type fakeRecognizer struct {
	text string
	err  error
}

func (f *fakeRecognizer) Transcribe(ctx context.Context, audioPath string, opts transcriber.Options) (*transcriber.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	text := f.text
	if opts.WithTimestamps {
		text = "[00:00] " + text
	}
	return &transcriber.Result{Text: text, Language: "en", Model: opts.Model}, nil
}

func newRunner(t *testing.T, cfg *config.Config, st *store.Store, fetcher pipeline.AudioFetcher, recognizer pipeline.SpeechRecognizer) *pipeline.Runner {
	t.Helper()
	runner, err := pipeline.New(cfg, st, fetcher, recognizer, logging.NewNop())
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	return runner
}

func stagingEntries(t *testing.T, cfg *config.Config) int {
	t.Helper()
	entries, err := os.ReadDir(cfg.Paths.TempDir)
	if err != nil {
		t.Fatalf("read staging dir: %v", err)
	}
	return len(entries)
}

func TestRunFullSuccess(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	st := testsupport.MustOpenStore(t, cfg)
	fetcher := &fakeFetcher{cfg: cfg, sourceID: "abc123", title: "Episode One"}
	runner := newRunner(t, cfg, st, fetcher, &fakeRecognizer{text: "hello world"})

	result, err := runner.Run(context.Background(), pipeline.Request{URL: "https://example.com/v/abc123"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Duplicate {
		t.Fatal("unexpected duplicate result")
	}
	if result.TranscriptID == 0 {
		t.Fatal("expected a transcript id")
	}
	if result.Model != transcriber.ModelBase {
		t.Fatalf("model = %q", result.Model)
	}

	record, err := st.GetByID(context.Background(), result.TranscriptID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if record == nil || record.Text != "hello world" || record.SourceID != "abc123" {
		t.Fatalf("stored record: %#v", record)
	}
	if record.DurationSeconds != 321 || record.FileSizeMB != 4.2 {
		t.Fatalf("source metadata not persisted: %#v", record)
	}

	data, err := os.ReadFile(result.TranscriptPath)
	if err != nil {
		t.Fatalf("read transcript file: %v", err)
	}
	if strings.TrimSpace(string(data)) != "hello world" {
		t.Fatalf("transcript file = %q", data)
	}
	if filepath.Base(result.TranscriptPath) != "Episode One.txt" {
		t.Fatalf("transcript file name = %q", result.TranscriptPath)
	}

	if !fetcher.cleaned {
		t.Fatal("staging dir not cleaned up")
	}
	if n := stagingEntries(t, cfg); n != 0 {
		t.Fatalf("staging dir has %d leftover entries", n)
	}
}

func TestRunTimestampedNamesFile(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	st := testsupport.MustOpenStore(t, cfg)
	fetcher := &fakeFetcher{cfg: cfg, sourceID: "ts1", title: "Talk"}
	runner := newRunner(t, cfg, st, fetcher, &fakeRecognizer{text: "first words"})

	result, err := runner.Run(context.Background(), pipeline.Request{
		URL:            "https://example.com/v/ts1",
		WithTimestamps: true,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if filepath.Base(result.TranscriptPath) != "Talk.timestamped.txt" {
		t.Fatalf("transcript file name = %q", result.TranscriptPath)
	}
	data, err := os.ReadFile(result.TranscriptPath)
	if err != nil {
		t.Fatalf("read transcript file: %v", err)
	}
	if !strings.HasPrefix(string(data), "[00:00] ") {
		t.Fatalf("timestamped file = %q", data)
	}
	record, err := st.GetByID(context.Background(), result.TranscriptID)
	if err != nil || record == nil {
		t.Fatalf("GetByID: %v, %#v", err, record)
	}
	if !record.HasTimestamps {
		t.Fatal("HasTimestamps not persisted")
	}
}

func TestRunDuplicateStopsWithoutError(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	st := testsupport.MustOpenStore(t, cfg)
	existing := testsupport.InsertTranscript(t, st, "dup42", "Original", "original text")

	fetcher := &fakeFetcher{cfg: cfg, sourceID: "dup42", title: "Replacement"}
	runner := newRunner(t, cfg, st, fetcher, &fakeRecognizer{text: "replacement text"})

	result, err := runner.Run(context.Background(), pipeline.Request{URL: "https://example.com/v/dup42"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.Duplicate {
		t.Fatal("expected duplicate result")
	}
	if result.TranscriptID != existing.ID {
		t.Fatalf("duplicate id = %d, want %d", result.TranscriptID, existing.ID)
	}

	record, err := st.FindBySourceID(context.Background(), "dup42")
	if err != nil {
		t.Fatalf("FindBySourceID: %v", err)
	}
	if record.Text != "original text" {
		t.Fatalf("stored text changed: %q", record.Text)
	}
	if !fetcher.cleaned {
		t.Fatal("staging dir not cleaned up on duplicate")
	}
	if n := stagingEntries(t, cfg); n != 0 {
		t.Fatalf("staging dir has %d leftover entries", n)
	}
}

func TestRunOverwriteReplacesRecord(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	st := testsupport.MustOpenStore(t, cfg)
	existing := testsupport.InsertTranscript(t, st, "ow7", "Old Title", "old text")

	fetcher := &fakeFetcher{cfg: cfg, sourceID: "ow7", title: "New Title"}
	runner := newRunner(t, cfg, st, fetcher, &fakeRecognizer{text: "new text"})

	result, err := runner.Run(context.Background(), pipeline.Request{
		URL:       "https://example.com/v/ow7",
		Overwrite: true,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Duplicate {
		t.Fatal("overwrite run reported duplicate")
	}
	if result.TranscriptID != existing.ID {
		t.Fatalf("overwrite changed id: %d, want %d", result.TranscriptID, existing.ID)
	}

	all, err := st.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected one record after overwrite, got %d", len(all))
	}
	if all[0].Text != "new text" || all[0].Title != "New Title" {
		t.Fatalf("record not replaced: %#v", all[0])
	}
}

func TestRunDownloadFailureLeavesNothing(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	st := testsupport.MustOpenStore(t, cfg)
	fetchErr := services.Wrap(services.ErrDownload, "download", "yt-dlp", "unreachable", errors.New("exit status 1"))
	fetcher := &fakeFetcher{cfg: cfg, err: fetchErr}
	runner := newRunner(t, cfg, st, fetcher, &fakeRecognizer{text: "unused"})

	_, err := runner.Run(context.Background(), pipeline.Request{URL: "https://example.com/v/broken"})
	if !errors.Is(err, services.ErrDownload) {
		t.Fatalf("expected ErrDownload, got %v", err)
	}

	all, listErr := st.List(context.Background())
	if listErr != nil {
		t.Fatalf("List: %v", listErr)
	}
	if len(all) != 0 {
		t.Fatalf("expected no records, got %d", len(all))
	}
	entries, readErr := os.ReadDir(cfg.Paths.TranscriptsDir)
	if readErr != nil {
		t.Fatalf("read transcripts dir: %v", readErr)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no transcript files, got %d", len(entries))
	}
}

func TestRunTranscriptionFailureCleansStaging(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	st := testsupport.MustOpenStore(t, cfg)
	fetcher := &fakeFetcher{cfg: cfg, sourceID: "fail9", title: "Doomed"}
	recErr := services.Wrap(services.ErrTranscription, "transcribe", "whisper", "fail9.mp3", errors.New("exit status 2"))
	runner := newRunner(t, cfg, st, fetcher, &fakeRecognizer{err: recErr})

	_, err := runner.Run(context.Background(), pipeline.Request{URL: "https://example.com/v/fail9"})
	if !errors.Is(err, services.ErrTranscription) {
		t.Fatalf("expected ErrTranscription, got %v", err)
	}

	if !fetcher.cleaned {
		t.Fatal("staging dir not cleaned up after transcription failure")
	}
	if n := stagingEntries(t, cfg); n != 0 {
		t.Fatalf("staging dir has %d leftover entries", n)
	}
	all, listErr := st.List(context.Background())
	if listErr != nil {
		t.Fatalf("List: %v", listErr)
	}
	if len(all) != 0 {
		t.Fatalf("expected no records, got %d", len(all))
	}
}

func TestRunRejectsUnknownModel(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	st := testsupport.MustOpenStore(t, cfg)
	fetcher := &fakeFetcher{cfg: cfg, sourceID: "m1", title: "Any"}
	runner := newRunner(t, cfg, st, fetcher, &fakeRecognizer{text: "any"})

	_, err := runner.Run(context.Background(), pipeline.Request{
		URL:   "https://example.com/v/m1",
		Model: "enormous",
	})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	if fetcher.fetched {
		t.Fatal("download started despite invalid model")
	}
}

func TestRunRefusesConcurrentRuns(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	st := testsupport.MustOpenStore(t, cfg)
	fetcher := &fakeFetcher{cfg: cfg, sourceID: "lk1", title: "Locked"}
	runner := newRunner(t, cfg, st, fetcher, &fakeRecognizer{text: "text"})

	holder := flock.New(cfg.LockPath())
	locked, err := holder.TryLock()
	if err != nil || !locked {
		t.Fatalf("acquire holder lock: locked=%v err=%v", locked, err)
	}
	defer func() {
		_ = holder.Unlock()
	}()

	if _, err := runner.Run(context.Background(), pipeline.Request{URL: "https://example.com/v/lk1"}); err == nil {
		t.Fatal("expected error while lock is held")
	}
	if fetcher.fetched {
		t.Fatal("download started despite held lock")
	}
}

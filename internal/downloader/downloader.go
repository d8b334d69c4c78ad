package downloader

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"scribe/internal/config"
	"scribe/internal/fileutil"
	"scribe/internal/logging"
	"scribe/internal/services"
)

const stage = "download"

// Audio describes a fetched audio track staged on disk.
type Audio struct {
	// Path is the downloaded audio file.
	Path string
	// StagingDir is the per-run directory holding Path; removing it releases
	// everything the download produced.
	StagingDir string
	Title      string
	SourceID   string
	SourceURL  string
	// Duration is the audio length in seconds as reported by the source.
	Duration float64
	SizeMB   float64
}

// CommandRunner executes an external command and returns its stdout.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Downloader wraps yt-dlp invocations.
type Downloader struct {
	binary       string
	audioFormat  string
	audioQuality string
	tempDir      string
	logger       *slog.Logger
	runner       CommandRunner
}

// New creates a Downloader from configuration.
func New(cfg *config.Config, logger *slog.Logger) *Downloader {
	return &Downloader{
		binary:       cfg.DownloadBinary(),
		audioFormat:  cfg.Download.AudioFormat,
		audioQuality: cfg.Download.AudioQuality,
		tempDir:      cfg.Paths.TempDir,
		logger:       logging.NewComponentLogger(logger, "downloader"),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (d *Downloader) WithCommandRunner(runner CommandRunner) {
	d.runner = runner
}

// Fetch downloads the audio track for url into a fresh staging directory and
// returns its location plus source metadata. On failure the staging directory
// is removed before the error propagates, so no partial files survive.
func (d *Downloader) Fetch(ctx context.Context, url string) (*Audio, error) {
	if strings.TrimSpace(url) == "" {
		return nil, services.Wrap(services.ErrDownload, stage, "", "url is empty", nil)
	}

	stagingDir := filepath.Join(d.tempDir, uuid.NewString())
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrDownload, stage, "prepare staging dir", "", err)
	}

	logger := logging.WithContext(ctx, d.logger)
	logger.Info("downloading audio", logging.String("url", url), logging.String("dir", stagingDir))

	args := d.buildArgs(url, stagingDir)
	output, err := d.run(ctx, d.binary, args...)
	if err != nil {
		// Best-effort removal of whatever yt-dlp left behind.
		_ = fileutil.RemoveAllIfExists(stagingDir)
		marker := services.Classify(ctx, services.ErrDownload, err)
		return nil, services.Wrap(marker, stage, d.binary, url, err)
	}

	info, err := parseInfo(output)
	if err != nil {
		_ = fileutil.RemoveAllIfExists(stagingDir)
		return nil, services.Wrap(services.ErrDownload, stage, "parse metadata", url, err)
	}

	audioPath, err := locateAudioFile(stagingDir, info, d.audioFormat)
	if err != nil {
		_ = fileutil.RemoveAllIfExists(stagingDir)
		return nil, services.Wrap(services.ErrDownload, stage, "locate audio", url, err)
	}

	audio := &Audio{
		Path:       audioPath,
		StagingDir: stagingDir,
		Title:      info.title(audioPath),
		SourceID:   info.ID,
		SourceURL:  url,
		Duration:   info.Duration,
	}
	if stat, err := os.Stat(audioPath); err == nil {
		audio.SizeMB = float64(stat.Size()) / (1024 * 1024)
	}

	logger.Info("download complete",
		logging.String("title", audio.Title),
		logging.Float64("duration_seconds", audio.Duration),
		logging.Float64("size_mb", audio.SizeMB),
	)
	return audio, nil
}

// Cleanup removes the staging directory for a fetched audio track. Missing
// directories are not an error, so Cleanup is safe on every exit path.
func (d *Downloader) Cleanup(audio *Audio) error {
	if audio == nil || audio.StagingDir == "" {
		return nil
	}
	if err := fileutil.RemoveAllIfExists(audio.StagingDir); err != nil {
		return fmt.Errorf("remove staging dir %s: %w", audio.StagingDir, err)
	}
	return nil
}

func (d *Downloader) buildArgs(url, stagingDir string) []string {
	return []string{
		"--extract-audio",
		"--audio-format", d.audioFormat,
		"--audio-quality", d.audioQuality,
		"--no-playlist",
		"--no-warnings",
		"--print-json",
		"--output", filepath.Join(stagingDir, "%(id)s.%(ext)s"),
		url,
	}
}

func (d *Downloader) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if d.runner != nil {
		return d.runner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return nil, fmt.Errorf("%s: %w: %s", name, err, detail)
	}
	return stdout.Bytes(), nil
}

// locateAudioFile resolves the post-processed audio file. yt-dlp reports the
// pre-extraction filename, so the extension is swapped for the audio format;
// when that misses, the staging dir is scanned for the single file a
// successful run leaves behind.
func locateAudioFile(stagingDir string, info *sourceInfo, audioFormat string) (string, error) {
	if info.Filename != "" {
		base := strings.TrimSuffix(info.Filename, filepath.Ext(info.Filename))
		candidate := base + "." + audioFormat
		if fileutil.Exists(candidate) {
			return candidate, nil
		}
		if fileutil.Exists(info.Filename) {
			return info.Filename, nil
		}
	}

	entries, err := os.ReadDir(stagingDir)
	if err != nil {
		return "", fmt.Errorf("read staging dir: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() {
			files = append(files, filepath.Join(stagingDir, entry.Name()))
		}
	}
	if len(files) != 1 {
		return "", fmt.Errorf("no audio stream downloaded (%d files in staging dir)", len(files))
	}
	return files[0], nil
}

package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scribe/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	// Defaults are tilde paths; run them through the normal load path.
	loaded, _, exists, err := config.Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("empty path marker should report missing file")
	}
	if loaded.Whisper.Model != cfg.Whisper.Model {
		t.Fatalf("default model = %q, want %q", loaded.Whisper.Model, cfg.Whisper.Model)
	}
	if loaded.Download.TimeoutSeconds != 1800 {
		t.Fatalf("default download timeout = %d", loaded.Download.TimeoutSeconds)
	}
}

func TestLoadParsesAndExpands(t *testing.T) {
	dir := t.TempDir()
	content := `
[paths]
temp_dir = "` + filepath.Join(dir, "staging") + `"
data_dir = "` + filepath.Join(dir, "data") + `"
transcripts_dir = "` + filepath.Join(dir, "transcripts") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[whisper]
model = "SMALL"

[download]
timeout_seconds = 60
`
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved = %q exists = %v", resolved, exists)
	}
	if cfg.Whisper.Model != "small" {
		t.Fatalf("model not lowercased: %q", cfg.Whisper.Model)
	}
	if cfg.Download.TimeoutSeconds != 60 {
		t.Fatalf("timeout = %d", cfg.Download.TimeoutSeconds)
	}
	if cfg.DatabasePath() != filepath.Join(dir, "data", "transcripts.db") {
		t.Fatalf("db path = %q", cfg.DatabasePath())
	}
}

func TestLoadRejectsUnknownModel(t *testing.T) {
	path := writeConfig(t, "[whisper]\nmodel = \"enormous\"\n")
	if _, _, _, err := config.Load(path); err == nil || !strings.Contains(err.Error(), "whisper.model") {
		t.Fatalf("expected model validation error, got %v", err)
	}
}

func TestLoadRejectsSharedTempAndTranscriptDirs(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `
[paths]
temp_dir = "`+dir+`"
transcripts_dir = "`+dir+`"
`)
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error for shared directories")
	}
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.TempDir = filepath.Join(dir, "staging")
	cfg.Paths.DataDir = filepath.Join(dir, "data")
	cfg.Paths.TranscriptsDir = filepath.Join(dir, "transcripts")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, d := range []string{cfg.Paths.TempDir, cfg.Paths.DataDir, cfg.Paths.TranscriptsDir, cfg.Paths.LogDir} {
		if info, err := os.Stat(d); err != nil || !info.IsDir() {
			t.Fatalf("directory %q missing: %v", d, err)
		}
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("sample config does not load cleanly: exists=%v err=%v", exists, err)
	}
}

// writeConfig writes content to a temp config file and returns its path.
// Empty content yields a path to a file that does not exist.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if content == "" {
		return path
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

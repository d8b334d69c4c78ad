package pipeline

import (
	"path/filepath"

	"scribe/internal/config"
	"scribe/internal/fileutil"
	"scribe/internal/services"
	"scribe/internal/store"
	"scribe/internal/textutil"
)

// writeTranscriptFile renders the stored transcript into the transcripts
// directory. Timestamped transcripts get a distinct suffix so both renderings
// of a source can coexist.
func writeTranscriptFile(cfg *config.Config, record *store.Transcript) (string, error) {
	name := textutil.SanitizeFileName(record.Title)
	if name == "" {
		name = record.SourceID
	}
	suffix := ".txt"
	if record.HasTimestamps {
		suffix = ".timestamped.txt"
	}
	path := filepath.Join(cfg.Paths.TranscriptsDir, name+suffix)
	if err := fileutil.WriteFileAtomic(path, []byte(record.Text+"\n"), 0o644); err != nil {
		return "", services.Wrap(services.ErrStore, "persist", "write transcript file", path, err)
	}
	return path, nil
}

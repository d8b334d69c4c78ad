package store

import "time"

// Transcript is the one persisted entity: a single transcription of a single
// source, immutable after creation except for an explicit re-transcription
// overwrite.
type Transcript struct {
	ID              int64
	SourceURL       string
	SourceID        string
	Title           string
	Text            string
	HasTimestamps   bool
	ModelUsed       string
	CreatedAt       time.Time
	DurationSeconds float64
	FileSizeMB      float64
}

// Stats summarizes database state for diagnostic output.
type Stats struct {
	Records int
	DBPath  string
}

// Health reports diagnostic information about the transcript database.
type Health struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TableExists      bool
	IntegrityCheck   bool
	TotalRecords     int
	Error            string
}

// Package store persists transcript records in a local SQLite database.
//
// The database lives at Config.DatabasePath() and holds exactly one table of
// transcripts plus a schema version marker. All operations are synchronous
// and transactional at single-record granularity; WAL journaling plus a busy
// retry loop keep a second process from observing half-written rows.
//
// Duplicate detection is keyed on source_id: Insert refuses a second record
// for a known source, Overwrite updates it in place. Either way there is
// never more than one row per source.
package store

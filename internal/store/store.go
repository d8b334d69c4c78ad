package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"scribe/internal/config"
	"scribe/internal/services"
)

// Store manages transcript persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the transcript database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.DatabasePath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Insert persists a new transcript record, assigning id and created_at.
// A record whose source_id already exists yields services.ErrDuplicate.
func (s *Store) Insert(ctx context.Context, record *Transcript) (int64, error) {
	if err := validateRecord(record); err != nil {
		return 0, err
	}

	record.CreatedAt = time.Now().UTC()
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO transcripts (
            source_url, source_id, title, transcript, has_timestamps,
            model_used, created_at, duration_seconds, file_size_mb
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.SourceURL,
		record.SourceID,
		record.Title,
		record.Text,
		boolToInt(record.HasTimestamps),
		record.ModelUsed,
		record.CreatedAt.Format(time.RFC3339Nano),
		record.DurationSeconds,
		record.FileSizeMB,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: source %s", services.ErrDuplicate, record.SourceID)
		}
		return 0, fmt.Errorf("insert transcript: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	record.ID = id
	return id, nil
}

// Overwrite replaces the stored transcript for record.SourceID, preserving
// the row id and refreshing created_at. When no record exists yet it behaves
// like Insert.
func (s *Store) Overwrite(ctx context.Context, record *Transcript) (int64, error) {
	if err := validateRecord(record); err != nil {
		return 0, err
	}

	record.CreatedAt = time.Now().UTC()
	res, err := s.execWithRetry(
		ctx,
		`UPDATE transcripts
         SET source_url = ?, title = ?, transcript = ?, has_timestamps = ?,
             model_used = ?, created_at = ?, duration_seconds = ?, file_size_mb = ?
         WHERE source_id = ?`,
		record.SourceURL,
		record.Title,
		record.Text,
		boolToInt(record.HasTimestamps),
		record.ModelUsed,
		record.CreatedAt.Format(time.RFC3339Nano),
		record.DurationSeconds,
		record.FileSizeMB,
		record.SourceID,
	)
	if err != nil {
		return 0, fmt.Errorf("overwrite transcript: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return s.Insert(ctx, record)
	}

	existing, err := s.FindBySourceID(ctx, record.SourceID)
	if err != nil {
		return 0, err
	}
	record.ID = existing.ID
	return existing.ID, nil
}

// FindBySourceID returns the record for a source identifier, or nil when the
// source has not been transcribed.
func (s *Store) FindBySourceID(ctx context.Context, sourceID string) (*Transcript, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+transcriptColumns+` FROM transcripts WHERE source_id = ?`,
		sourceID,
	)
	record, err := scanTranscript(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by source id: %w", err)
	}
	return record, nil
}

// GetByID fetches a transcript by row identifier, or nil when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*Transcript, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+transcriptColumns+` FROM transcripts WHERE id = ?`, id)
	record, err := scanTranscript(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get transcript: %w", err)
	}
	return record, nil
}

// List returns all transcripts ordered by creation time, newest first.
func (s *Store) List(ctx context.Context) ([]*Transcript, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+transcriptColumns+` FROM transcripts ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list transcripts: %w", err)
	}
	defer rows.Close()
	return collectTranscripts(rows)
}

// Search returns transcripts whose title or text contains the keyword,
// case-insensitively, newest first.
func (s *Store) Search(ctx context.Context, keyword string) ([]*Transcript, error) {
	pattern := "%" + escapeLike(strings.ToLower(keyword)) + "%"
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+transcriptColumns+` FROM transcripts
         WHERE LOWER(title) LIKE ? ESCAPE '\' OR LOWER(transcript) LIKE ? ESCAPE '\'
         ORDER BY created_at DESC, id DESC`,
		pattern,
		pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("search transcripts: %w", err)
	}
	defer rows.Close()
	return collectTranscripts(rows)
}

// Remove deletes a transcript by identifier. Deletion is an administrative
// action; the pipeline never calls it.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM transcripts WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete transcript: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Stats returns record count and database location for diagnostics.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{DBPath: s.path}
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM transcripts`)
	if err := row.Scan(&stats.Records); err != nil {
		return stats, fmt.Errorf("count transcripts: %w", err)
	}
	return stats, nil
}

// CheckHealth returns diagnostic information about the transcript database.
func (s *Store) CheckHealth(ctx context.Context) (Health, error) {
	health := Health{DBPath: s.path}

	if s.path == "" {
		return health, errors.New("database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return health, nil
		}
		return health, fmt.Errorf("stat database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	connCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping database: %w", err)
	}
	health.DatabaseReadable = true

	var tableName string
	row := s.db.QueryRowContext(connCtx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'transcripts'")
	if err := row.Scan(&tableName); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			health.Error = err.Error()
			return health, fmt.Errorf("query table info: %w", err)
		}
	} else {
		health.TableExists = true
	}

	if health.TableExists {
		row = s.db.QueryRowContext(connCtx, "SELECT COUNT(*) FROM transcripts")
		if err := row.Scan(&health.TotalRecords); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("count transcripts: %w", err)
		}
	}

	row = s.db.QueryRowContext(connCtx, "PRAGMA integrity_check")
	var integrityResult string
	if err := row.Scan(&integrityResult); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityCheck = strings.EqualFold(integrityResult, "ok")

	return health, nil
}

func validateRecord(record *Transcript) error {
	if record == nil {
		return errors.New("record is nil")
	}
	if strings.TrimSpace(record.SourceID) == "" {
		return errors.New("source_id is required")
	}
	if strings.TrimSpace(record.Text) == "" {
		return errors.New("transcript text is empty")
	}
	return nil
}

const transcriptColumns = "id, source_url, source_id, title, transcript, has_timestamps, model_used, created_at, duration_seconds, file_size_mb"

func scanTranscript(scanner interface{ Scan(dest ...any) error }) (*Transcript, error) {
	var (
		record     Transcript
		timestamps int
		createdRaw string
	)
	if err := scanner.Scan(
		&record.ID,
		&record.SourceURL,
		&record.SourceID,
		&record.Title,
		&record.Text,
		&timestamps,
		&record.ModelUsed,
		&createdRaw,
		&record.DurationSeconds,
		&record.FileSizeMB,
	); err != nil {
		return nil, err
	}
	record.HasTimestamps = timestamps != 0
	if created, err := parseTimeString(createdRaw); err == nil {
		record.CreatedAt = created
	}
	return &record, nil
}

func collectTranscripts(rows *sql.Rows) ([]*Transcript, error) {
	var records []*Transcript
	for rows.Next() {
		record, err := scanTranscript(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) {
		// 2067 = SQLITE_CONSTRAINT_UNIQUE, 19 = SQLITE_CONSTRAINT
		if code := coder.Code(); code == 2067 || code == 19 {
			return true
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

package testsupport

import (
	"context"
	"testing"

	"scribe/internal/config"
	"scribe/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	s, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

// InsertTranscript creates a transcript record for tests using the provided store.
func InsertTranscript(t testing.TB, s *store.Store, sourceID, title, text string) *store.Transcript {
	t.Helper()

	record := &store.Transcript{
		SourceURL: "https://example.com/watch?v=" + sourceID,
		SourceID:  sourceID,
		Title:     title,
		Text:      text,
		ModelUsed: "base",
	}
	if _, err := s.Insert(context.Background(), record); err != nil {
		t.Fatalf("store.Insert: %v", err)
	}
	return record
}

package testsupport

import (
	"context"
	"testing"

	"doiupdate/internal/config"
	"doiupdate/internal/journal"
)

// MustOpenJournal opens a journal.Store for tests and registers cleanup.
func MustOpenJournal(t testing.TB, cfg *config.Config) *journal.Store {
	t.Helper()

	store, err := journal.Open(context.Background(), cfg.JournalPath())
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustListJournal returns every journal entry for doi, newest first.
func MustListJournal(t testing.TB, store *journal.Store, doi string) []journal.Entry {
	t.Helper()

	entries, err := store.List(context.Background(), journal.Filter{DOI: doi, Limit: 1000})
	if err != nil {
		t.Fatalf("journal.List: %v", err)
	}
	return entries
}

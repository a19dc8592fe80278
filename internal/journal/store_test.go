package journal_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"doiupdate/internal/doi"
	"doiupdate/internal/journal"
	"doiupdate/internal/testsupport"
)

func TestAppendAndList(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJournal(t, cfg)
	ctx := context.Background()

	first, err := store.Append(ctx, journal.Entry{
		DOI:       "10.1/ABC",
		Mode:      journal.ModeUpdate,
		FromState: doi.StateDraft,
		ToState:   doi.StateFindable,
		Event:     doi.EventPublish,
		FromURL:   "X",
		ToURL:     "X",
		Outcome:   journal.OutcomeSubmitted,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.False(t, first.RecordedAt.IsZero())

	_, err = store.Append(ctx, journal.Entry{
		DOI:        "10.1/ABC",
		RunID:      "run-1",
		Mode:       journal.ModeBatch,
		FromState:  doi.StateFindable,
		ToState:    doi.StateDraft,
		Outcome:    journal.OutcomeFailed,
		Error:      "invalid state transition",
		RecordedAt: first.RecordedAt.Add(time.Second),
	})
	require.NoError(t, err)

	_, err = store.Append(ctx, journal.Entry{DOI: "10.2/OTHER", Mode: journal.ModeUpdate, FromState: doi.StateDraft, ToState: doi.StateDraft, Outcome: journal.OutcomeSkipped})
	require.NoError(t, err)

	entries := testsupport.MustListJournal(t, store, "10.1/abc")
	require.Len(t, entries, 2)
	assert.Equal(t, journal.OutcomeFailed, entries[0].Outcome)
	assert.Equal(t, "run-1", entries[0].RunID)
	assert.Equal(t, "invalid state transition", entries[0].Error)
	assert.Empty(t, entries[0].Event)

	assert.Equal(t, first.ID, entries[1].ID)
	assert.Equal(t, doi.EventPublish, entries[1].Event)
	assert.Equal(t, journal.ModeUpdate, entries[1].Mode)
	assert.Equal(t, "X", entries[1].ToURL)
	assert.WithinDuration(t, first.RecordedAt, entries[1].RecordedAt, time.Microsecond)

	all, err := store.List(ctx, journal.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	limited, err := store.List(ctx, journal.Filter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestAppendRequiresDOI(t *testing.T) {
	store := testsupport.MustOpenJournal(t, testsupport.NewConfig(t))
	_, err := store.Append(context.Background(), journal.Entry{Outcome: journal.OutcomeFailed})
	require.Error(t, err)
}

func TestReopenKeepsEntries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	store, err := journal.Open(ctx, cfg.JournalPath())
	require.NoError(t, err)
	_, err = store.Append(ctx, journal.Entry{DOI: "10.1/ABC", Mode: journal.ModeUpdate, FromState: doi.StateDraft, ToState: doi.StateFindable, Outcome: journal.OutcomeSubmitted})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened := testsupport.MustOpenJournal(t, cfg)
	assert.Len(t, testsupport.MustListJournal(t, reopened, "10.1/ABC"), 1)
	assert.Equal(t, cfg.JournalPath(), reopened.Path())
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	store, err := journal.Open(ctx, cfg.JournalPath())
	require.NoError(t, err)
	require.NoError(t, store.Close())

	db, err := sql.Open("sqlite", cfg.JournalPath())
	require.NoError(t, err)
	_, err = db.Exec("UPDATE schema_version SET version = 99")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = journal.Open(ctx, cfg.JournalPath())
	require.ErrorIs(t, err, journal.ErrSchemaMismatch)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := journal.Open(context.Background(), " ")
	require.Error(t, err)
}

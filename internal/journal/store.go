package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"doiupdate/internal/doi"
)

// Store manages journal persistence backed by SQLite.
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

// timestampLayout is fixed width so recorded_at sorts lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Open initializes or connects to the journal database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("journal path required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(ctx); err != nil {
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

// Append records an entry, assigning an ID and timestamp when missing.
func (s *Store) Append(ctx context.Context, entry Entry) (Entry, error) {
	if strings.TrimSpace(entry.DOI) == "" {
		return Entry{}, errors.New("journal entry requires a doi")
	}
	if entry.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return Entry{}, fmt.Errorf("generate entry id: %w", err)
		}
		entry.ID = id.String()
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now()
	}
	entry.RecordedAt = entry.RecordedAt.UTC()

	err := s.execWithRetry(ctx,
		`INSERT INTO entries (id, run_id, doi, mode, from_state, to_state, event, from_url, to_url, outcome, error, recorded_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		nullableString(entry.RunID),
		entry.DOI,
		string(entry.Mode),
		string(entry.FromState),
		string(entry.ToState),
		nullableString(string(entry.Event)),
		nullableString(entry.FromURL),
		nullableString(entry.ToURL),
		string(entry.Outcome),
		nullableString(entry.Error),
		entry.RecordedAt.Format(timestampLayout),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("append journal entry: %w", err)
	}
	return entry, nil
}

// List returns entries newest first.
func (s *Store) List(ctx context.Context, filter Filter) ([]Entry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `SELECT id, run_id, doi, mode, from_state, to_state, event, from_url, to_url, outcome, error, recorded_at
        FROM entries`
	args := []any{}
	if id := strings.TrimSpace(filter.DOI); id != "" {
		query += ` WHERE doi = ? COLLATE NOCASE`
		args = append(args, id)
	}
	query += ` ORDER BY recorded_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal entries: %w", err)
	}
	return entries, nil
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var entry Entry
	var runID, event, fromURL, toURL, errText sql.NullString
	var mode, fromState, toState, outcome, stamp string
	if err := rows.Scan(&entry.ID, &runID, &entry.DOI, &mode, &fromState, &toState, &event, &fromURL, &toURL, &outcome, &errText, &stamp); err != nil {
		return Entry{}, fmt.Errorf("scan journal entry: %w", err)
	}
	recordedAt, err := time.Parse(timestampLayout, stamp)
	if err != nil {
		return Entry{}, fmt.Errorf("parse recorded_at %q: %w", stamp, err)
	}
	entry.RunID = runID.String
	entry.Mode = Mode(mode)
	entry.FromState = doi.State(fromState)
	entry.ToState = doi.State(toState)
	entry.Event = doi.Event(event.String)
	entry.FromURL = fromURL.String
	entry.ToURL = toURL.String
	entry.Outcome = Outcome(outcome)
	entry.Error = errText.String
	entry.RecordedAt = recordedAt
	return entry, nil
}

func nullableString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
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

// execWithRetry retries writes that hit SQLite lock contention.
func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		_, lastErr = s.db.ExecContext(ctx, query, args...)
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

package updater

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"doiupdate/internal/datacite"
	"doiupdate/internal/doi"
	"doiupdate/internal/journal"
	"doiupdate/internal/logging"
)

// Journal records update attempts.
type Journal interface {
	Append(ctx context.Context, entry journal.Entry) (journal.Entry, error)
}

// Changes lists the caller-requested modifications. Nil fields are left alone.
type Changes struct {
	State *doi.State
	URL   *string
}

// Empty reports whether no change was requested.
func (c Changes) Empty() bool {
	return c.State == nil && c.URL == nil
}

// Result holds the record before and, when an update was submitted, after.
type Result struct {
	Before *doi.Record
	After  *doi.Record
}

// Submitted reports whether the authority accepted an update.
func (r Result) Submitted() bool {
	return r.After != nil
}

// Updater drives single-DOI updates against the authority.
type Updater struct {
	store   datacite.Store
	journal Journal
	logger  *slog.Logger
}

// Option configures an Updater.
type Option func(*Updater)

// WithJournal records every attempt in j.
func WithJournal(j Journal) Option {
	return func(u *Updater) {
		u.journal = j
	}
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(u *Updater) {
		if logger != nil {
			u.logger = logger
		}
	}
}

// New builds an Updater over store.
func New(store datacite.Store, opts ...Option) *Updater {
	u := &Updater{
		store:  store,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(u)
	}
	u.logger = logging.NewComponentLogger(u.logger, "updater")
	return u
}

// Fetch returns the authority's current record for id.
func (u *Updater) Fetch(ctx context.Context, id string) (*doi.Record, error) {
	id = strings.TrimSpace(id)
	record, err := u.store.Fetch(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", id, err)
	}
	u.logFor(ctx, record.ID()).Info("fetched record",
		logging.String(logging.FieldState, record.CurrentState().String()),
		logging.String(logging.FieldURL, record.CurrentURL()),
	)
	return record, nil
}

// Update fetches id, applies changes, and submits the result. With no changes
// it only fetches. A change that leaves the record as it was fails with
// doi.ErrNoUpdate before anything is submitted.
func (u *Updater) Update(ctx context.Context, id string, changes Changes) (Result, error) {
	record, err := u.Fetch(ctx, id)
	if err != nil {
		return Result{}, err
	}
	result := Result{Before: record}
	if changes.Empty() {
		return result, nil
	}

	if changes.State != nil {
		record.SetDesiredState(*changes.State)
	}
	if changes.URL != nil {
		record.SetDesiredURL(*changes.URL)
	}

	after, err := u.submit(ctx, record, journal.ModeUpdate)
	if err != nil {
		return result, err
	}
	result.After = after
	return result, nil
}

// RetargetFileDOI moves the dataset that owns fileDOI out of the findable
// state and points its URL at the dataset's resolver address.
func (u *Updater) RetargetFileDOI(ctx context.Context, fileDOI string) (Result, error) {
	dataset := doi.DatasetDOI(strings.TrimSpace(fileDOI))
	if dataset == "" {
		return Result{}, fmt.Errorf("%w: %q has no parent dataset DOI", doi.ErrInvalidValue, fileDOI)
	}

	record, err := u.Fetch(ctx, dataset)
	if err != nil {
		return Result{}, err
	}
	result := Result{Before: record}

	if record.CurrentState() == doi.StateFindable {
		record.SetDesiredState(doi.StateRegistered)
	}
	record.SetDesiredURL(doi.ResolverURL(dataset))

	after, err := u.submit(ctx, record, journal.ModeBatch)
	if err != nil {
		return result, err
	}
	result.After = after
	return result, nil
}

func (u *Updater) submit(ctx context.Context, record *doi.Record, mode journal.Mode) (*doi.Record, error) {
	logger := u.logFor(ctx, record.ID())
	entry := journal.Entry{
		DOI:       record.ID(),
		Mode:      mode,
		FromState: record.CurrentState(),
		ToState:   record.DesiredState(),
		FromURL:   record.CurrentURL(),
		ToURL:     record.DesiredURL(),
	}
	if runID, ok := logging.RunIDFromContext(ctx); ok {
		entry.RunID = runID
	}

	payload, err := record.UpdatePayload()
	if err != nil {
		if errors.Is(err, doi.ErrNoUpdate) {
			logger.Info("no update necessary")
			entry.Outcome = journal.OutcomeSkipped
		} else {
			logger.Warn("update rejected", logging.Error(err))
			entry.Outcome = journal.OutcomeFailed
			entry.Error = err.Error()
		}
		u.record(ctx, logger, entry)
		return nil, err
	}
	entry.Event = payload.Data.Attributes.Event

	after, err := u.store.Submit(ctx, record)
	if err != nil {
		err = fmt.Errorf("submit %s: %w", record.ID(), err)
		logger.Warn("update failed", logging.Error(err))
		entry.Outcome = journal.OutcomeFailed
		entry.Error = err.Error()
		u.record(ctx, logger, entry)
		return nil, err
	}

	logger.Info("submitted update",
		logging.String(logging.FieldEvent, entry.Event.String()),
		logging.String(logging.FieldState, after.CurrentState().String()),
		logging.String(logging.FieldURL, after.CurrentURL()),
	)
	entry.Outcome = journal.OutcomeSubmitted
	u.record(ctx, logger, entry)
	return after, nil
}

// record writes to the journal; a journal failure is logged, not returned,
// because the authority already holds the outcome.
func (u *Updater) record(ctx context.Context, logger *slog.Logger, entry journal.Entry) {
	if u.journal == nil {
		return
	}
	if _, err := u.journal.Append(context.WithoutCancel(ctx), entry); err != nil {
		logger.Error("journal append failed", logging.Error(err))
	}
}

func (u *Updater) logFor(ctx context.Context, id string) *slog.Logger {
	return logging.WithContext(ctx, u.logger).With(logging.DOI(id))
}

package updater_test

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doiupdate/internal/datacite"
	"doiupdate/internal/doi"
	"doiupdate/internal/journal"
	"doiupdate/internal/logging"
	"doiupdate/internal/testsupport"
	"doiupdate/internal/updater"
)

type harness struct {
	fake    *testsupport.FakeDataCite
	journal *journal.Store
	updater *updater.Updater
	logs    *bytes.Buffer
}

func newHarness(t *testing.T) harness {
	t.Helper()
	fake := testsupport.NewFakeDataCite(t)
	cfg := testsupport.NewConfig(t, testsupport.WithBaseURL(fake.URL))
	store := testsupport.MustOpenJournal(t, cfg)

	client, err := datacite.New(cfg.DataCite.BaseURL, datacite.Credentials{Username: "u", Password: "p"})
	require.NoError(t, err)

	var logs bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &logs})
	require.NoError(t, err)

	return harness{
		fake:    fake,
		journal: store,
		updater: updater.New(client, updater.WithJournal(store), updater.WithLogger(logger)),
		logs:    &logs,
	}
}

func statePtr(s doi.State) *doi.State { return &s }

func strPtr(s string) *string { return &s }

func TestUpdatePublishesDraft(t *testing.T) {
	h := newHarness(t)
	h.fake.Put("10.1/ABC", doi.StateDraft, "X")

	result, err := h.updater.Update(context.Background(), "10.1/ABC", updater.Changes{State: statePtr(doi.StateFindable)})
	require.NoError(t, err)
	require.True(t, result.Submitted())
	assert.Equal(t, doi.StateDraft, result.Before.CurrentState())
	assert.Equal(t, doi.StateFindable, result.After.CurrentState())

	puts := h.fake.Puts()
	require.Len(t, puts, 1)
	assert.JSONEq(t, `{"data":{"type":"dois","attributes":{"event":"publish"}}}`, puts[0].Body)

	entries := testsupport.MustListJournal(t, h.journal, "10.1/ABC")
	require.Len(t, entries, 1)
	assert.Equal(t, journal.OutcomeSubmitted, entries[0].Outcome)
	assert.Equal(t, doi.EventPublish, entries[0].Event)
	assert.Contains(t, h.logs.String(), "updater [10.1/ABC]: submitted update")
}

func TestUpdateNoOpFailsBeforeSubmit(t *testing.T) {
	h := newHarness(t)
	h.fake.Put("10.1/ABC", doi.StateFindable, "X")

	result, err := h.updater.Update(context.Background(), "10.1/ABC", updater.Changes{State: statePtr(doi.StateFindable)})
	require.ErrorIs(t, err, doi.ErrNoUpdate)
	assert.False(t, result.Submitted())
	assert.Empty(t, h.fake.Puts())

	entries := testsupport.MustListJournal(t, h.journal, "10.1/ABC")
	require.Len(t, entries, 1)
	assert.Equal(t, journal.OutcomeSkipped, entries[0].Outcome)
}

func TestUpdateInvalidTransitionFailsBeforeSubmit(t *testing.T) {
	h := newHarness(t)
	h.fake.Put("10.1/ABC", doi.StateFindable, "X")

	_, err := h.updater.Update(context.Background(), "10.1/ABC", updater.Changes{
		State: statePtr(doi.StateDraft),
		URL:   strPtr("Y"),
	})
	require.ErrorIs(t, err, doi.ErrInvalidTransition)
	assert.Empty(t, h.fake.Puts())

	entries := testsupport.MustListJournal(t, h.journal, "10.1/ABC")
	require.Len(t, entries, 1)
	assert.Equal(t, journal.OutcomeFailed, entries[0].Outcome)
	assert.Contains(t, entries[0].Error, "invalid state transition")
}

func TestUpdateURLOnly(t *testing.T) {
	h := newHarness(t)
	h.fake.Put("10.1/ABC", doi.StateRegistered, "X")

	result, err := h.updater.Update(context.Background(), "10.1/ABC", updater.Changes{URL: strPtr("https://example.org/new")})
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/new", result.After.CurrentURL())
	assert.Equal(t, doi.StateRegistered, result.After.CurrentState())
	assert.JSONEq(t, `{"data":{"type":"dois","attributes":{"url":"https://example.org/new"}}}`, h.fake.Puts()[0].Body)
}

func TestUpdateWithoutChangesOnlyFetches(t *testing.T) {
	h := newHarness(t)
	h.fake.Put("10.1/ABC", doi.StateDraft, "X")

	result, err := h.updater.Update(context.Background(), "10.1/ABC", updater.Changes{})
	require.NoError(t, err)
	assert.False(t, result.Submitted())
	assert.Equal(t, "X", result.Before.CurrentURL())
	assert.Empty(t, h.fake.Puts())
	assert.Empty(t, testsupport.MustListJournal(t, h.journal, "10.1/ABC"))
}

func TestUpdateFetchFailure(t *testing.T) {
	h := newHarness(t)

	_, err := h.updater.Update(context.Background(), "10.1/MISSING", updater.Changes{State: statePtr(doi.StateFindable)})
	require.ErrorIs(t, err, datacite.ErrRemote)
	assert.Contains(t, err.Error(), "fetch 10.1/MISSING")
}

func TestUpdateFetchFailureIsNotJournaled(t *testing.T) {
	h := newHarness(t)
	h.fake.Put("10.1/ABC", doi.StateDraft, "X")

	rec, err := h.updater.Fetch(context.Background(), "10.1/ABC")
	require.NoError(t, err)
	require.Equal(t, doi.StateDraft, rec.CurrentState())

	h.fake.FailWith("10.1/ABC", http.StatusForbidden)
	_, err = h.updater.Update(context.Background(), "10.1/ABC", updater.Changes{URL: strPtr("Y")})
	require.ErrorIs(t, err, datacite.ErrRemote)
	// The failure hit the fetch, so nothing was journaled.
	assert.Empty(t, testsupport.MustListJournal(t, h.journal, "10.1/ABC"))
}

type failingStore struct {
	record *doi.Record
}

func (s failingStore) Fetch(context.Context, string) (*doi.Record, error) {
	return doi.NewRecord(s.record.ID(), s.record.CurrentState(), s.record.CurrentURL()), nil
}

func (s failingStore) Submit(_ context.Context, rec *doi.Record) (*doi.Record, error) {
	return nil, &datacite.RemoteError{Op: "submit", DOI: rec.ID(), StatusCode: http.StatusUnprocessableEntity, Body: `{"errors":[]}`}
}

func TestUpdateRemoteSubmitFailureIsJournaled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJournal(t, cfg)
	u := updater.New(failingStore{record: doi.NewRecord("10.1/ABC", doi.StateDraft, "X")}, updater.WithJournal(store))

	_, err := u.Update(context.Background(), "10.1/ABC", updater.Changes{State: statePtr(doi.StateRegistered)})
	var remote *datacite.RemoteError
	require.ErrorAs(t, err, &remote)

	entries := testsupport.MustListJournal(t, store, "10.1/ABC")
	require.Len(t, entries, 1)
	assert.Equal(t, journal.OutcomeFailed, entries[0].Outcome)
	assert.Equal(t, doi.EventRegister, entries[0].Event)
	assert.Contains(t, entries[0].Error, "datacite returned 422")
}

func TestRetargetFileDOIHidesFindableDataset(t *testing.T) {
	h := newHarness(t)
	h.fake.Put("10.1/ABC", doi.StateFindable, "https://repo.example.org/ds/1")

	ctx := logging.WithRunID(context.Background(), "run-7")
	result, err := h.updater.RetargetFileDOI(ctx, "https://doi.org/10.1/ABC/1")
	require.NoError(t, err)
	assert.Equal(t, doi.StateRegistered, result.After.CurrentState())
	assert.Equal(t, "https://doi.org/10.1/ABC", result.After.CurrentURL())

	puts := h.fake.Puts()
	require.Len(t, puts, 1)
	assert.Equal(t, "10.1/ABC", puts[0].DOI)
	assert.JSONEq(t, `{"data":{"type":"dois","attributes":{"event":"hide","url":"https://doi.org/10.1/ABC"}}}`, puts[0].Body)

	entries := testsupport.MustListJournal(t, h.journal, "10.1/ABC")
	require.Len(t, entries, 1)
	assert.Equal(t, journal.ModeBatch, entries[0].Mode)
	assert.Equal(t, "run-7", entries[0].RunID)
}

func TestRetargetFileDOIKeepsNonFindableState(t *testing.T) {
	h := newHarness(t)
	h.fake.Put("10.1/ABC", doi.StateDraft, "https://repo.example.org/ds/1")

	_, err := h.updater.RetargetFileDOI(context.Background(), "10.1/ABC/3")
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"type":"dois","attributes":{"url":"https://doi.org/10.1/ABC"}}}`, h.fake.Puts()[0].Body)

	rec, ok := h.fake.Get("10.1/ABC")
	require.True(t, ok)
	assert.Equal(t, doi.StateDraft, rec.State)
}

func TestRetargetFileDOIAlreadyDone(t *testing.T) {
	h := newHarness(t)
	h.fake.Put("10.1/ABC", doi.StateRegistered, "https://doi.org/10.1/ABC")

	_, err := h.updater.RetargetFileDOI(context.Background(), "10.1/ABC/3")
	require.ErrorIs(t, err, doi.ErrNoUpdate)
	assert.Empty(t, h.fake.Puts())
}

func TestRetargetFileDOIWithoutParent(t *testing.T) {
	h := newHarness(t)

	_, err := h.updater.RetargetFileDOI(context.Background(), "https://doi.org/10.1")
	require.ErrorIs(t, err, doi.ErrInvalidValue)
	assert.Empty(t, h.fake.Requests())
}

func TestUpdaterWithoutJournal(t *testing.T) {
	fake := testsupport.NewFakeDataCite(t)
	fake.Put("10.1/ABC", doi.StateDraft, "X")
	client, err := datacite.New(fake.URL, datacite.Credentials{Username: "u", Password: "p"})
	require.NoError(t, err)

	_, err = updater.New(client).Update(context.Background(), "10.1/ABC", updater.Changes{State: statePtr(doi.StateRegistered)})
	require.NoError(t, err)
	rec, _ := fake.Get("10.1/ABC")
	assert.Equal(t, doi.StateRegistered, rec.State)
}

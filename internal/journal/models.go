package journal

import (
	"time"

	"doiupdate/internal/doi"
)

// Outcome is the result of one update attempt.
type Outcome string

const (
	OutcomeSubmitted Outcome = "submitted"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
)

// Mode names the workflow that produced an entry.
type Mode string

const (
	ModeUpdate Mode = "update"
	ModeBatch  Mode = "batch"
)

// Entry is one journaled update attempt.
type Entry struct {
	ID         string
	RunID      string
	DOI        string
	Mode       Mode
	FromState  doi.State
	ToState    doi.State
	Event      doi.Event
	FromURL    string
	ToURL      string
	Outcome    Outcome
	Error      string
	RecordedAt time.Time
}

// Filter narrows List results.
type Filter struct {
	DOI   string
	Limit int
}

const defaultListLimit = 50

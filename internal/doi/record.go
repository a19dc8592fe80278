package doi

import (
	"fmt"
	"strings"
)

// ResolverPrefix is the public resolver URL prefix for DOIs.
const ResolverPrefix = "https://doi.org/"

// Record holds the current and desired snapshots of one DOI.
// The current snapshot is fixed at construction; callers change only the
// desired fields before building an update.
type Record struct {
	id           string
	currentState State
	desiredState State
	currentURL   string
	desiredURL   string
}

// NewRecord returns a record whose desired snapshot equals its current one.
func NewRecord(id string, state State, url string) *Record {
	return &Record{
		id:           id,
		currentState: state,
		desiredState: state,
		currentURL:   url,
		desiredURL:   url,
	}
}

// ID returns the DOI.
func (r *Record) ID() string { return r.id }

// CurrentState returns the state reported by the authority.
func (r *Record) CurrentState() State { return r.currentState }

// DesiredState returns the state the next update moves the DOI to.
func (r *Record) DesiredState() State { return r.desiredState }

// CurrentURL returns the target URL reported by the authority.
func (r *Record) CurrentURL() string { return r.currentURL }

// DesiredURL returns the target URL the next update sets.
func (r *Record) DesiredURL() string { return r.desiredURL }

// SetDesiredURL sets the target URL the next update should send.
func (r *Record) SetDesiredURL(url string) {
	r.desiredURL = url
}

// SetDesiredState sets the state the next update should move the DOI to.
func (r *Record) SetDesiredState(state State) {
	r.desiredState = state
}

// Changed reports whether the desired snapshot diverges from the current one.
func (r *Record) Changed() bool {
	return r.desiredState != r.currentState || r.desiredURL != r.currentURL
}

// PayloadType is the JSON:API resource type of a DOI record.
const PayloadType = "dois"

// Attributes carries the changed fields of an update request. URL is nil
// when the URL is unchanged; a non-nil empty string clears it.
type Attributes struct {
	Event Event   `json:"event,omitempty"`
	URL   *string `json:"url,omitempty"`
}

// PayloadData is the JSON:API resource object of an update request.
type PayloadData struct {
	Type       string     `json:"type"`
	Attributes Attributes `json:"attributes"`
}

// Payload is the request body for a DOI metadata update.
type Payload struct {
	Data PayloadData `json:"data"`
}

// UpdatePayload builds the minimal update request for the record.
// A state change is sent as the event resolved by ResolveEvent; a URL change
// is sent as the new URL. It returns ErrNoUpdate when nothing changed and
// ErrInvalidTransition when the state change has no event.
func (r *Record) UpdatePayload() (Payload, error) {
	stateChanged := r.desiredState != r.currentState
	urlChanged := r.desiredURL != r.currentURL
	if !stateChanged && !urlChanged {
		return Payload{}, fmt.Errorf("%s: %w", r.id, ErrNoUpdate)
	}

	payload := Payload{Data: PayloadData{Type: PayloadType}}
	if stateChanged {
		event, err := ResolveEvent(r.currentState, r.desiredState)
		if err != nil {
			return Payload{}, fmt.Errorf("%s: %w", r.id, err)
		}
		payload.Data.Attributes.Event = event
	}
	if urlChanged {
		url := r.desiredURL
		payload.Data.Attributes.URL = &url
	}
	return payload, nil
}

func (r *Record) String() string {
	return fmt.Sprintf("Metadata(state=%s, doi=%s, url=%s)", r.currentState, r.id, r.currentURL)
}

// DatasetDOI derives the parent dataset DOI from a file-level DOI by
// stripping the resolver prefix and dropping the last path segment.
// A DOI with a single segment yields the empty string.
func DatasetDOI(fileDOI string) string {
	id := strings.TrimPrefix(fileDOI, ResolverPrefix)
	parts := strings.Split(id, "/")
	return strings.Join(parts[:len(parts)-1], "/")
}

// ResolverURL returns the public resolver URL for a DOI.
func ResolverURL(id string) string {
	return ResolverPrefix + id
}

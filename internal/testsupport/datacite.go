package testsupport

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"doiupdate/internal/datacite"
	"doiupdate/internal/doi"
)

// FakeRecord is the server-side state of one DOI.
type FakeRecord struct {
	ID    string
	State doi.State
	URL   string
}

// Request captures one request received by FakeDataCite.
type Request struct {
	Method   string
	DOI      string
	Body     string
	Username string
	Password string
}

// FakeDataCite is an in-memory DataCite API that applies lifecycle events the
// way the real authority does.
type FakeDataCite struct {
	*httptest.Server

	mu       sync.Mutex
	records  map[string]FakeRecord
	requests []Request
	failures map[string]int
}

// NewFakeDataCite starts a fake server and registers cleanup.
func NewFakeDataCite(t testing.TB) *FakeDataCite {
	t.Helper()

	fake := &FakeDataCite{
		records:  make(map[string]FakeRecord),
		failures: make(map[string]int),
	}
	fake.Server = httptest.NewServer(http.HandlerFunc(fake.serve))
	t.Cleanup(fake.Close)
	return fake
}

// Put seeds or replaces a record.
func (f *FakeDataCite) Put(id string, state doi.State, url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[strings.ToLower(id)] = FakeRecord{ID: id, State: state, URL: url}
}

// Get returns the server-side record.
func (f *FakeDataCite) Get(id string) (FakeRecord, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[strings.ToLower(id)]
	return rec, ok
}

// FailWith makes every request for id answer with status.
func (f *FakeDataCite) FailWith(id string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[strings.ToLower(id)] = status
}

// Requests returns a copy of the received requests.
func (f *FakeDataCite) Requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Request, len(f.requests))
	copy(out, f.requests)
	return out
}

// Puts returns only the update requests.
func (f *FakeDataCite) Puts() []Request {
	var out []Request
	for _, req := range f.Requests() {
		if req.Method == http.MethodPut {
			out = append(out, req)
		}
	}
	return out
}

func (f *FakeDataCite) serve(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/dois/")
	key := strings.ToLower(id)
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	defer f.mu.Unlock()
	user, pass, ok := r.BasicAuth()
	f.requests = append(f.requests, Request{Method: r.Method, DOI: id, Body: string(body), Username: user, Password: pass})

	if !ok {
		writeError(w, http.StatusUnauthorized, "Bad credentials.")
		return
	}
	if status, ok := f.failures[key]; ok {
		writeError(w, status, "Injected failure.")
		return
	}
	rec, ok := f.records[key]
	if !ok {
		writeError(w, http.StatusNotFound, "The resource you are looking for doesn't exist.")
		return
	}

	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var payload doi.Payload
		if err := json.Unmarshal(body, &payload); err != nil || payload.Data.Type != doi.PayloadType {
			writeError(w, http.StatusBadRequest, "Invalid payload.")
			return
		}
		if event := payload.Data.Attributes.Event; event != "" {
			next, err := applyEvent(rec.State, event)
			if err != nil {
				writeError(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
			rec.State = next
		}
		if url := payload.Data.Attributes.URL; url != nil {
			rec.URL = *url
		}
		f.records[key] = rec
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
		return
	}

	w.Header().Set("Content-Type", datacite.MediaType)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": map[string]any{
			"id":   rec.ID,
			"type": "dois",
			"attributes": map[string]any{
				"doi":   rec.ID,
				"state": string(rec.State),
				"url":   rec.URL,
			},
		},
	})
}

func applyEvent(state doi.State, event doi.Event) (doi.State, error) {
	switch {
	case event == doi.EventPublish && state != doi.StateFindable:
		return doi.StateFindable, nil
	case event == doi.EventRegister && state == doi.StateDraft:
		return doi.StateRegistered, nil
	case event == doi.EventHide && state == doi.StateFindable:
		return doi.StateRegistered, nil
	}
	return state, fmt.Errorf("cannot %s a %s DOI", event, state)
}

func writeError(w http.ResponseWriter, status int, title string) {
	w.Header().Set("Content-Type", datacite.MediaType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"errors": []map[string]string{{"status": fmt.Sprint(status), "title": title}},
	})
}

package datacite

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"doiupdate/internal/doi"
)

// MediaType is the JSON:API media type the DataCite API speaks.
const MediaType = "application/vnd.api+json"

// DefaultBaseURL is the production DataCite REST API.
const DefaultBaseURL = "https://api.datacite.org"

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 64 << 10

// Store defines the DataCite operations used by the updater.
type Store interface {
	Fetch(ctx context.Context, id string) (*doi.Record, error)
	Submit(ctx context.Context, record *doi.Record) (*doi.Record, error)
}

// Client provides access to the DataCite DOI endpoints.
type Client struct {
	baseURL     string
	userAgent   string
	credentials Credentials
	httpClient  *http.Client
}

var _ Store = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if ua := strings.TrimSpace(userAgent); ua != "" {
			c.userAgent = ua
		}
	}
}

// New creates a DataCite client. An empty baseURL selects DefaultBaseURL.
func New(baseURL string, credentials Credentials, opts ...Option) (*Client, error) {
	if strings.TrimSpace(credentials.Username) == "" || credentials.Password == "" {
		return nil, errors.New("datacite credentials required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		userAgent:   "doiupdate",
		credentials: credentials,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type recordAttributes struct {
	State string `json:"state"`
	URL   string `json:"url"`
}

type recordData struct {
	ID         string           `json:"id"`
	Attributes recordAttributes `json:"attributes"`
}

type recordEnvelope struct {
	Data recordData `json:"data"`
}

// Fetch retrieves the current state and URL of a DOI.
func (c *Client) Fetch(ctx context.Context, id string) (*doi.Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("doi must not be empty")
	}
	req, err := c.newRequest(ctx, http.MethodGet, id, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req, "fetch", id)
}

// Submit sends the record's update payload and returns the resulting record.
// The payload is computed before any request is made, so ErrNoUpdate and
// ErrInvalidTransition never reach the network.
func (c *Client) Submit(ctx context.Context, record *doi.Record) (*doi.Record, error) {
	if record == nil {
		return nil, errors.New("record must not be nil")
	}
	payload, err := record.UpdatePayload()
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode update payload: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPut, record.ID(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", MediaType)
	return c.do(req, "submit", record.ID())
}

func (c *Client) newRequest(ctx context.Context, method, id string, body io.Reader) (*http.Request, error) {
	endpoint := c.baseURL + "/dois/" + escapeDOI(id)
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", MediaType)
	req.Header.Set("User-Agent", c.userAgent)
	req.SetBasicAuth(c.credentials.Username, c.credentials.Password)
	return req, nil
}

func (c *Client) do(req *http.Request, op, id string) (*doi.Record, error) {
	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("%s %s (latency=%v): %w", op, id, latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &RemoteError{Op: op, DOI: id, StatusCode: resp.StatusCode, Body: string(data)}
	}

	var envelope recordEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode datacite response for %s: %w", id, err)
	}
	return recordFromEnvelope(envelope)
}

func recordFromEnvelope(envelope recordEnvelope) (*doi.Record, error) {
	state, err := doi.ParseState(envelope.Data.Attributes.State)
	if err != nil {
		return nil, fmt.Errorf("datacite record %s: %w", envelope.Data.ID, err)
	}
	return doi.NewRecord(envelope.Data.ID, state, envelope.Data.Attributes.URL), nil
}

// escapeDOI keeps the DOI's slashes as path separators, matching the API's
// /dois/{prefix}/{suffix} routing, and escapes everything else.
func escapeDOI(id string) string {
	parts := strings.Split(id, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

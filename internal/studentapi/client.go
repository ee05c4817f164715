// Package studentapi is the typed client for the students REST resource.
//
// Four operations map onto four requests:
//
//	List    GET    /students
//	Create  POST   /students
//	Update  PUT    /students/{id}
//	Remove  DELETE /students/{id}
//
// Every failure (transport, non-2xx status, undecodable body) is returned as
// a *NetworkError. Nothing is retried.
package studentapi

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

	"github.com/aanand-mishra/student-portal/internal/types"
)

// DefaultBaseURL is where the development backend listens.
const DefaultBaseURL = "http://localhost:5000"

const resource = "students"

// ErrMissingID is returned by Update and Remove when no id was supplied.
var ErrMissingID = errors.New("studentapi: student id is required")

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for every request.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithTimeout bounds each request. Zero keeps the transport's default (none).
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// Client talks to one backend. It is safe for concurrent use.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	timeout    time.Duration
}

// New creates a Client for the backend at baseURL, e.g. "http://localhost:5000".
func New(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("studentapi: base URL is required")
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("studentapi: invalid base URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("studentapi: base URL %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL:    parsed,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		h := *c.httpClient
		h.Timeout = c.timeout
		c.httpClient = &h
	}
	return c, nil
}

// List fetches the full collection.
func (c *Client) List(ctx context.Context) ([]types.Student, error) {
	var students []types.Student
	if err := c.do(ctx, "list", http.MethodGet, nil, &students, resource); err != nil {
		return nil, err
	}
	if students == nil {
		students = []types.Student{}
	}
	return students, nil
}

// Create submits a new record and returns it with the server-assigned id.
// Any id already set on candidate is not sent.
func (c *Client) Create(ctx context.Context, candidate types.Student) (types.Student, error) {
	candidate.ID = ""

	var created types.Student
	if err := c.do(ctx, "create", http.MethodPost, candidate, &created, resource); err != nil {
		return types.Student{}, err
	}
	return created, nil
}

// Update replaces the record addressed by record.ID and returns the server's copy.
func (c *Client) Update(ctx context.Context, record types.Student) (types.Student, error) {
	if record.ID == "" {
		return types.Student{}, ErrMissingID
	}

	var updated types.Student
	if err := c.do(ctx, "update", http.MethodPut, record, &updated, resource, url.PathEscape(record.ID)); err != nil {
		return types.Student{}, err
	}
	return updated, nil
}

// Remove deletes the record addressed by id. Any response body is discarded.
func (c *Client) Remove(ctx context.Context, id string) error {
	if id == "" {
		return ErrMissingID
	}
	return c.do(ctx, "remove", http.MethodDelete, nil, nil, resource, url.PathEscape(id))
}

// do sends one request to the URL formed by joining segments onto the base
// URL. Segments must already be path-escaped. in, when non-nil, is encoded as the JSON body; out, when non-nil,
// receives the decoded JSON response.
func (c *Client) do(ctx context.Context, op, method string, in, out any, segments ...string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("studentapi: %s: encode body: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.JoinPath(segments...).String(), body)
	if err != nil {
		return fmt.Errorf("studentapi: %s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &NetworkError{Op: op, StatusCode: resp.StatusCode, Body: raw, Err: ErrUnexpectedStatus}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &NetworkError{Op: op, StatusCode: resp.StatusCode, Body: raw, Err: fmt.Errorf("decode body: %w", err)}
	}
	return nil
}

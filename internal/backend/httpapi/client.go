// Package httpapi implements service.Service against the REST task API:
//
//	GET    {base}       list all tasks
//	POST   {base}       create {title, completed}
//	PUT    {base}/{id}  replace a task
//	DELETE {base}/{id}  remove a task
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"todo/internal/logging"
	"todo/internal/service"
)

// RequestIDHeader carries a per-request id for correlating client and server logs.
const RequestIDHeader = "X-Request-ID"

// maxBodySize caps how much of a response body is read.
const maxBodySize = 4 << 20

// StatusError reports a non-2xx response.
type StatusError struct {
	Method string
	URL    string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.Code)
}

// MalformedError reports a response body that does not match the task schema.
type MalformedError struct {
	Err error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed response: %v", e.Err)
}

func (e *MalformedError) Unwrap() error { return e.Err }

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client (for testing or custom transports).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds each request. Zero leaves the transport default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the logger for request debug output.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.log = logger
		}
	}
}

// Client implements service.Service over HTTP.
type Client struct {
	base    string
	http    *http.Client
	timeout time.Duration
	log     *log.Logger
	schemas *schemas
	ids     idTokens
}

var _ service.Service = (*Client)(nil)

// New creates a client for the task collection at baseURL,
// e.g. http://localhost:8080/api/tasks.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid base url: missing host")
	}

	s, err := compileSchemas()
	if err != nil {
		return nil, err
	}

	c := &Client{
		base:    strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		log:     logging.Discard(),
		schemas: s,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ListTasks implements service.Service.
func (c *Client) ListTasks(ctx context.Context) ([]service.Task, error) {
	body, err := c.do(ctx, http.MethodGet, c.base, nil)
	if err != nil {
		return nil, err
	}
	var ws []wireTask
	if err := c.decode(c.schemas.list, body, &ws); err != nil {
		return nil, err
	}
	return c.fromWire(ws...)
}

// CreateTask implements service.Service.
func (c *Client) CreateTask(ctx context.Context, draft service.Draft) (service.Task, error) {
	body, err := c.do(ctx, http.MethodPost, c.base, draft)
	if err != nil {
		return service.Task{}, err
	}
	return c.decodeTask(body)
}

// UpdateTask implements service.Service. The id is sent back in the JSON
// form it was received in.
func (c *Client) UpdateTask(ctx context.Context, t service.Task) (service.Task, error) {
	payload, err := c.toWire(t)
	if err != nil {
		return service.Task{}, fmt.Errorf("encode request: %w", err)
	}
	body, err := c.do(ctx, http.MethodPut, c.taskURL(t.ID), payload)
	if err != nil {
		return service.Task{}, err
	}
	return c.decodeTask(body)
}

// DeleteTask implements service.Service. The response body is ignored.
func (c *Client) DeleteTask(ctx context.Context, id service.ID) error {
	if _, err := c.do(ctx, http.MethodDelete, c.taskURL(id), nil); err != nil {
		return err
	}
	c.ids.forget(id)
	return nil
}

func (c *Client) taskURL(id service.ID) string {
	return c.base + "/" + url.PathEscape(id.String())
}

// do sends one request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, method, target string, payload any) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("request failed", "method", method, "url", target, "request_id", requestID, "err", err)
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", method, target, err)
	}

	c.log.Debug("request done",
		"method", method,
		"url", target,
		"status", resp.StatusCode,
		"request_id", requestID,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Method: method, URL: target, Code: resp.StatusCode}
	}
	return body, nil
}

func (c *Client) decodeTask(body []byte) (service.Task, error) {
	var w wireTask
	if err := c.decode(c.schemas.task, body, &w); err != nil {
		return service.Task{}, err
	}
	tasks, err := c.fromWire(w)
	if err != nil {
		return service.Task{}, err
	}
	return tasks[0], nil
}

func (c *Client) decode(schema *jsonschema.Schema, body []byte, v any) error {
	if err := validate(schema, body); err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &MalformedError{Err: err}
	}
	return nil
}

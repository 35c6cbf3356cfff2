// Package gateway is the REST client for the music backend.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"resty.dev/v3"

	"github.com/edumarques81/stellar-listen/internal/domain/catalog"
)

const (
	// DevelopmentBaseURL is the local backend.
	DevelopmentBaseURL = "http://localhost:4001/api/"

	// ProductionBaseURL is the hosted backend.
	ProductionBaseURL = "https://backand-js.vercel.app/api/"

	// DefaultTimeout for gateway requests.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent identifies the client.
	DefaultUserAgent = "StellarListen/1.0"
)

// BaseURLFor returns the default base URL for the environment.
func BaseURLFor(production bool) string {
	if production {
		return ProductionBaseURL
	}
	return DevelopmentBaseURL
}

// StatusError is a non-2xx gateway response. It matches catalog.ErrNetwork.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway returned %d", e.StatusCode)
	}
	return fmt.Sprintf("gateway returned %d: %s", e.StatusCode, e.Message)
}

// Unwrap lets errors.Is(err, catalog.ErrNetwork) succeed.
func (e *StatusError) Unwrap() error {
	return catalog.ErrNetwork
}

// ServerMessage returns the message the gateway sent with the failure.
func (e *StatusError) ServerMessage() string {
	return e.Message
}

// Response is a completed gateway exchange.
type Response struct {
	StatusCode int
	Body       []byte
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// FilePart is a file field of a multipart request.
type FilePart struct {
	Field    string
	Filename string
	Reader   io.Reader
}

// Client talks to the REST gateway.
type Client struct {
	baseURL   string
	userAgent string
	timeout   time.Duration
	http      *resty.Client
}

// Option is a functional option for configuring the client.
type Option func(*Client)

// WithBaseURL sets the gateway base URL (useful for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// New creates a gateway client. The development base URL is used unless
// WithBaseURL says otherwise.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:   DevelopmentBaseURL,
		userAgent: DefaultUserAgent,
		timeout:   DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	if !strings.HasSuffix(c.baseURL, "/") {
		c.baseURL += "/"
	}

	c.http = resty.New().
		SetBaseURL(c.baseURL).
		SetTimeout(c.timeout).
		SetHeader("User-Agent", c.userAgent).
		SetHeader("Accept", "application/json").
		SetAllowMethodDeletePayload(true)

	return c
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Close releases idle connections.
func (c *Client) Close() error {
	return c.http.Close()
}

// Request performs a JSON request. body may be nil. Transport failures wrap
// catalog.ErrNetwork; non-2xx statuses return *StatusError.
func (c *Client) Request(ctx context.Context, method, path string, body any, headers, query map[string]string) (*Response, error) {
	req := c.newRequest(ctx, headers, query)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	return c.execute(req, method, path)
}

// Multipart performs a multipart form request. Text fields go in fields,
// files in files.
func (c *Client) Multipart(ctx context.Context, method, path string, fields map[string]string, files []FilePart) (*Response, error) {
	req := c.newRequest(ctx, nil, nil)
	req.SetMultipartFormData(fields)
	for _, f := range files {
		req.SetFileReader(f.Field, f.Filename, f.Reader)
	}
	return c.execute(req, method, path)
}

func (c *Client) newRequest(ctx context.Context, headers, query map[string]string) *resty.Request {
	req := c.http.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", uuid.NewString())
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	return req
}

func (c *Client) execute(req *resty.Request, method, path string) (*Response, error) {
	start := time.Now()
	path = strings.TrimPrefix(path, "/")

	res, err := req.Execute(method, path)
	if err != nil {
		log.Warn().Err(err).Str("method", method).Str("path", path).Msg("Gateway request failed")
		return nil, fmt.Errorf("%w: %s %s: %w", catalog.ErrNetwork, method, path, err)
	}

	out := &Response{
		StatusCode: res.StatusCode(),
		Body:       []byte(res.String()),
	}

	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", out.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Gateway request")

	if out.StatusCode < http.StatusOK || out.StatusCode >= http.StatusMultipleChoices {
		return out, &StatusError{StatusCode: out.StatusCode, Message: errorMessage(out.Body)}
	}
	return out, nil
}

// errorMessage extracts {"message": "..."} or falls back to the raw body.
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return strings.TrimSpace(string(body))
}

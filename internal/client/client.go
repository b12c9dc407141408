// ABOUTME: HTTP client for the Quebec control plane API
// ABOUTME: Injects the session token and normalizes envelopes and transport failures

package client

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

	"github.com/lyonmu/quebec/console/internal/session"
	"github.com/lyonmu/quebec/console/internal/toast"
	"go.uber.org/zap"
)

const (
	// TokenHeader carries the session token on every request
	TokenHeader = "x-quebec-token"
	// DefaultBasePath is the API prefix appended to the server URL
	DefaultBasePath = "/core/api"
	// DefaultTimeout bounds every request
	DefaultTimeout = 30 * time.Second
)

const (
	msgRequestFailed = "Request failed"
	msgLoginFailed   = "Login failed"
	msgNetwork       = "Network error, no response received from server"
	msgRequestSetup  = "Request configuration error"
	msgCanceled      = "request canceled"
)

// Navigator performs the hard redirect to the application root
type Navigator interface {
	ToRoot()
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func()

// ToRoot calls f
func (f NavigatorFunc) ToRoot() { f() }

// Client is the API client for the Quebec control plane
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    session.Store
	bus        *toast.Bus
	nav        Navigator
	log        *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithSession sets the store the token is read from and cleared in
func WithSession(s session.Store) Option {
	return func(c *Client) { c.session = s }
}

// WithBus sets the bus failures are reported on
func WithBus(b *toast.Bus) Option {
	return func(c *Client) { c.bus = b }
}

// WithNavigator sets the hook invoked on an HTTP 401
func WithNavigator(n Navigator) Option {
	return func(c *Client) { c.nav = n }
}

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithTimeout sets the request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a new API client rooted at baseURL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		bus: toast.Default,
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIRoot joins a server URL and base path
func APIRoot(server, basePath string) string {
	if basePath == "" {
		basePath = DefaultBasePath
	}
	return strings.TrimRight(server, "/") + "/" + strings.TrimLeft(basePath, "/")
}

// BaseURL returns the API root requests are sent to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetNavigator installs the 401 redirect hook after construction
func (c *Client) SetNavigator(n Navigator) {
	c.nav = n
}

// Response is a successful call's result
type Response struct {
	Status    int
	Enveloped bool
	Code      int
	Message   string
	Data      json.RawMessage
	Raw       []byte
}

// Envelope is the typed form of the standard response wrapper
type Envelope[T any] struct {
	Code    int    `json:"code"`
	Data    T      `json:"data"`
	Message string `json:"message"`
}

// Decode unmarshals a response into a typed envelope. A body without an
// envelope is decoded directly into Data.
func Decode[T any](resp *Response) (*Envelope[T], error) {
	env := &Envelope[T]{Code: resp.Code, Message: resp.Message}
	payload := []byte(resp.Data)
	if !resp.Enveloped {
		payload = resp.Raw
	}
	if len(bytes.TrimSpace(payload)) == 0 || string(bytes.TrimSpace(payload)) == "null" {
		return env, nil
	}
	if err := json.Unmarshal(payload, &env.Data); err != nil {
		return nil, &Error{Kind: KindDecode, Status: resp.Status, Message: "invalid response from backend", Err: err}
	}
	return env, nil
}

// Get issues a GET request
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, query, nil)
}

// Post issues a POST request with a JSON body
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, nil, body)
}

// Put issues a PUT request with a JSON body
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, nil, body)
}

// Patch issues a PATCH request with a JSON body
func (c *Client) Patch(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPatch, path, nil, body)
}

// Delete issues a DELETE request
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil, nil)
}

// Do sends a request and classifies the outcome. Every failure except
// caller cancellation emits exactly one error toast before returning.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body any) (*Response, error) {
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = msgRequestSetup
		}
		c.log.Error("request setup error", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, c.report(&Error{Kind: KindRequest, Message: msg, Err: err})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.handleRequestError(ctx, req, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.handleRequestError(ctx, req, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.handleErrorResponse(req, resp.StatusCode, data)
	}

	return c.handleEnvelope(req, resp.StatusCode, data)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	target := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if c.session != nil {
		if token := c.session.Get().Token; token != "" {
			req.Header.Set(TokenHeader, token)
		}
	}
	return req, nil
}

// handleEnvelope applies the business-code rules to a 2xx body
func (c *Client) handleEnvelope(req *http.Request, status int, data []byte) (*Response, error) {
	code, message, payload, ok := parseEnvelope(data)
	if !ok {
		return &Response{Status: status, Raw: data}, nil
	}

	if code == CodeSuccess {
		return &Response{
			Status:    status,
			Enveloped: true,
			Code:      code,
			Message:   message,
			Data:      payload,
			Raw:       data,
		}, nil
	}

	msg := message
	if msg == "" {
		msg = msgRequestFailed
	}
	c.log.Warn("api error",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("code", code),
		zap.String("message", message))

	if code == CodeUnauthorized {
		c.clearSession()
		return nil, c.report(&Error{Kind: KindUnauthorized, Code: code, Status: status, Message: msg})
	}
	return nil, c.report(&Error{Kind: KindBusiness, Code: code, Status: status, Message: msg})
}

// handleErrorResponse applies the transport rules to a non-2xx response
func (c *Client) handleErrorResponse(req *http.Request, status int, data []byte) error {
	fields := []zap.Field{zap.String("method", req.Method), zap.String("path", req.URL.Path), zap.Int("status", status)}
	switch status {
	case http.StatusUnauthorized:
		c.log.Warn("unauthorized, redirecting to login", fields...)
	case http.StatusForbidden:
		c.log.Warn("forbidden, insufficient permissions", fields...)
	case http.StatusNotFound:
		c.log.Warn("resource not found", fields...)
	case http.StatusInternalServerError:
		c.log.Error("server error", fields...)
	default:
		c.log.Error("http error", append(fields, zap.ByteString("body", truncate(data, 512)))...)
	}

	msg := fmt.Sprintf("HTTP %d", status)
	code := 0
	if parsedCode, message, _, ok := parseEnvelope(data); ok || message != "" {
		code = parsedCode
		if message != "" {
			msg = message
		}
	}

	e := &Error{Kind: KindHTTP, Code: code, Status: status, Message: msg}
	if status == http.StatusUnauthorized {
		c.clearSession()
		err := c.report(e)
		if c.nav != nil {
			c.nav.ToRoot()
		}
		return err
	}
	return c.report(e)
}

// handleRequestError classifies failures where no response was received
func (c *Client) handleRequestError(ctx context.Context, req *http.Request, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		c.log.Debug("request canceled", zap.String("path", req.URL.Path))
		return &Error{Kind: KindCanceled, Message: msgCanceled, Err: err}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		c.log.Warn("request timed out", zap.String("path", req.URL.Path), zap.Duration("timeout", c.httpClient.Timeout))
	} else {
		c.log.Warn("network error, no response received", zap.String("path", req.URL.Path), zap.Error(err))
	}
	return c.report(&Error{Kind: KindNetwork, Message: msgNetwork, Err: err})
}

func (c *Client) clearSession() {
	if c.session == nil {
		return
	}
	if err := c.session.Clear(); err != nil {
		c.log.Error("failed to clear session", zap.Error(err))
	}
}

// report emits the error toast and returns e
func (c *Client) report(e *Error) error {
	if c.bus != nil {
		c.bus.Error(e.Message)
	}
	return e
}

// parseEnvelope extracts code, message and data when body is an object
// with a numeric code field
func parseEnvelope(data []byte) (code int, message string, payload json.RawMessage, ok bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return 0, "", nil, false
	}

	if raw, found := fields["message"]; found {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			message = s
		}
	}

	raw, found := fields["code"]
	if !found {
		return 0, message, nil, false
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, message, nil, false
	}
	return int(n), message, fields["data"], true
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}

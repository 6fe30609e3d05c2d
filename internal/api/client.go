// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/jeranaias/venture-tui/internal/util"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the planning backend client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeTimeout
	ErrTypeUnreachable
	ErrTypeNotFound
	ErrTypeServer
	ErrTypeRateLimited
	ErrTypeInvalidModel
	ErrTypeInvalidResponse
)

// Sentinel errors for easy checking. The messages are user-facing; the
// UI surfaces them verbatim in toasts.
var (
	ErrTimeout      = &ClientError{Type: ErrTypeTimeout, Message: "The AI is taking longer than usual to respond. Please try again."}
	ErrUnreachable  = &ClientError{Type: ErrTypeUnreachable, Message: "Unable to connect to the server. Please check your connection and try again."}
	ErrNotFound     = &ClientError{Type: ErrTypeNotFound, Message: "API endpoint not found. Please check the server configuration."}
	ErrServer       = &ClientError{Type: ErrTypeServer, Message: "Server error occurred. Please try again."}
	ErrRateLimited  = &ClientError{Type: ErrTypeRateLimited, Message: "Service is currently rate limited. Please wait a moment and try again."}
	ErrInvalidModel = &ClientError{Type: ErrTypeInvalidModel, Message: "Invalid model selected. Please choose a different model."}
)

// genericErrorMessage is shown when the server gives no usable detail.
const genericErrorMessage = "An unexpected error occurred. Please try again."

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeTimeout
	}
	return false
}

// IsUnreachable checks if an error means the backend could not be reached.
func IsUnreachable(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeUnreachable
	}
	return false
}

// IsRateLimited checks if an error is a rate-limit rejection.
func IsRateLimited(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeRateLimited
	}
	return false
}

// IsInvalidModel checks if an error is an invalid-model rejection.
func IsInvalidModel(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeInvalidModel
	}
	return false
}

// UserMessage extracts the message to show the user for any client
// error. Non-client errors get the generic message.
func UserMessage(err error) string {
	var clientErr *ClientError
	if errors.As(err, &clientErr) && clientErr.Message != "" {
		return clientErr.Message
	}
	return genericErrorMessage
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the backend client.
type ClientConfig struct {
	// BaseURL is the backend API base URL (default: http://localhost:3000/api)
	BaseURL string

	// Timeout for requests. Plan generation is slow, so the default is
	// a full five minutes (matching the backend's own budget).
	Timeout time.Duration

	// RequestsPerSecond caps outbound request rate (default: 2).
	// Keeps retry storms from hammering a rate-limited backend.
	RequestsPerSecond float64

	// HTTPClient overrides the underlying client (mainly for tests).
	HTTPClient *http.Client
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:           "http://localhost:3000/api",
		Timeout:           300 * time.Second,
		RequestsPerSecond: 2,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the planning backend.
// It is safe for concurrent use.
type Client struct {
	mu         sync.RWMutex
	config     *ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new backend client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a new backend client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:3000/api"
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout == 0 {
		config.Timeout = 300 * time.Second
	}
	if config.RequestsPerSecond == 0 {
		config.RequestsPerSecond = 2
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 5),
	}
}

// GetConfig returns the client configuration.
func (c *Client) GetConfig() *ClientConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config.BaseURL
}

// SetBaseURL repoints the client at a different backend. Used when the
// config file changes while venture is running; in-flight requests keep
// the URL they started with.
func (c *Client) SetBaseURL(raw string) {
	raw = strings.TrimRight(raw, "/")
	if raw == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config.BaseURL = raw
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

// Health verifies that the backend is reachable and healthy.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return err
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return nil
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// do issues one request against the backend, applying the rate limiter
// and tagging the request for server-side correlation.
// body may be nil for requests without a payload.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, wrapTransportError(err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL()+path, body)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeUnknown, Message: genericErrorMessage, Cause: err}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		util.Debugf("api: %s %s failed: %v", method, path, err)
		return nil, wrapTransportError(err)
	}
	util.Debugf("api: %s %s -> %d", method, path, resp.StatusCode)
	return resp, nil
}

// wrapTransportError maps transport-level failures onto the taxonomy.
func wrapTransportError(err error) *ClientError {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	if errors.Is(err, context.Canceled) {
		return &ClientError{Type: ErrTypeUnknown, Message: genericErrorMessage, Cause: err}
	}
	// net/http wraps its timeout errors; check the Timeout method too.
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	return &ClientError{Type: ErrTypeUnreachable, Message: ErrUnreachable.Message, Cause: err}
}

// serverErrorBody is the backend's error envelope.
type serverErrorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// statusError maps a non-2xx response onto the taxonomy, consuming the
// body for any server-provided detail.
func statusError(resp *http.Response) *ClientError {
	var body serverErrorBody
	detail := ""
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		detail = body.Message
		if detail == "" {
			detail = body.Error
		}
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case resp.StatusCode >= 500:
		return ErrServer
	}

	// The backend reports unsupported model ids as a 400 with an
	// "Invalid model" message.
	if strings.Contains(detail, "Invalid model") {
		return ErrInvalidModel
	}

	if detail != "" {
		return &ClientError{Type: ErrTypeUnknown, Message: detail}
	}
	return &ClientError{Type: ErrTypeUnknown, Message: genericErrorMessage}
}

// decode parses a JSON response body into dst.
func decode(resp *http.Response, dst any) error {
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: genericErrorMessage, Cause: err}
	}
	return nil
}

// drainAndClose consumes the rest of a response body so the connection
// can be reused.
func drainAndClose(r io.ReadCloser) {
	io.Copy(io.Discard, r)
	r.Close()
}

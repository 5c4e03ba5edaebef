package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"chatbridge/pkg/logging"

	"github.com/google/uuid"
)

const (
	DefaultBaseURL = "http://localhost:8001"
	ChatPath       = "/api/chat"
	UserAgent      = "chatbridge/1.0"
)

// Client posts conversations to a chat backend. A Client holds no
// per-conversation state and is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for backend calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds each backend call. Zero or negative leaves the
// transport default in place.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the diagnostic logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{},
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c
}

// BaseURL returns the backend base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}

// Send posts req to the backend and decodes the reply. Failures come back
// as *TransportError, *BackendError or *MalformedResponseError.
func (c *Client) Send(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	if req.History == nil {
		req.History = []HistoryEntry{}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + ChatPath
	requestID := uuid.NewString()
	logger := c.log().With("request_id", requestID)

	logger.Debug("chat_request",
		"url", url,
		"history_len", len(req.History),
		"request_size", len(body))
	if logging.TraceEnabled(ctx, logger) {
		logger.Log(ctx, logging.LevelTrace, "chat_request_body", "json", string(body))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return ChatResponse{}, &TransportError{Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", UserAgent)
	httpReq.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return ChatResponse{}, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return ChatResponse{}, &TransportError{Err: fmt.Errorf("failed to read response: %w", err)}
	}

	logger.Debug("chat_response",
		"status_code", resp.StatusCode,
		"content_type", resp.Header.Get("Content-Type"),
		"response_size", len(data),
		"duration", time.Since(start))
	if logging.TraceEnabled(ctx, logger) {
		logger.Log(ctx, logging.LevelTrace, "chat_response_body", "json", string(data))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// An unreadable error body counts as an empty one.
		errBody, err := decodeChatResponse(data)
		if err != nil {
			errBody = ChatResponse{}
		}
		backendErr := &BackendError{StatusCode: resp.StatusCode}
		if errBody.Detail != nil {
			backendErr.Detail = *errBody.Detail
		}
		return ChatResponse{}, backendErr
	}

	out, err := decodeChatResponse(data)
	if err != nil {
		return ChatResponse{}, &MalformedResponseError{StatusCode: resp.StatusCode, Err: err}
	}
	return out, nil
}

// decodeChatResponse fails only when data is not JSON. A body that is not
// an object decodes as empty, and a known field is kept only when it holds
// a string.
func decodeChatResponse(data []byte) (ChatResponse, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return ChatResponse{}, err
	}
	fields, ok := raw.(map[string]any)
	if !ok {
		return ChatResponse{}, nil
	}
	return ChatResponse{
		Response: stringField(fields, "response"),
		Text:     stringField(fields, "text"),
		Detail:   stringField(fields, "detail"),
	}, nil
}

func stringField(fields map[string]any, key string) *string {
	s, ok := fields[key].(string)
	if !ok {
		return nil
	}
	return &s
}

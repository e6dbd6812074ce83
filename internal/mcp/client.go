// ABOUTME: HTTP client for upstream tool servers speaking JSON-RPC tools/call.
// ABOUTME: Retries transport failures with linear backoff and decodes text results as JSON.

package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxResponseSize is the maximum response body the client will read (1MB).
const MaxResponseSize = 1 << 20

// DefaultBackoff is the base wait between retries; attempt n waits n*Backoff.
const DefaultBackoff = 250 * time.Millisecond

// ErrEmptyResult is returned when a tool result carries no text content.
var ErrEmptyResult = errors.New("tool returned no text content")

// ToolError is returned when the upstream reports isError for a tool call.
type ToolError struct {
	Tool    string
	Message string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %s failed: %s", e.Tool, e.Message)
}

// HTTPError is returned for non-2xx responses from the upstream.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// retryable reports whether another attempt may succeed.
func (e *HTTPError) retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// ClientConfig holds configuration for a tool-call client.
type ClientConfig struct {
	URL     string
	Timeout time.Duration
	// MaxRetries is the number of retries after the first attempt. Negative
	// values are treated as zero.
	MaxRetries int
	Backoff    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client calls tools on a single upstream server. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
	logger     *slog.Logger
}

// NewClient creates a client for the tool server at cfg.URL.
func NewClient(cfg ClientConfig) (*Client, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing upstream url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("upstream url must be absolute http(s), got %q", cfg.URL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = DefaultBackoff
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		httpClient: httpClient,
		maxRetries: max(cfg.MaxRetries, 0),
		backoff:    backoff,
		logger:     logger,
	}, nil
}

// URL returns the upstream base URL.
func (c *Client) URL() string {
	return c.baseURL
}

// CallTool invokes the named tool with args and decodes the first text content
// of the result as JSON into out. A nil out discards the result.
func (c *Client) CallTool(ctx context.Context, name string, args, out any) error {
	arguments, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("marshaling %s arguments: %w", name, err)
	}
	params, err := json.Marshal(MCPCallToolParams{Name: name, Arguments: arguments})
	if err != nil {
		return fmt.Errorf("marshaling %s params: %w", name, err)
	}
	id, err := json.Marshal(uuid.New().String())
	if err != nil {
		return err
	}
	body, err := json.Marshal(JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  "tools/call",
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	var rpcResp JSONRPCResponse
	if err := c.post(ctx, name, body, &rpcResp); err != nil {
		return fmt.Errorf("calling %s: %w", name, err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("calling %s: %w", name, rpcResp.Error)
	}

	var result MCPCallToolResult
	if err := json.Unmarshal(rpcResp.Result, &result); err != nil {
		return fmt.Errorf("decoding %s result: %w", name, err)
	}
	text, ok := result.firstText()
	if result.IsError {
		if !ok {
			text = "unknown error"
		}
		return &ToolError{Tool: name, Message: text}
	}
	if !ok {
		return fmt.Errorf("calling %s: %w", name, ErrEmptyResult)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("decoding %s output: %w", name, err)
	}
	return nil
}

// post sends body and decodes the JSON-RPC response, retrying network errors
// and retryable HTTP statuses.
func (c *Client) post(ctx context.Context, tool string, body []byte, response *JSONRPCResponse) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			waitTime := time.Duration(attempt) * c.backoff
			c.logger.DebugContext(ctx, "retrying tool call", "tool", tool, "attempt", attempt, "wait", waitTime)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(waitTime):
			}
		}

		err := c.once(ctx, body, response)
		if err == nil {
			return nil
		}
		lastErr = err

		var httpErr *HTTPError
		if errors.As(err, &httpErr) && !httpErr.retryable() {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.DebugContext(ctx, "tool call failed", "tool", tool, "attempt", attempt, "error", err)
	}

	return fmt.Errorf("request failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

func (c *Client) once(ctx context.Context, body []byte, response *JSONRPCResponse) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if err := json.Unmarshal(data, response); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

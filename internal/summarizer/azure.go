// ABOUTME: Azure OpenAI chat completions summarizer.
// ABOUTME: Retries 5xx and 429 responses with linear backoff.

package summarizer

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

	"github.com/2389/docex-gateway/internal/access"
	"github.com/2389/docex-gateway/internal/api"
	"github.com/2389/docex-gateway/internal/config"
)

const systemPrompt = "You are a helpful assistant that writes concise, accurate summaries. " +
	"Summarize the user's text in a few sentences without adding information."

// AzureConfig holds the settings for AzureClient.
type AzureConfig struct {
	OpenAI     config.AzureOpenAIConfig
	Allow      *access.AllowList
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
	MaxTokens  int
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// AzureClient summarizes text with an Azure OpenAI deployment.
type AzureClient struct {
	endpoint   string
	apiKey     string
	deployment string
	apiVersion string
	allow      *access.AllowList
	maxRetries int
	backoff    time.Duration
	maxTokens  int
	httpClient *http.Client
	logger     *slog.Logger
}

// NewAzureClient validates cfg and creates a client. It returns
// ErrNotConfigured naming the missing variables when settings are incomplete.
func NewAzureClient(cfg AzureConfig) (*AzureClient, error) {
	if missing := cfg.OpenAI.Missing(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrNotConfigured, strings.Join(missing, ", "))
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
		backoff = 500 * time.Millisecond
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 300
	}
	apiVersion := cfg.OpenAI.APIVersion
	if apiVersion == "" {
		apiVersion = config.DefaultAzureAPIVersion
	}

	return &AzureClient{
		endpoint:   strings.TrimSuffix(cfg.OpenAI.Endpoint, "/"),
		apiKey:     cfg.OpenAI.APIKey,
		deployment: cfg.OpenAI.Deployment,
		apiVersion: apiVersion,
		allow:      cfg.Allow,
		maxRetries: max(cfg.MaxRetries, 0),
		backoff:    backoff,
		maxTokens:  maxTokens,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Summarize asks the deployment for a summary of text.
func (c *AzureClient) Summarize(ctx context.Context, text, accessKey string) (*api.SummaryResult, error) {
	if err := authorize(c.allow, accessKey); err != nil {
		c.logger.InfoContext(ctx, "summarization denied", "code_fp", access.Fingerprint(accessKey))
		return denied(text), nil
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	body, err := json.Marshal(chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: text},
		},
		MaxTokens:   c.maxTokens,
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var resp chatResponse
	if err := c.makeRequest(ctx, body, &resp); err != nil {
		return nil, fmt.Errorf("failed to summarize: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("azure openai error %s: %s", resp.Error.Code, resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("azure openai returned no choices")
	}

	summary := strings.TrimSpace(resp.Choices[0].Message.Content)
	model := resp.Model
	if model == "" {
		model = c.deployment
	}
	return &api.SummaryResult{
		Success:        true,
		Summary:        summary,
		Message:        "Text summarized successfully",
		OriginalLength: len(text),
		SummaryLength:  len(summary),
		Model:          model,
	}, nil
}

func (c *AzureClient) completionsURL() string {
	return fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		c.endpoint, url.PathEscape(c.deployment), url.QueryEscape(c.apiVersion))
}

func (c *AzureClient) makeRequest(ctx context.Context, body []byte, response any) error {
	endpoint := c.completionsURL()

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			waitTime := time.Duration(attempt) * c.backoff
			c.logger.DebugContext(ctx, "retrying azure request", "attempt", attempt, "wait", waitTime)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(waitTime):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("api-key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			c.logger.DebugContext(ctx, "azure request failed", "attempt", attempt, "error", err)
			continue
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
			c.logger.DebugContext(ctx, "azure request returned error status", "status", resp.StatusCode)
			if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return lastErr
			}
			continue
		}

		if err := json.Unmarshal(data, response); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
		return nil
	}

	return fmt.Errorf("request failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

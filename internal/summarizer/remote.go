// ABOUTME: Summarizer backed by an upstream summarization tool server.
// ABOUTME: Forwards text and access key verbatim; the server enforces access.

package summarizer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/2389/docex-gateway/internal/access"
	"github.com/2389/docex-gateway/internal/api"
	"github.com/2389/docex-gateway/internal/mcp"
)

// Tool names on the upstream summarization server.
const (
	ToolSummarizeText      = "summarize_text"
	ToolCheckServiceStatus = "check_service_status"
)

// RemoteSummarizer calls an upstream summarization server.
type RemoteSummarizer struct {
	client *mcp.Client
	logger *slog.Logger
}

// NewRemoteSummarizer creates a summarizer backed by client.
func NewRemoteSummarizer(client *mcp.Client, logger *slog.Logger) *RemoteSummarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &RemoteSummarizer{client: client, logger: logger}
}

// Summarize calls the summarize_text tool.
func (r *RemoteSummarizer) Summarize(ctx context.Context, text, accessKey string) (*api.SummaryResult, error) {
	args := map[string]any{"text": text, "access_key": accessKey, "encrypted": false}

	var res api.SummaryResult
	if err := r.client.CallTool(ctx, ToolSummarizeText, args, &res); err != nil {
		return nil, fmt.Errorf("summarizing text: %w", err)
	}
	if !res.Success && res.Message == "" {
		res.Message = res.Error
	}

	r.logger.DebugContext(ctx, "text summarized upstream",
		"code_fp", access.Fingerprint(accessKey),
		"success", res.Success,
	)
	return &res, nil
}

// Probe calls check_service_status and reports whether the server answered.
func (r *RemoteSummarizer) Probe(ctx context.Context) error {
	var status map[string]any
	if err := r.client.CallTool(ctx, ToolCheckServiceStatus, struct{}{}, &status); err != nil {
		return fmt.Errorf("checking summarization service: %w", err)
	}
	if msg, ok := status["error"].(string); ok && msg != "" {
		return fmt.Errorf("summarization service: %s", msg)
	}
	return nil
}

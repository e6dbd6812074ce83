// ABOUTME: Builds the verifier and summarizer the gateway delegates to
// ABOUTME: Mock mode uses local stand-ins; otherwise upstream tool servers and Azure OpenAI

package gateway

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/2389/docex-gateway/internal/access"
	"github.com/2389/docex-gateway/internal/api"
	"github.com/2389/docex-gateway/internal/config"
	"github.com/2389/docex-gateway/internal/documents"
	"github.com/2389/docex-gateway/internal/mcp"
	"github.com/2389/docex-gateway/internal/summarizer"
)

// Summarizer backend names reported by /api/health.
const (
	BackendMock   = "mock"
	BackendAzure  = "azure"
	BackendRemote = "remote"
)

// DocumentVerifier checks a document against an access code.
type DocumentVerifier interface {
	Verify(ctx context.Context, content, accessCode string) (*api.VerificationResult, error)
	List(ctx context.Context) ([]api.DocumentInfo, error)
}

// Summarizer condenses text for a holder of a valid access key.
type Summarizer interface {
	Summarize(ctx context.Context, text, accessKey string) (*api.SummaryResult, error)
}

// Prober is implemented by clients whose availability can be checked.
type Prober interface {
	Probe(ctx context.Context) error
}

// Backends are the clients a Gateway serves requests with. A nil client makes
// the endpoints that need it answer 503.
type Backends struct {
	Verifier         DocumentVerifier
	Summarizer       Summarizer
	SummarizerStatus api.SummarizerStatus
	Mock             bool

	closers []func()
}

// Close releases resources held by the backends.
func (b *Backends) Close() {
	for _, c := range b.closers {
		c()
	}
	b.closers = nil
}

// NewBackends builds the clients described by cfg.
func NewBackends(cfg *config.Config, logger *slog.Logger) (*Backends, error) {
	allow := access.NewAllowList(cfg.Access.Codes)
	b := &Backends{
		Mock:    cfg.MockEnabled(),
		closers: []func(){allow.Close},
		SummarizerStatus: api.SummarizerStatus{
			Configured:  cfg.AzureOpenAI.Configured(),
			MissingVars: cfg.AzureOpenAI.Missing(),
		},
	}

	if b.Mock {
		b.Verifier = documents.NewMockVerifier(nil, logger.With("component", "mock-verifier"))
		b.Summarizer = summarizer.NewMockSummarizer(allow, 0, logger.With("component", "mock-summarizer"))
		b.SummarizerStatus.Backend = BackendMock
		logger.Warn("mock mode enabled, answering from local stand-ins",
			"azure_missing", b.SummarizerStatus.MissingVars,
		)
		return b, nil
	}

	docClient, err := mcp.NewClient(mcp.ClientConfig{
		URL:        cfg.Upstream.Document.URL,
		Timeout:    cfg.Upstream.Document.Timeout,
		MaxRetries: cfg.Upstream.Document.MaxRetries,
		Logger:     logger.With("component", "document-client"),
	})
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("creating document client: %w", err)
	}
	b.Verifier = documents.NewRemoteVerifier(docClient, logger.With("component", "document-verifier"))

	if cfg.AzureOpenAI.Configured() {
		az, err := summarizer.NewAzureClient(summarizer.AzureConfig{
			OpenAI:     cfg.AzureOpenAI,
			Allow:      allow,
			Timeout:    cfg.Upstream.Summarization.Timeout,
			MaxRetries: cfg.Upstream.Summarization.MaxRetries,
			Logger:     logger.With("component", "azure-summarizer"),
		})
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("creating azure summarizer: %w", err)
		}
		b.Summarizer = az
		b.SummarizerStatus.Backend = BackendAzure
		return b, nil
	}

	sumClient, err := mcp.NewClient(mcp.ClientConfig{
		URL:        cfg.Upstream.Summarization.URL,
		Timeout:    cfg.Upstream.Summarization.Timeout,
		MaxRetries: cfg.Upstream.Summarization.MaxRetries,
		Logger:     logger.With("component", "summarization-client"),
	})
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("creating summarization client: %w", err)
	}
	b.Summarizer = summarizer.NewRemoteSummarizer(sumClient, logger.With("component", "remote-summarizer"))
	b.SummarizerStatus.Backend = BackendRemote
	return b, nil
}

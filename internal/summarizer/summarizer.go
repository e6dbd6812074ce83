// ABOUTME: Shared summarizer errors, access checks, and the extractive mock summarizer.
// ABOUTME: The mock keeps the first few sentences of the input.

package summarizer

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode"

	"github.com/2389/docex-gateway/internal/access"
	"github.com/2389/docex-gateway/internal/api"
)

var (
	// ErrAccessDenied is returned by authorize for keys outside the allow-list.
	ErrAccessDenied = errors.New("invalid access key")

	// ErrNotConfigured is returned when a backend lacks required settings.
	ErrNotConfigured = errors.New("summarizer not configured")

	// ErrEmptyText is returned when there is nothing to summarize.
	ErrEmptyText = errors.New("text is empty")
)

// MockModel is reported as the model of mock summaries.
const MockModel = "mock-extractive"

// DefaultMaxSentences is how many leading sentences the mock keeps.
const DefaultMaxSentences = 3

func authorize(allow *access.AllowList, key string) error {
	if allow == nil || !allow.Allowed(key) {
		return ErrAccessDenied
	}
	return nil
}

// denied is the result returned for an unknown access key.
func denied(text string) *api.SummaryResult {
	return &api.SummaryResult{
		Success:        false,
		Message:        "Invalid access key",
		Error:          "Invalid access key",
		OriginalLength: len(text),
	}
}

// MockSummarizer produces extractive summaries without any external service.
type MockSummarizer struct {
	allow        *access.AllowList
	maxSentences int
	logger       *slog.Logger
}

// NewMockSummarizer creates a mock summarizer. maxSentences <= 0 selects
// DefaultMaxSentences.
func NewMockSummarizer(allow *access.AllowList, maxSentences int, logger *slog.Logger) *MockSummarizer {
	if maxSentences <= 0 {
		maxSentences = DefaultMaxSentences
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MockSummarizer{allow: allow, maxSentences: maxSentences, logger: logger}
}

// Summarize returns the leading sentences of text.
func (m *MockSummarizer) Summarize(ctx context.Context, text, accessKey string) (*api.SummaryResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := authorize(m.allow, accessKey); err != nil {
		m.logger.InfoContext(ctx, "summarization denied", "code_fp", access.Fingerprint(accessKey))
		return denied(text), nil
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	summary := strings.Join(leadingSentences(text, m.maxSentences), " ")
	return &api.SummaryResult{
		Success:        true,
		Summary:        summary,
		Message:        "Text summarized successfully",
		OriginalLength: len(text),
		SummaryLength:  len(summary),
		Model:          MockModel,
	}, nil
}

// leadingSentences splits text on sentence-ending punctuation followed by
// whitespace and returns at most n sentences with whitespace collapsed.
func leadingSentences(text string, n int) []string {
	var sentences []string
	var b strings.Builder

	flush := func() {
		if s := strings.Join(strings.Fields(b.String()), " "); s != "" {
			sentences = append(sentences, s)
		}
		b.Reset()
	}

	runes := []rune(text)
	for i, r := range runes {
		b.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if i+1 == len(runes) || unicode.IsSpace(runes[i+1]) {
				flush()
				if len(sentences) == n {
					return sentences
				}
			}
		}
	}
	flush()
	if len(sentences) > n {
		sentences = sentences[:n]
	}
	return sentences
}

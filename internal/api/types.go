// ABOUTME: Wire types for the gateway JSON API: modes, requests, envelopes, results
// ABOUTME: Shared by the HTTP handlers and the console/browser front ends

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Mode selects which gateway operation a submission performs.
type Mode string

const (
	ModeProcess   Mode = "process"
	ModeVerify    Mode = "verify"
	ModeSummarize Mode = "summarize"
)

// Modes lists every mode in display order.
var Modes = []Mode{ModeProcess, ModeVerify, ModeSummarize}

// ParseMode converts a string into a Mode, rejecting unknown values.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("unknown mode %q (want process, verify or summarize)", s)
	}
	return m, nil
}

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeProcess, ModeVerify, ModeSummarize:
		return true
	}
	return false
}

// Status is the envelope discriminator.
type Status string

const (
	StatusSuccess            Status = "success"
	StatusError              Status = "error"
	StatusVerificationFailed Status = "verification_failed"
	StatusHealthy            Status = "healthy"
	StatusUnhealthy          Status = "unhealthy"
)

// Endpoint paths served by the gateway.
const (
	PathHealth    = "/api/health"
	PathVerify    = "/api/verify_document"
	PathSummarize = "/api/summarize_text"
	PathProcess   = "/api/process_document"
	PathDocuments = "/api/documents"
)

// ErrMissingInput is returned when content or access code is blank.
var ErrMissingInput = errors.New("content and access code are required")

// DocumentRequest is the body of POST /api/verify_document and /api/process_document.
type DocumentRequest struct {
	DocumentContent string `json:"document_content"`
	AccessCode      string `json:"access_code"`
}

// TextRequest is the body of POST /api/summarize_text.
type TextRequest struct {
	TextContent string `json:"text_content"`
	AccessCode  string `json:"access_code"`
}

// ProcessingRequest is one submission from a front end. It lives for a single
// round trip and is never stored.
type ProcessingRequest struct {
	Mode       Mode
	Content    string
	AccessCode string
}

// Trimmed returns a copy with surrounding whitespace removed from both fields.
func (r ProcessingRequest) Trimmed() ProcessingRequest {
	r.Content = strings.TrimSpace(r.Content)
	r.AccessCode = strings.TrimSpace(r.AccessCode)
	return r
}

// Validate checks that both fields are non-empty after trimming.
func (r ProcessingRequest) Validate() error {
	t := r.Trimmed()
	if t.Content == "" || t.AccessCode == "" {
		return ErrMissingInput
	}
	return nil
}

// Body builds the JSON request body for the request's mode.
func (r ProcessingRequest) Body() any {
	if r.Mode == ModeSummarize {
		return TextRequest{TextContent: r.Content, AccessCode: r.AccessCode}
	}
	return DocumentRequest{DocumentContent: r.Content, AccessCode: r.AccessCode}
}

// Envelope is the normalized response shape of every gateway endpoint.
// Result objects stay raw so they can be displayed verbatim.
type Envelope struct {
	Status        Status          `json:"status"`
	Result        json.RawMessage `json:"result,omitempty"`
	Verification  json.RawMessage `json:"verification,omitempty"`
	Summarization json.RawMessage `json:"summarization,omitempty"`
	Error         string          `json:"error,omitempty"`
	Timestamp     string          `json:"timestamp,omitempty"`
}

// VerificationResult is the document verifier's answer. Verified and Message
// are the stable contract; the remaining fields are upstream detail.
type VerificationResult struct {
	Verified               bool   `json:"verified"`
	Message                string `json:"message,omitempty"`
	DocumentID             string `json:"document_id,omitempty"`
	DocumentStatus         string `json:"status,omitempty"`
	Description            string `json:"description,omitempty"`
	VerifiedBy             string `json:"verified_by,omitempty"`
	VerificationSuccessful bool   `json:"verification_successful"`
	ContentHash            string `json:"document_content_hash,omitempty"`
	Error                  string `json:"error,omitempty"`
}

// SummaryResult is the summarizer's answer. Summary and Message are the
// stable contract.
type SummaryResult struct {
	Success        bool   `json:"success"`
	Summary        string `json:"summary,omitempty"`
	Message        string `json:"message,omitempty"`
	Error          string `json:"error,omitempty"`
	OriginalLength int    `json:"original_length,omitempty"`
	SummaryLength  int    `json:"summary_length,omitempty"`
	Model          string `json:"model,omitempty"`
}

// ClientStatus reports which upstream clients the gateway holds.
type ClientStatus struct {
	DocumentClient      bool `json:"document_client"`
	SummarizationClient bool `json:"summarization_client"`
}

// SummarizerStatus describes how the summarization backend is configured.
type SummarizerStatus struct {
	Backend     string   `json:"backend"`
	Configured  bool     `json:"configured"`
	MissingVars []string `json:"missing_vars"`
}

// HealthStatus is the body of GET /api/health.
type HealthStatus struct {
	Status     Status            `json:"status"`
	Clients    ClientStatus      `json:"clients"`
	Mock       bool              `json:"mock"`
	Summarizer *SummarizerStatus `json:"summarizer,omitempty"`
	Error      string            `json:"error,omitempty"`
	Timestamp  string            `json:"timestamp"`
}

// DocumentInfo is one entry of GET /api/documents.
type DocumentInfo struct {
	DocumentID  string `json:"document_id"`
	Status      string `json:"status"`
	Description string `json:"description"`
}

// DocumentList is the body of GET /api/documents.
type DocumentList struct {
	Status     Status         `json:"status"`
	Documents  []DocumentInfo `json:"documents"`
	TotalCount int            `json:"total_count"`
	Error      string         `json:"error,omitempty"`
}

// Timestamp formats t the way every envelope does.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// Success builds a success envelope whose result is v.
func Success(v any, now time.Time) (*Envelope, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return &Envelope{Status: StatusSuccess, Result: raw, Timestamp: Timestamp(now)}, nil
}

// Processed builds the envelope for /api/process_document. Summary may be nil
// when verification failed.
func Processed(verification *VerificationResult, summary *SummaryResult, now time.Time) (*Envelope, error) {
	if verification == nil {
		return nil, errors.New("verification result is required")
	}
	env := &Envelope{Status: StatusVerificationFailed, Timestamp: Timestamp(now)}

	raw, err := json.Marshal(verification)
	if err != nil {
		return nil, fmt.Errorf("encoding verification: %w", err)
	}
	env.Verification = raw

	if verification.Verified {
		env.Status = StatusSuccess
	}
	if summary != nil {
		raw, err := json.Marshal(summary)
		if err != nil {
			return nil, fmt.Errorf("encoding summarization: %w", err)
		}
		env.Summarization = raw
	}
	return env, nil
}

// Failure builds an error envelope.
func Failure(message string, now time.Time) *Envelope {
	return &Envelope{Status: StatusError, Error: message, Timestamp: Timestamp(now)}
}

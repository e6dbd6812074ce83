// ABOUTME: HTTP JSON API handlers for document verification and summarization
// ABOUTME: Every endpoint answers with the normalized envelope from internal/api

package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/2389/docex-gateway/internal/access"
	"github.com/2389/docex-gateway/internal/api"
)

// MaxRequestBody caps POST bodies.
const MaxRequestBody = 1 << 20

// Error messages returned in envelopes.
const (
	msgMissingDocument = "Both document content and access code are required"
	msgMissingText     = "Both text content and access code are required"
	msgInvalidJSON     = "Invalid JSON body"
	msgBodyTooLarge    = "Request body too large"
	msgNoVerifier      = "Document verification service not available"
	msgNoSummarizer    = "Summarization service not available"
	msgNoProcessing    = "Document processing services not available"
	msgNoClients       = "no clients configured"
)

// registerAPIRoutes registers the JSON endpoints on mux.
func (g *Gateway) registerAPIRoutes(mux *http.ServeMux) {
	mux.HandleFunc(api.PathHealth, g.handleHealth)
	mux.HandleFunc(api.PathVerify, g.handleVerifyDocument)
	mux.HandleFunc(api.PathSummarize, g.handleSummarizeText)
	mux.HandleFunc(api.PathProcess, g.handleProcessDocument)
	mux.HandleFunc(api.PathDocuments, g.handleListDocuments)
}

// handleHealth handles GET /api/health.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		g.sendMethodNotAllowed(w, http.MethodGet)
		return
	}

	now := api.Timestamp(g.now())
	if g.backends.Verifier == nil && g.backends.Summarizer == nil {
		g.writeJSON(w, http.StatusServiceUnavailable, api.HealthStatus{
			Status:    api.StatusUnhealthy,
			Error:     msgNoClients,
			Timestamp: now,
		})
		return
	}

	summarizer := g.backends.SummarizerStatus
	if summarizer.MissingVars == nil {
		summarizer.MissingVars = []string{}
	}
	g.writeJSON(w, http.StatusOK, api.HealthStatus{
		Status:     api.StatusHealthy,
		Clients:    g.clientStatus(r.Context()),
		Mock:       g.backends.Mock,
		Summarizer: &summarizer,
		Timestamp:  now,
	})
}

// handleVerifyDocument handles POST /api/verify_document.
func (g *Gateway) handleVerifyDocument(w http.ResponseWriter, r *http.Request) {
	req, ok := g.parseDocumentRequest(w, r)
	if !ok {
		return
	}
	if g.backends.Verifier == nil {
		g.sendJSONError(w, http.StatusServiceUnavailable, msgNoVerifier)
		return
	}

	logger := loggerFrom(r.Context(), g.logger)
	logger.Info("verifying document", "code_fp", access.Fingerprint(req.AccessCode), "length", len(req.DocumentContent))

	result := g.verify(r, req.DocumentContent, req.AccessCode)
	g.sendSuccess(w, result)
}

// handleSummarizeText handles POST /api/summarize_text.
func (g *Gateway) handleSummarizeText(w http.ResponseWriter, r *http.Request) {
	if !g.requirePost(w, r) {
		return
	}

	var req api.TextRequest
	if !g.decodeBody(w, r, &req) {
		return
	}
	req.TextContent = strings.TrimSpace(req.TextContent)
	req.AccessCode = strings.TrimSpace(req.AccessCode)
	if req.TextContent == "" || req.AccessCode == "" {
		g.sendJSONError(w, http.StatusOK, msgMissingText)
		return
	}
	if g.backends.Summarizer == nil {
		g.sendJSONError(w, http.StatusServiceUnavailable, msgNoSummarizer)
		return
	}

	logger := loggerFrom(r.Context(), g.logger)
	logger.Info("summarizing text", "code_fp", access.Fingerprint(req.AccessCode), "length", len(req.TextContent))

	result := g.summarize(r, req.TextContent, req.AccessCode)
	g.sendSuccess(w, result)
}

// handleProcessDocument handles POST /api/process_document: verify, then
// summarize only when the document verified.
func (g *Gateway) handleProcessDocument(w http.ResponseWriter, r *http.Request) {
	req, ok := g.parseDocumentRequest(w, r)
	if !ok {
		return
	}
	if g.backends.Verifier == nil || g.backends.Summarizer == nil {
		g.sendJSONError(w, http.StatusServiceUnavailable, msgNoProcessing)
		return
	}

	logger := loggerFrom(r.Context(), g.logger)
	logger.Info("processing document", "code_fp", access.Fingerprint(req.AccessCode), "length", len(req.DocumentContent))

	verification := g.verify(r, req.DocumentContent, req.AccessCode)

	var summary *api.SummaryResult
	if verification.Verified {
		summary = g.summarize(r, req.DocumentContent, req.AccessCode)
	} else {
		logger.Info("document verification failed", "message", verification.Message)
	}

	env, err := api.Processed(verification, summary, g.now())
	if err != nil {
		logger.Error("failed to build envelope", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "Document processing failed: "+err.Error())
		return
	}
	g.writeJSON(w, http.StatusOK, env)
}

// handleListDocuments handles GET /api/documents.
func (g *Gateway) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		g.sendMethodNotAllowed(w, http.MethodGet)
		return
	}
	if g.backends.Verifier == nil {
		g.writeJSON(w, http.StatusServiceUnavailable, api.DocumentList{
			Status:    api.StatusError,
			Documents: []api.DocumentInfo{},
			Error:     msgNoVerifier,
		})
		return
	}

	docs, err := g.backends.Verifier.List(r.Context())
	if err != nil {
		loggerFrom(r.Context(), g.logger).Error("failed to list documents", "error", err)
		g.writeJSON(w, http.StatusOK, api.DocumentList{
			Status:    api.StatusError,
			Documents: []api.DocumentInfo{},
			Error:     "Document listing failed: " + err.Error(),
		})
		return
	}
	if docs == nil {
		docs = []api.DocumentInfo{}
	}
	g.writeJSON(w, http.StatusOK, api.DocumentList{
		Status:     api.StatusSuccess,
		Documents:  docs,
		TotalCount: len(docs),
	})
}

// verify calls the verifier, folding a client failure into an unverified result.
func (g *Gateway) verify(r *http.Request, content, accessCode string) *api.VerificationResult {
	res, err := g.backends.Verifier.Verify(r.Context(), content, accessCode)
	if err == nil && res != nil {
		return res
	}
	if err == nil {
		err = errors.New("empty verification result")
	}
	loggerFrom(r.Context(), g.logger).Error("document verification error", "error", err)
	return &api.VerificationResult{
		Verified: false,
		Error:    err.Error(),
		Message:  "Document verification failed: " + err.Error(),
	}
}

// summarize calls the summarizer, folding a client failure into an
// unsuccessful result.
func (g *Gateway) summarize(r *http.Request, text, accessKey string) *api.SummaryResult {
	res, err := g.backends.Summarizer.Summarize(r.Context(), text, accessKey)
	if err == nil && res != nil {
		return res
	}
	if err == nil {
		err = errors.New("empty summarization result")
	}
	loggerFrom(r.Context(), g.logger).Error("text summarization error", "error", err)
	return &api.SummaryResult{
		Success: false,
		Error:   err.Error(),
		Message: "Text summarization failed: " + err.Error(),
	}
}

// parseDocumentRequest reads a DocumentRequest, writing the error response
// itself when the request is unusable.
func (g *Gateway) parseDocumentRequest(w http.ResponseWriter, r *http.Request) (*api.DocumentRequest, bool) {
	if !g.requirePost(w, r) {
		return nil, false
	}

	var req api.DocumentRequest
	if !g.decodeBody(w, r, &req) {
		return nil, false
	}
	req.DocumentContent = strings.TrimSpace(req.DocumentContent)
	req.AccessCode = strings.TrimSpace(req.AccessCode)
	if req.DocumentContent == "" || req.AccessCode == "" {
		g.sendJSONError(w, http.StatusOK, msgMissingDocument)
		return nil, false
	}
	return &req, true
}

func (g *Gateway) requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		g.sendMethodNotAllowed(w, http.MethodPost)
		return false
	}
	return true
}

// decodeBody decodes a JSON body of at most MaxRequestBody bytes into v.
func (g *Gateway) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := parseJSONBody(http.MaxBytesReader(w, r.Body, MaxRequestBody), v)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		g.sendJSONError(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
		return false
	}
	loggerFrom(r.Context(), g.logger).Debug("rejecting request body", "error", err)
	g.sendJSONError(w, http.StatusBadRequest, msgInvalidJSON)
	return false
}

// parseJSONBody decodes a single JSON object from r.
func parseJSONBody(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decoding body: %w", err)
	}
	return nil
}

// sendSuccess writes a success envelope carrying result.
func (g *Gateway) sendSuccess(w http.ResponseWriter, result any) {
	env, err := api.Success(result, g.now())
	if err != nil {
		g.logger.Error("failed to build envelope", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	g.writeJSON(w, http.StatusOK, env)
}

// sendJSONError writes an error envelope.
func (g *Gateway) sendJSONError(w http.ResponseWriter, status int, message string) {
	g.writeJSON(w, status, api.Failure(message, g.now()))
}

func (g *Gateway) sendMethodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	g.sendJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func (g *Gateway) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		g.logger.Debug("failed to write response", "error", err)
	}
}

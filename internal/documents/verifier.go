// ABOUTME: Document verifiers backed by the local registry or an upstream tool server.
// ABOUTME: Both shape their answers into api.VerificationResult the same way.

package documents

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/2389/docex-gateway/internal/access"
	"github.com/2389/docex-gateway/internal/api"
	"github.com/2389/docex-gateway/internal/mcp"
)

// Tool names on the upstream document server.
const (
	ToolVerifyDocument = "verify_document"
	ToolListDocuments  = "list_documents"
)

// lookupResult is the verify_document tool output.
type lookupResult struct {
	DocumentID             string `json:"document_id"`
	Status                 string `json:"status"`
	Description            string `json:"description"`
	VerifiedBy             string `json:"verified_by,omitempty"`
	VerificationSuccessful bool   `json:"verification_successful"`
	Error                  string `json:"error,omitempty"`
}

// listResult is the list_documents tool output.
type listResult struct {
	Documents  []api.DocumentInfo `json:"documents"`
	TotalCount int                `json:"total_count"`
	Error      string             `json:"error,omitempty"`
}

// toResult turns a lookup into the verification answer for content.
func toResult(l lookupResult, content string) *api.VerificationResult {
	res := &api.VerificationResult{
		DocumentID:             l.DocumentID,
		DocumentStatus:         l.Status,
		Description:            l.Description,
		VerifiedBy:             l.VerifiedBy,
		VerificationSuccessful: l.VerificationSuccessful,
		ContentHash:            ContentHash(content),
		Error:                  l.Error,
	}

	switch {
	case l.Error != "":
		res.Message = "Document verification failed: " + l.Error
	case !l.VerificationSuccessful:
		res.Message = "Document not found in verification database"
	case l.Status == StatusVerified:
		res.Verified = true
		res.Message = fmt.Sprintf("Document %s verified: %s", l.DocumentID, l.Description)
	default:
		res.Message = "document " + l.Status
	}
	return res
}

// MockVerifier answers from an in-memory registry.
type MockVerifier struct {
	registry *Registry
	logger   *slog.Logger
}

// NewMockVerifier creates a verifier over registry. A nil registry uses DefaultRecords.
func NewMockVerifier(registry *Registry, logger *slog.Logger) *MockVerifier {
	if registry == nil {
		registry = NewRegistry(DefaultRecords())
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MockVerifier{registry: registry, logger: logger}
}

// Verify looks up accessCode as a document ID.
func (m *MockVerifier) Verify(ctx context.Context, content, accessCode string) (*api.VerificationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l := lookupResult{DocumentID: accessCode, Status: StatusNotFound, Description: "Document not found in verification database"}
	if rec, err := m.registry.Lookup(accessCode); err == nil {
		l = lookupResult{
			DocumentID:             rec.ID,
			Status:                 rec.Status,
			Description:            rec.Description,
			VerifiedBy:             rec.VerifiedBy,
			VerificationSuccessful: true,
		}
	}

	res := toResult(l, content)
	m.logger.DebugContext(ctx, "document verified",
		"code_fp", access.Fingerprint(accessCode),
		"status", res.DocumentStatus,
		"verified", res.Verified,
	)
	return res, nil
}

// List returns every registered document.
func (m *MockVerifier) List(ctx context.Context) ([]api.DocumentInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.registry.List(), nil
}

// RemoteVerifier calls an upstream document server.
type RemoteVerifier struct {
	client *mcp.Client
	logger *slog.Logger
}

// NewRemoteVerifier creates a verifier backed by client.
func NewRemoteVerifier(client *mcp.Client, logger *slog.Logger) *RemoteVerifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &RemoteVerifier{client: client, logger: logger}
}

// Verify calls the verify_document tool with accessCode as the document ID.
func (r *RemoteVerifier) Verify(ctx context.Context, content, accessCode string) (*api.VerificationResult, error) {
	args := map[string]any{"document_id": accessCode, "encrypted": false}

	var l lookupResult
	if err := r.client.CallTool(ctx, ToolVerifyDocument, args, &l); err != nil {
		return nil, fmt.Errorf("verifying document: %w", err)
	}

	res := toResult(l, content)
	r.logger.DebugContext(ctx, "document verified upstream",
		"code_fp", access.Fingerprint(accessCode),
		"status", res.DocumentStatus,
		"verified", res.Verified,
	)
	return res, nil
}

// List calls the list_documents tool.
func (r *RemoteVerifier) List(ctx context.Context) ([]api.DocumentInfo, error) {
	var l listResult
	if err := r.client.CallTool(ctx, ToolListDocuments, map[string]any{"encrypted": false}, &l); err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	if l.Error != "" {
		return nil, fmt.Errorf("listing documents: %s", l.Error)
	}
	return l.Documents, nil
}

// Probe reports whether the upstream answers a listing.
func (r *RemoteVerifier) Probe(ctx context.Context) error {
	_, err := r.List(ctx)
	return err
}

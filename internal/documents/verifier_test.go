// ABOUTME: Tests for the mock and remote document verifiers.
// ABOUTME: Remote tests run against an httptest tool server.

package documents

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/docex-gateway/internal/mcp"
)

func TestContentHash(t *testing.T) {
	// md5("hello") = 5d41402abc4b2a76b9719d911017c592
	assert.Equal(t, "5d41402a", ContentHash("hello"))
}

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry(DefaultRecords())

	rec, err := r.Lookup("DOC002")
	require.NoError(t, err)
	assert.Equal(t, "Financial Report Q4", rec.Description)

	_, err = r.Lookup("NOPE")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_ListSorted(t *testing.T) {
	r := NewRegistry([]Record{
		{ID: "B", Status: StatusVerified},
		{ID: "A", Status: StatusRevoked},
	})
	docs := r.List()
	require.Len(t, docs, 2)
	assert.Equal(t, "A", docs[0].DocumentID)
	assert.Equal(t, StatusRevoked, docs[0].Status)
}

func TestMockVerifier_Verify(t *testing.T) {
	v := NewMockVerifier(nil, nil)
	ctx := context.Background()

	tests := []struct {
		name         string
		code         string
		wantVerified bool
		wantFound    bool
		wantStatus   string
		wantMessage  string
	}{
		{"verified document", "DOC001", true, true, StatusVerified, "Document DOC001 verified: Contract Agreement 2024"},
		{"revoked document", "DOC003", false, true, StatusRevoked, "document revoked"},
		{"unknown document", "SECRETKEY123", false, false, StatusNotFound, "Document not found in verification database"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := v.Verify(ctx, "hello", tt.code)
			require.NoError(t, err)
			assert.Equal(t, tt.wantVerified, res.Verified)
			assert.Equal(t, tt.wantFound, res.VerificationSuccessful)
			assert.Equal(t, tt.wantStatus, res.DocumentStatus)
			assert.Equal(t, tt.wantMessage, res.Message)
			assert.Equal(t, tt.code, res.DocumentID)
			assert.Equal(t, "5d41402a", res.ContentHash)
		})
	}
}

func TestMockVerifier_CanceledContext(t *testing.T) {
	v := NewMockVerifier(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := v.Verify(ctx, "x", "DOC001")
	assert.ErrorIs(t, err, context.Canceled)

	_, err = v.List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMockVerifier_List(t *testing.T) {
	docs, err := NewMockVerifier(nil, nil).List(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "DOC001", docs[0].DocumentID)
}

// documentServer is a fake upstream document server.
func documentServer(t *testing.T) *mcp.Client {
	t.Helper()
	reg := NewRegistry(DefaultRecords())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req mcp.JSONRPCRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		var params mcp.MCPCallToolParams
		assert.NoError(t, json.Unmarshal(req.Params, &params))

		var out any
		switch params.Name {
		case ToolVerifyDocument:
			var args struct {
				DocumentID string `json:"document_id"`
			}
			assert.NoError(t, json.Unmarshal(params.Arguments, &args))
			rec, err := reg.Lookup(args.DocumentID)
			if err != nil {
				out = lookupResult{DocumentID: args.DocumentID, Status: StatusNotFound}
			} else {
				out = lookupResult{DocumentID: rec.ID, Status: rec.Status, Description: rec.Description, VerifiedBy: rec.VerifiedBy, VerificationSuccessful: true}
			}
		case ToolListDocuments:
			docs := reg.List()
			out = listResult{Documents: docs, TotalCount: len(docs)}
		}

		text, _ := json.Marshal(out)
		_ = json.NewEncoder(w).Encode(mcp.JSONRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  mustJSON(mcp.MCPCallToolResult{Content: []mcp.MCPContent{{Type: "text", Text: string(text)}}}),
		})
	}))
	t.Cleanup(srv.Close)

	c, err := mcp.NewClient(mcp.ClientConfig{URL: srv.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)
	return c
}

func mustJSON(v any) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}

func TestRemoteVerifier_Verify(t *testing.T) {
	v := NewRemoteVerifier(documentServer(t), nil)

	res, err := v.Verify(context.Background(), "hello", "DOC002")
	require.NoError(t, err)
	assert.True(t, res.Verified)
	assert.Equal(t, "Agent B", res.VerifiedBy)
	assert.Equal(t, "5d41402a", res.ContentHash)

	res, err = v.Verify(context.Background(), "hello", "DOC003")
	require.NoError(t, err)
	assert.False(t, res.Verified)
	assert.Equal(t, "document revoked", res.Message)
}

func TestRemoteVerifier_List(t *testing.T) {
	v := NewRemoteVerifier(documentServer(t), nil)

	docs, err := v.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, 3)
}

func TestRemoteVerifier_UpstreamDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := mcp.NewClient(mcp.ClientConfig{URL: srv.URL, MaxRetries: -1})
	require.NoError(t, err)

	_, err = NewRemoteVerifier(c, nil).Verify(context.Background(), "x", "DOC001")
	var httpErr *mcp.HTTPError
	assert.ErrorAs(t, err, &httpErr)
}

func TestRemoteVerifier_Probe(t *testing.T) {
	assert.NoError(t, NewRemoteVerifier(documentServer(t), nil).Probe(context.Background()))
}

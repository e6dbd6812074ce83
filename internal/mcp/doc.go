// Package mcp is a minimal client for upstream tool servers.
//
// # Overview
//
// The document verifier and summarizer run as separate services that expose
// their operations as tools. The gateway reaches them with a single JSON-RPC 2.0
// method, tools/call, posted to the service's base URL:
//
//	{
//	  "jsonrpc": "2.0",
//	  "method": "tools/call",
//	  "params": {
//	    "name": "verify_document",
//	    "arguments": {"document_id": "DOC001", "encrypted": false}
//	  },
//	  "id": "5f0c..."
//	}
//
// The first text content item of the result is decoded as JSON into the
// caller's value. Results flagged isError become a *ToolError, JSON-RPC error
// objects become a *JSONRPCError, and non-2xx responses become an *HTTPError.
//
// # Retries
//
// Network failures, 5xx and 429 responses are retried up to MaxRetries times
// with linear backoff. Tool and JSON-RPC errors are returned immediately.
//
// There are no sessions, no initialize handshake and no streaming.
package mcp

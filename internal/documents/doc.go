// Package documents provides the document verifiers used by the gateway.
//
// Two implementations share the same result shaping:
//
//   - MockVerifier answers from an in-memory Registry seeded with the demo
//     documents (DOC001, DOC002, DOC003).
//   - RemoteVerifier calls the verify_document and list_documents tools of an
//     upstream document server through an mcp.Client.
//
// The submitted access code is used as the document ID and the content itself
// is only fingerprinted (document_content_hash). A document counts as verified
// only when it exists and its status is "verified"; revoked documents are
// found but not verified.
package documents

// Package api defines the JSON wire types shared by the docex gateway and its
// front ends.
//
// # Envelope
//
// Every gateway endpoint answers with an Envelope carrying a status
// discriminator:
//
//	{"status": "success", "result": {...}, "timestamp": "..."}
//	{"status": "verification_failed", "verification": {...}}
//	{"status": "error", "error": "message"}
//
// Result objects are kept as raw JSON so that front ends can show them
// verbatim. Normalize converts an Envelope into an Outcome, a tagged union
// keyed by Mode, so renderers never inspect the wire shape themselves.
//
// # Modes
//
// A Mode selects the endpoint and the rendering branch:
//
//   - process: POST /api/process_document (verify, then summarize)
//   - verify: POST /api/verify_document
//   - summarize: POST /api/summarize_text
package api

// Package gateway orchestrates the docex-gateway server components.
//
// # Overview
//
// The gateway is a thin HTTP JSON shim. Each endpoint validates its input,
// delegates to a DocumentVerifier and/or a Summarizer, and answers with the
// envelope defined in internal/api. It also serves the browser UI from
// internal/webui and, when configured, the standard gRPC health service.
//
// # Backends
//
// NewBackends builds the clients from configuration:
//
//   - mock mode: documents.MockVerifier and summarizer.MockSummarizer
//   - otherwise: documents.RemoteVerifier over the upstream document server,
//     and summarizer.AzureClient when Azure OpenAI is configured or
//     summarizer.RemoteSummarizer over the upstream summarization server
//
// Clients that implement Prober are probed for GET /api/health and for the
// gRPC health status; the others count as available whenever configured.
//
// # HTTP API
//
//   - GET /api/health - client availability, mock flag, summarizer config
//   - POST /api/verify_document - {document_content, access_code}
//   - POST /api/summarize_text - {text_content, access_code}
//   - POST /api/process_document - verify, then summarize if verified
//   - GET /api/documents - documents known to the verifier
//
// Application outcomes, including "error" and "verification_failed", are
// answered with 200. Client failures are folded into the result object the
// way the upstream would report them. Non-2xx codes are reserved for
// malformed bodies (400), oversized bodies (413), wrong methods (405), missing
// clients (503) and recovered panics (500).
//
// Every response carries X-Request-ID; handlers log through a request-scoped
// logger and never log access codes, only access.Fingerprint values.
//
// # gRPC Health
//
// With server.grpc_addr set, grpc.health.v1.Health reports:
//
//	""                        any client available
//	docex.DocumentVerifier    verifier available
//	docex.Summarizer          summarizer available
//
// # Lifecycle
//
//	gw, err := gateway.New(cfg, logger)
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	err = gw.Run(ctx) // returns after graceful shutdown
//
// Run binds TCP or tsnet listeners, then runs the servers under an errgroup.
// Cancelling ctx shuts everything down with a five second budget.
package gateway

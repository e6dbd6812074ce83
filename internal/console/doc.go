// Package console implements the document exchange front end independent of
// any display.
//
// # Components
//
//   - Modes / SpecFor: the action controller, mapping a Mode to its button
//     label, loading label, endpoint and request body field.
//   - Session: the selected mode and the single in-flight flag.
//   - Dispatcher: performs one gateway call for a submission and reduces every
//     failure to a typed error (ValidationError, ErrBusy, TransportError,
//     TimeoutError, ApplicationError). Submit runs Dispatch and Render and
//     turns every failure into log entries.
//   - Render: a pure function from a normalized api.Outcome to log entries
//     and an optional Modal with pretty-printed result dumps.
//   - HealthMonitor: polls GET /api/health at startup and every minute and
//     exposes three Indicators.
//   - LogStore: the newest-first activity log with an optional size cap.
//
// # Concurrency
//
// At most one processing request is in flight per Session. The health monitor
// runs on its own goroutine and shares only the LogStore with the submit path.
// Health checks and processing requests never wait on each other.
//
// Terminal rendering lives in cmd/docex-tui; the browser UI in internal/webui
// follows the same rules in JavaScript.
package console

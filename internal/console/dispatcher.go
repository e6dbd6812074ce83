// ABOUTME: Sends one processing request to the gateway and classifies the result
// ABOUTME: Submit turns every outcome, including failures, into log entries

package console

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/2389/docex-gateway/internal/api"
)

// DefaultTimeout bounds a single processing request.
const DefaultTimeout = 60 * time.Second

// maxEnvelopeSize caps how much of a response body is read.
const maxEnvelopeSize = 4 << 20

// MissingInputMessage is logged when content or access code is blank.
const MissingInputMessage = "Please provide both the document/text and an access code."

// DispatcherConfig configures a Dispatcher.
type DispatcherConfig struct {
	// BaseURL is the gateway root, e.g. http://localhost:5000.
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	Log        *LogStore
	Logger     *slog.Logger
}

// Dispatcher issues processing requests against the gateway.
type Dispatcher struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	log     *LogStore
	logger  *slog.Logger
}

// NewDispatcher creates a Dispatcher. Log is required.
func NewDispatcher(cfg DispatcherConfig) (*Dispatcher, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	if cfg.Log == nil {
		return nil, errors.New("log store is required")
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Dispatcher{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  cfg.HTTPClient,
		timeout: cfg.Timeout,
		log:     cfg.Log,
		logger:  cfg.Logger.With("component", "dispatcher"),
	}, nil
}

// Dispatch validates the input, claims the session's in-flight slot and POSTs
// to the mode's endpoint. The returned error is one of ErrBusy,
// *ValidationError, *TransportError, *TimeoutError or *ApplicationError.
func (d *Dispatcher) Dispatch(ctx context.Context, s *Session, mode api.Mode, content, accessCode string) (*api.Envelope, error) {
	spec, req, err := prepare(mode, content, accessCode)
	if err != nil {
		return nil, err
	}
	if !s.TryBegin() {
		return nil, ErrBusy
	}
	defer s.End()
	return d.post(ctx, spec, req)
}

// prepare resolves the mode and trims and validates the input.
func prepare(mode api.Mode, content, accessCode string) (ModeSpec, api.ProcessingRequest, error) {
	spec := SpecFor(mode)
	if spec.Endpoint == "" {
		return spec, api.ProcessingRequest{}, &ValidationError{Message: fmt.Sprintf("Unknown mode: %s", mode)}
	}
	req := api.ProcessingRequest{Mode: mode, Content: content, AccessCode: accessCode}.Trimmed()
	if err := req.Validate(); err != nil {
		return spec, req, &ValidationError{Message: MissingInputMessage}
	}
	return spec, req, nil
}

// post logs the request entry and performs the HTTP round trip. The caller
// holds the in-flight slot.
func (d *Dispatcher) post(ctx context.Context, spec ModeSpec, req api.ProcessingRequest) (*api.Envelope, error) {
	mode := spec.Mode
	d.log.Append(SourceYou, KindUser, fmt.Sprintf("%s requested (%d characters)", spec.ButtonLabel, len(req.Content)))

	body, err := json.Marshal(req.Body())
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("encoding request: %w", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+spec.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := d.client.Do(httpReq)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &TimeoutError{After: d.timeout}
		}
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	d.logger.Debug("gateway responded",
		"mode", mode,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{StatusCode: resp.StatusCode, Status: statusText(resp.Status)}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxEnvelopeSize))
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &TimeoutError{After: d.timeout}
		}
		return nil, &TransportError{Err: fmt.Errorf("reading response: %w", err)}
	}

	var env api.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &TransportError{Err: fmt.Errorf("decoding response: %w", err)}
	}
	if env.Status == api.StatusError {
		msg := env.Error
		if msg == "" {
			msg = "Unknown error"
		}
		return nil, &ApplicationError{Message: msg}
	}
	return &env, nil
}

// Submit runs one processing request for the session's current mode and
// appends the resulting entries to the log. It returns the modal to show, or
// nil when there is nothing to show. The in-flight slot is held until the
// outcome has been logged. Submit never panics.
func (d *Dispatcher) Submit(ctx context.Context, s *Session, content, accessCode string) (modal *Modal) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("submit panicked", "panic", r)
			d.log.Append(SourceSystem, KindError, fmt.Sprintf("Internal error: %v", r))
			modal = nil
		}
	}()

	mode := s.Mode()
	spec, req, err := prepare(mode, content, accessCode)
	if err != nil {
		d.logFailure(err)
		return nil
	}
	if !s.TryBegin() {
		d.logFailure(ErrBusy)
		return nil
	}
	defer s.End()

	env, err := d.post(ctx, spec, req)
	if err != nil {
		d.logFailure(err)
		return nil
	}

	outcome, err := api.Normalize(mode, env)
	if err != nil {
		d.logger.Warn("malformed envelope", "mode", mode, "error", err)
		d.log.Append(SourceSystem, KindError, fmt.Sprintf("Malformed response: %v", err))
		return nil
	}

	r := Render(mode, outcome)
	d.log.AppendAll(r.Entries)
	return r.Modal
}

func (d *Dispatcher) logFailure(err error) {
	var (
		validation *ValidationError
		transport  *TransportError
		timeout    *TimeoutError
		app        *ApplicationError
	)
	switch {
	case errors.Is(err, ErrBusy):
		d.logger.Debug("submission dropped while busy")
	case errors.As(err, &validation):
		d.log.Append(SourceValidation, KindError, validation.Message)
	case errors.As(err, &timeout):
		d.log.Append(SourceSystem, KindError, fmt.Sprintf("Request timed out after %s", timeout.After))
	case errors.As(err, &transport):
		d.logger.Warn("request failed", "error", err)
		if transport.Err != nil {
			d.log.Append(SourceSystem, KindError, "Network error: "+transport.Err.Error())
		} else {
			d.log.Append(SourceSystem, KindError, "Server error: "+transport.Error())
		}
	case errors.As(err, &app):
		d.log.Append(SourceSystem, KindError, "Error: "+app.Message)
	default:
		d.log.Append(SourceSystem, KindError, "Error: "+err.Error())
	}
}

// statusText strips the numeric prefix from an http.Response Status.
func statusText(status string) string {
	if _, text, ok := strings.Cut(status, " "); ok {
		return text
	}
	return status
}

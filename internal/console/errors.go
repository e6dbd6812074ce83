// ABOUTME: Error taxonomy of the request dispatcher
// ABOUTME: Every dispatch failure is one of these; Submit maps them to log entries

package console

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrBusy is returned when a submission arrives while another is in flight.
// The submission is dropped without a log entry.
var ErrBusy = errors.New("a request is already in flight")

// ValidationError reports missing input. No network call was made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// TransportError reports a non-2xx response or a network failure.
type TransportError struct {
	StatusCode int
	Status     string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("network error: %v", e.Err)
	}
	status := e.Status
	if status == "" {
		status = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d %s", e.StatusCode, status)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// TimeoutError reports a request that did not settle in time.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request timed out after %s", e.After)
}

// ApplicationError carries the gateway's error message verbatim.
type ApplicationError struct {
	Message string
}

func (e *ApplicationError) Error() string {
	return e.Message
}

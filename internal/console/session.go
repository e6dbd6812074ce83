// ABOUTME: Per-user front end state: the selected mode and the in-flight flag
// ABOUTME: Observers are told about label and loading changes

package console

import (
	"sync"
	"sync/atomic"

	"github.com/2389/docex-gateway/internal/api"
)

// Observer receives UI state changes. Either field may be nil.
type Observer struct {
	// Label is called with the button label whenever the mode changes.
	Label func(label string)
	// Loading is called when a request starts and settles, with the label
	// to show while in that state.
	Loading func(loading bool, label string)
}

// Session holds the selected mode and guards against concurrent submissions.
type Session struct {
	mu       sync.RWMutex
	mode     api.Mode
	inFlight atomic.Bool
	observer Observer
}

// NewSession creates a session in mode and notifies the label observer once.
// An invalid mode falls back to process.
func NewSession(mode api.Mode, observer Observer) *Session {
	s := &Session{observer: observer}
	if !mode.Valid() {
		mode = api.ModeProcess
	}
	_ = s.SelectMode(mode)
	return s
}

// SelectMode switches the current mode and notifies the label observer.
func (s *Session) SelectMode(m api.Mode) error {
	if !m.Valid() {
		_, err := api.ParseMode(string(m))
		return err
	}
	s.mu.Lock()
	s.mode = m
	s.mu.Unlock()

	if s.observer.Label != nil {
		s.observer.Label(SpecFor(m).ButtonLabel)
	}
	return nil
}

// Mode returns the current mode.
func (s *Session) Mode() api.Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// Spec returns the spec of the current mode.
func (s *Session) Spec() ModeSpec {
	return SpecFor(s.Mode())
}

// Busy reports whether a request is in flight.
func (s *Session) Busy() bool {
	return s.inFlight.Load()
}

// TryBegin claims the in-flight slot. It returns false if a request is
// already running.
func (s *Session) TryBegin() bool {
	if !s.inFlight.CompareAndSwap(false, true) {
		return false
	}
	if s.observer.Loading != nil {
		s.observer.Loading(true, s.Spec().LoadingLabel)
	}
	return true
}

// End releases the in-flight slot claimed by TryBegin. The loading observer
// runs before the slot is released, so a submission it triggers is dropped.
func (s *Session) End() {
	defer s.inFlight.Store(false)
	if s.observer.Loading != nil {
		s.observer.Loading(false, s.Spec().ButtonLabel)
	}
}

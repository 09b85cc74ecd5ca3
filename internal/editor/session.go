// Package editor manages the modal configuration editing session.
//
// While a session is open the main loop stops triggering notes and the
// board may be changed through the HTTP editing API. Only one session can
// be open at a time.
package editor

import (
	"errors"
	"sync"
	"time"
)

// ErrAlreadyOpen is returned when opening an editor that is already open.
var ErrAlreadyOpen = errors.New("editor already open")

// Status describes the editor session.
type Status struct {
	Open     bool      `json:"open"`
	OpenedAt time.Time `json:"opened_at,omitzero"`
}

// Session is the single editor session.
type Session struct {
	mu       sync.Mutex
	open     bool
	openedAt time.Time
	done     chan struct{}
	now      func() time.Time
}

// NewSession creates a closed session.
func NewSession() *Session {
	done := make(chan struct{})
	close(done)
	return &Session{done: done, now: time.Now}
}

// Open starts a session.
func (s *Session) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.open {
		return ErrAlreadyOpen
	}
	s.open = true
	s.openedAt = s.now()
	s.done = make(chan struct{})
	return nil
}

// Close ends the session. Closing a closed session is a no-op.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return
	}
	s.open = false
	s.openedAt = time.Time{}
	close(s.done)
}

// Toggle opens a closed session or closes an open one and reports whether
// the session is now open.
func (s *Session) Toggle() bool {
	if err := s.Open(); err == nil {
		return true
	}
	s.Close()
	return false
}

// IsOpen reports whether a session is open.
func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Done returns a channel closed when the current session ends. It is
// already closed when no session is open.
func (s *Session) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Status returns a snapshot of the session state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{Open: s.open, OpenedAt: s.openedAt}
}

package oauth

import (
	"sync"
)

// SessionView is a read-only snapshot of the in-flight session, handed to
// the exchange step. It never includes the completion channel.
type SessionView struct {
	CodeVerifier string
	State        string
	Port         int
}

// session is the single slot's content. The completion channel is buffered
// with capacity one so the listener never blocks on delivery.
type session struct {
	view        SessionView
	codeCh      chan string
	senderTaken bool
}

// SessionStore holds the process-wide, single-slot state for the in-flight
// authorization session. At most one session exists at any time; beginning
// a new one replaces whatever the slot held, and the superseded listener
// notices the state change on its next poll and exits.
//
// All access goes through one mutex held only for the duration of each
// operation, never across network calls.
type SessionStore struct {
	mu     sync.Mutex
	active *session
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

// Begin replaces the session slot with a fresh session and returns the
// receive side of its one-shot completion channel. Overwriting an existing
// session is not an error: starting a new flow implicitly invalidates the
// old one.
func (s *SessionStore) Begin(verifier, state string, port int) <-chan string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active = &session{
		view: SessionView{
			CodeVerifier: verifier,
			State:        state,
			Port:         port,
		},
		codeCh: make(chan string, 1),
	}
	return s.active.codeCh
}

// Current returns a read-only snapshot of the active session, if any.
func (s *SessionStore) Current() (SessionView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return SessionView{}, false
	}
	return s.active.view, true
}

// Matches reports whether the active session carries the given state.
// Listeners use this between polls to detect that they have been
// superseded or cancelled.
func (s *SessionStore) Matches(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.active != nil && s.active.view.State == state
}

// TakeSender consumes the completion sender for the session identified by
// state. It succeeds at most once per session; a second call, a state
// mismatch, or an empty slot all yield false. This enforces at-most-once
// delivery of the authorization code.
func (s *SessionStore) TakeSender(state string) (chan<- string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil || s.active.view.State != state || s.active.senderTaken {
		return nil, false
	}
	s.active.senderTaken = true
	return s.active.codeCh, true
}

// Clear empties the slot. Used by cancellation, successful exchange, and
// the listener's cancel path.
func (s *SessionStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active = nil
}

// ClearIf empties the slot only if it still holds the session identified
// by state. The listener's timeout path uses this so it never wipes a
// newer session that replaced its own.
func (s *SessionStore) ClearIf(state string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil && s.active.view.State == state {
		s.active = nil
	}
}

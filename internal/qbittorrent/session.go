// Copyright (c) 2025, 8cht and the zwart contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package qbittorrent

import "sync"

// SessionState tracks the lifecycle of the shared upstream session.
type SessionState int

const (
	SessionAbsent SessionState = iota
	SessionValid
	SessionRejected
)

func (s SessionState) String() string {
	switch s {
	case SessionValid:
		return "valid"
	case SessionRejected:
		return "rejected"
	default:
		return "absent"
	}
}

// Session is the process-wide upstream credential. The token is opaque;
// only the client interprets its absence or validity.
type Session struct {
	Token string
	State SessionState
}

// SessionStore holds the single shared session. It is replaced wholesale on
// re-authentication and never partially updated.
type SessionStore struct {
	mu      sync.RWMutex
	session Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

// Get returns the current session and whether it is usable.
func (s *SessionStore) Get() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session, s.session.State == SessionValid
}

func (s *SessionStore) Set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = Session{Token: token, State: SessionValid}
}

// Invalidate marks the current session as rejected. The token is dropped so
// a stale credential can never be attached to a later request.
func (s *SessionStore) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = Session{State: SessionRejected}
}

// Clear resets the store to the absent state (logout).
func (s *SessionStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = Session{}
}

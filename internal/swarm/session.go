package swarm

import "sync"

// Session holds the connection status and the server-issued session id.
// The id is only present while the status is StatusConnected.
//
// gen identifies the connection the session belongs to, so a late close
// notification from an old connection cannot clear a newer session.
type Session struct {
	mu     sync.RWMutex
	status Status
	id     string
	gen    uint64

	onChange func(Status)
}

func newSession(onChange func(Status)) *Session {
	if onChange == nil {
		onChange = func(Status) {}
	}
	return &Session{onChange: onChange}
}

// Snapshot returns status and session id as one consistent read.
func (s *Session) Snapshot() (Status, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status, s.id
}

// Status returns the current status.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// ID returns the session id, or "" when not connected.
func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// connectedID returns the session id when connected with a valid session.
func (s *Session) connectedID() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.status == StatusConnected && s.id != "" {
		return s.id, true
	}
	return "", false
}

// beginConnect enters StatusConnecting for connection gen.
func (s *Session) beginConnect(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(StatusConnecting, "", gen)
}

// establish records the bootstrap result. It fails if the connection was
// invalidated while bootstrapping.
func (s *Session) establish(gen uint64, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen || s.status != StatusConnecting {
		return false
	}
	s.set(StatusConnected, id, gen)
	return true
}

// invalidate clears the session of connection gen. It reports whether the
// session was connected.
func (s *Session) invalidate(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen || s.status == StatusDisconnected {
		return false
	}
	wasConnected := s.status == StatusConnected
	s.set(StatusDisconnected, "", 0)
	return wasConnected
}

// closing enters StatusClosing and drops the session id.
func (s *Session) closing() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(StatusClosing, "", s.gen)
}

// reset returns to StatusDisconnected unconditionally.
func (s *Session) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(StatusDisconnected, "", 0)
}

func (s *Session) set(status Status, id string, gen uint64) {
	changed := s.status != status
	s.status = status
	s.id = id
	s.gen = gen
	if changed {
		s.onChange(status)
	}
}

package app

import (
	"sync"

	"github.com/dkeye/p2pcall/internal/core"
	"github.com/dkeye/p2pcall/internal/domain"
)

// SessionState is the per-endpoint signaling state.
// Role is RoleNone until the session joins a room.
type SessionState struct {
	RoomID domain.RoomID
	Role   domain.Role
}

func (s SessionState) Joined() bool { return s.Role != domain.RoleNone }

// Session is one endpoint's state behind its own lock.
// Lock order: RoomTable before Session, never the reverse.
type Session struct {
	ref core.SessionRef

	mu     sync.RWMutex
	state  SessionState
	closed bool
}

func newSession(ref core.SessionRef) *Session {
	return &Session{ref: ref}
}

func (s *Session) Ref() core.SessionRef { return s.ref }
func (s *Session) Handle() core.Handle  { return s.ref.Handle }

func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *Session) Info() core.SessionInfo {
	st := s.State()
	info := core.SessionInfo{Handle: s.ref.Handle}
	if initiator, ok := st.Role.Initiator(); ok {
		id := st.RoomID
		info.RoomID = &id
		info.Initiator = &initiator
	}
	return info
}

package core

import "fmt"

// Handle is the host's opaque identity for one endpoint.
type Handle string

// SessionRef is a non-owning reference to a session.
// It never keeps the session alive and must be resolved through the
// directory before use. Serial distinguishes sessions that reuse a handle.
type SessionRef struct {
	Handle Handle
	Serial uint64
}

func (r SessionRef) IsZero() bool { return r.Handle == "" && r.Serial == 0 }

func (r SessionRef) String() string {
	if r.IsZero() {
		return "<none>"
	}
	return fmt.Sprintf("%s#%d", r.Handle, r.Serial)
}

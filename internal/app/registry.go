package app

import (
	"sync"

	"github.com/dkeye/p2pcall/internal/core"
	"github.com/rs/zerolog/log"
)

// Directory owns every live session. Other components hold only
// core.SessionRef values and resolve them here at the moment of use.
// It never calls into RoomTable or Session locks.
type Directory struct {
	mu       sync.RWMutex
	sessions map[core.Handle]*Session
	serial   uint64
}

func NewDirectory() *Directory {
	return &Directory{
		sessions: make(map[core.Handle]*Session),
	}
}

// Register creates an unbound session for handle and inserts it.
// The host guarantees handle uniqueness; a duplicate replaces the earlier
// entry and references to the earlier session stop resolving.
func (d *Directory) Register(handle core.Handle) *Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.serial++
	sess := newSession(core.SessionRef{Handle: handle, Serial: d.serial})
	if _, dup := d.sessions[handle]; dup {
		log.Warn().Str("module", "app.registry").Str("handle", string(handle)).Msg("duplicate handle, replacing session")
	}
	d.sessions[handle] = sess
	log.Info().Str("module", "app.registry").Str("session", sess.ref.String()).Msg("registered session")
	return sess
}

// UnregisterByHandle removes the session for handle. Unknown handles are a no-op.
func (d *Directory) UnregisterByHandle(handle core.Handle) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.sessions[handle]; !ok {
		return false
	}
	delete(d.sessions, handle)
	log.Info().Str("module", "app.registry").Str("handle", string(handle)).Msg("unregistered session")
	return true
}

// Unregister removes ref's session, and only that one: an entry that has
// since been replaced under the same handle stays.
func (d *Directory) Unregister(ref core.SessionRef) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	sess, ok := d.sessions[ref.Handle]
	if !ok || sess.ref.Serial != ref.Serial {
		return false
	}
	delete(d.sessions, ref.Handle)
	log.Info().Str("module", "app.registry").Str("session", ref.String()).Msg("unregistered session")
	return true
}

func (d *Directory) Lookup(handle core.Handle) (*Session, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	sess, ok := d.sessions[handle]
	return sess, ok
}

// Resolve turns a non-owning reference into a live session.
// It fails once the referenced session has been torn down.
func (d *Directory) Resolve(ref core.SessionRef) (*Session, bool) {
	if ref.IsZero() {
		return nil, false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	sess, ok := d.sessions[ref.Handle]
	if !ok || sess.ref.Serial != ref.Serial {
		return nil, false
	}
	return sess, true
}

func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.sessions)
}

func (d *Directory) Snapshot() []*Session {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*Session, 0, len(d.sessions))
	for _, s := range d.sessions {
		out = append(out, s)
	}
	return out
}

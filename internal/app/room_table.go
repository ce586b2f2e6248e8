package app

import (
	"cmp"
	"fmt"
	"slices"
	"sync"

	"github.com/dkeye/p2pcall/internal/core"
	"github.com/dkeye/p2pcall/internal/domain"
	"github.com/dkeye/p2pcall/internal/metrics"
	"github.com/rs/zerolog/log"
)

// room is a pairing record. Slots hold non-owning references only.
type room struct {
	id     domain.RoomID
	caller core.SessionRef
	callee core.SessionRef
}

func (r *room) slot(role domain.Role) *core.SessionRef {
	if role == domain.RoleCaller {
		return &r.caller
	}
	return &r.callee
}

func (r *room) empty() bool {
	return r.caller.IsZero() && r.callee.IsZero()
}

// RoomTable maps room ids to two-slot rooms.
//
// Rooms are mutated only by the dispatcher worker (Claim) and by session
// lifecycle (Admit, Evict). Lock order is RoomTable, then Session, then Directory.
type RoomTable struct {
	dir       *Directory
	collision CollisionPolicy
	metrics   *metrics.Metrics

	mu    sync.RWMutex
	rooms map[domain.RoomID]*room
}

func NewRoomTable(dir *Directory, collision CollisionPolicy, m *metrics.Metrics) *RoomTable {
	return &RoomTable{
		dir:       dir,
		collision: collision,
		metrics:   m,
		rooms:     make(map[domain.RoomID]*room),
	}
}

func (t *RoomTable) Exists(id domain.RoomID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.rooms[id]
	return ok
}

func (t *RoomTable) createIfAbsentLocked(id domain.RoomID) *room {
	if r, ok := t.rooms[id]; ok {
		return r
	}
	r := &room{id: id}
	t.rooms[id] = r
	t.metrics.Inc(metrics.EventRoomCreated)
	log.Info().Str("module", "app.rooms").Stringer("room", id).Msg("room created")
	return r
}

func (t *RoomTable) removeLocked(id domain.RoomID) {
	delete(t.rooms, id)
	t.metrics.Inc(metrics.EventRoomRemoved)
	log.Info().Str("module", "app.rooms").Stringer("room", id).Msg("room removed")
}

// Claim places sess in the role slot of room id, creating the room if needed.
// The existence check, creation and slot assignment happen under one lock.
func (t *RoomTable) Claim(id domain.RoomID, role domain.Role, sess *Session) error {
	if role == domain.RoleNone {
		return domain.NewProtocolError("invalid role")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	sess.mu.RLock()
	closed, joined := sess.closed, sess.state.Joined()
	sess.mu.RUnlock()
	if closed {
		return domain.ErrSessionClosed
	}
	if joined {
		return domain.ErrAlreadyJoined
	}

	r := t.createIfAbsentLocked(id)
	slot := r.slot(role)
	if !slot.IsZero() {
		if occupant, alive := t.dir.Resolve(*slot); alive {
			if t.collision == RejectClaimant {
				return fmt.Errorf("room %s %s slot: %w", id, role, domain.ErrRoleTaken)
			}
			occupant.mu.Lock()
			occupant.state = SessionState{}
			occupant.mu.Unlock()
			t.metrics.Inc(metrics.EventRoleDisplaced)
			log.Warn().
				Str("module", "app.rooms").
				Stringer("room", id).
				Stringer("role", role).
				Stringer("displaced", occupant.ref).
				Stringer("claimant", sess.ref).
				Msg("role slot overwritten, previous occupant orphaned")
		}
	}
	*slot = sess.ref

	sess.mu.Lock()
	sess.state = SessionState{RoomID: id, Role: role}
	sess.mu.Unlock()

	log.Info().Str("module", "app.rooms").Stringer("room", id).Stringer("role", role).Stringer("session", sess.ref).Msg("member added")
	return nil
}

// Admit registers a fresh session for handle. A session still holding the
// handle is torn down first, so its slot never outlives it.
func (t *RoomTable) Admit(handle core.Handle) *Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.dir.Lookup(handle); ok {
		log.Warn().Str("module", "app.rooms").Stringer("replaced", prev.ref).Msg("handle reused, tearing down previous session")
		t.evictLocked(prev)
	}
	return t.dir.Register(handle)
}

// Evict tears sess down: it marks the session closed, clears its slot,
// removes it from the directory and prunes the room once both slots are
// empty. It reports whether the room was removed.
func (t *RoomTable) Evict(sess *Session) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.evictLocked(sess)
}

func (t *RoomTable) evictLocked(sess *Session) bool {
	sess.mu.Lock()
	sess.closed = true
	st := sess.state
	sess.state = SessionState{}
	sess.mu.Unlock()

	t.dir.Unregister(sess.ref)

	if !st.Joined() {
		return false
	}
	r, ok := t.rooms[st.RoomID]
	if !ok {
		return false
	}
	if slot := r.slot(st.Role); *slot == sess.ref {
		*slot = core.SessionRef{}
	}
	log.Info().Str("module", "app.rooms").Stringer("room", r.id).Stringer("session", sess.ref).Msg("member removed")

	if !r.empty() {
		log.Debug().Str("module", "app.rooms").Stringer("room", r.id).Msg("room is not empty yet")
		return false
	}
	t.removeLocked(r.id)
	return true
}

// Snapshot copies the session's state and its counterpart reference.
func (t *RoomTable) Snapshot(sess *Session) core.Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	st := sess.State()
	snap := core.Snapshot{Self: sess.ref, RoomID: st.RoomID, Role: st.Role}
	if !st.Joined() {
		return snap
	}
	if r, ok := t.rooms[st.RoomID]; ok {
		snap.Peer = *r.slot(st.Role.Counterpart())
	}
	return snap
}

// Occupancy reports which slots of room id hold a live session.
func (t *RoomTable) Occupancy(id domain.RoomID) (caller, callee bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.rooms[id]
	if !ok {
		return false, false
	}
	_, caller = t.dir.Resolve(r.caller)
	_, callee = t.dir.Resolve(r.callee)
	return caller, callee
}

func (t *RoomTable) Get(id domain.RoomID) (core.RoomInfo, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.rooms[id]
	if !ok {
		return core.RoomInfo{}, false
	}
	return r.info(), true
}

func (t *RoomTable) List() []core.RoomInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]core.RoomInfo, 0, len(t.rooms))
	for _, r := range t.rooms {
		out = append(out, r.info())
	}
	slices.SortFunc(out, func(a, b core.RoomInfo) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (t *RoomTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rooms)
}

func (r *room) info() core.RoomInfo {
	info := core.RoomInfo{ID: r.id}
	if !r.caller.IsZero() {
		info.Caller = string(r.caller.Handle)
	}
	if !r.callee.IsZero() {
		info.Callee = string(r.callee.Handle)
	}
	return info
}

package app

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/dkeye/p2pcall/internal/core"
	"github.com/dkeye/p2pcall/internal/domain"
	"github.com/stretchr/testify/require"
)

// requireConsistent checks that every room has at least one slot held by a
// live session whose state points back at that slot, and that every joined
// session sits in exactly that one slot.
func requireConsistent(t *testing.T, d *Directory, rooms *RoomTable) {
	t.Helper()
	rooms.mu.RLock()
	defer rooms.mu.RUnlock()

	seen := make(map[core.Handle]domain.RoomID)
	for id, r := range rooms.rooms {
		require.False(t, r.empty(), "room %s kept without occupants", id)
		for _, role := range []domain.Role{domain.RoleCaller, domain.RoleCallee} {
			ref := *r.slot(role)
			if ref.IsZero() {
				continue
			}
			sess, ok := d.Resolve(ref)
			require.True(t, ok, "room %s %s slot holds dead %s", id, role, ref)
			prev, dup := seen[ref.Handle]
			require.False(t, dup, "%s in room %s and room %s", ref, prev, id)
			seen[ref.Handle] = id
			require.Equal(t, SessionState{RoomID: id, Role: role}, sess.State())
		}
	}

	for _, s := range d.Snapshot() {
		st := s.State()
		if !st.Joined() {
			continue
		}
		r, ok := rooms.rooms[st.RoomID]
		require.True(t, ok, "%s joined missing room %s", s.ref, st.RoomID)
		require.Equal(t, s.ref, *r.slot(st.Role))
	}
}

func TestRandomSequencesKeepRoomsConsistent(t *testing.T) {
	handles := []core.Handle{"h0", "h1", "h2", "h3", "h4", "h5"}
	roles := []domain.Role{domain.RoleCaller, domain.RoleCallee}

	for _, policy := range []CollisionPolicy{RejectClaimant, DisplaceOccupant} {
		for seed := uint64(1); seed <= 25; seed++ {
			t.Run(fmt.Sprintf("%s/seed=%d", policy, seed), func(t *testing.T) {
				rng := rand.New(rand.NewPCG(seed, 0x5eed))
				d, rooms, _ := newTable(t, policy)

				for step := 0; step < 300; step++ {
					h := handles[rng.IntN(len(handles))]
					switch rng.IntN(3) {
					case 0:
						rooms.Admit(h)
					case 1:
						sess, ok := d.Lookup(h)
						if !ok {
							continue
						}
						id := domain.RoomID(1 + rng.IntN(3))
						err := rooms.Claim(id, roles[rng.IntN(2)], sess)
						if err != nil {
							require.True(t,
								errorsIsAny(err, domain.ErrRoleTaken, domain.ErrAlreadyJoined),
								"step %d: unexpected claim error %v", step, err)
						}
					case 2:
						sess, ok := d.Lookup(h)
						if !ok {
							continue
						}
						before := d.Len()
						rooms.Evict(sess)
						require.Equal(t, before-1, d.Len(), "step %d", step)
					}
					requireConsistent(t, d, rooms)
				}
			})
		}
	}
}

func errorsIsAny(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

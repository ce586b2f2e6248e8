package orch

import (
	"github.com/dkeye/p2pcall/internal/core"
	"github.com/dkeye/p2pcall/internal/metrics"
	"github.com/rs/zerolog/log"
)

// DestroySession runs teardown on the caller's goroutine. It bypasses the
// dispatcher queue, so envelopes still queued for this session will fail to
// resolve and be dropped by the worker.
func (o *Orchestrator) DestroySession(handle core.Handle) {
	sess, ok := o.Registry.Lookup(handle)
	if !ok {
		log.Debug().Str("module", "orch").Str("handle", string(handle)).Msg("destroy for unknown handle")
		return
	}
	st := sess.State()
	removed := o.Rooms.Evict(sess)
	o.Metrics.Inc(metrics.EventSessionDestroy)

	ev := log.Info().Str("module", "orch").Stringer("session", sess.Ref())
	if st.Joined() {
		ev = ev.Stringer("room", st.RoomID).Bool("room_removed", removed)
	}
	ev.Msg("session destroyed")
}

func (o *Orchestrator) ListRooms() []core.RoomInfo {
	return o.Rooms.List()
}

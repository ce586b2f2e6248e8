// Package signaling implements the default call-signaling grammar:
// join, call, accept and candidate messages exchanged by two peers.
package signaling

import (
	"fmt"

	"github.com/dkeye/p2pcall/internal/core"
	"github.com/dkeye/p2pcall/internal/domain"
	"github.com/pion/webrtc/v4"
)

// Processor is a pure function of the session snapshot, the room view and
// the request. It keeps no state.
type Processor struct{}

var _ core.Processor = (*Processor)(nil)

func NewProcessor() *Processor { return &Processor{} }

func (p *Processor) Process(snap core.Snapshot, rooms core.RoomView, req core.Request) (core.Outcome, error) {
	msg, err := parseMessage(req.Body)
	if err != nil {
		return core.Outcome{}, domain.NewProtocolError(err.Error())
	}

	switch msg.Kind {
	case kindJoin:
		return p.join(snap, rooms, msg)
	case kindCall:
		return p.call(snap, req)
	case kindAccept:
		return p.accept(snap, req)
	case kindCandidate:
		return p.candidate(snap, msg)
	}
	return core.Outcome{}, domain.NewProtocolError(fmt.Sprintf("unsupported message kind %q", msg.Kind))
}

func (p *Processor) join(snap core.Snapshot, rooms core.RoomView, msg message) (core.Outcome, error) {
	if snap.Joined() {
		return core.Outcome{}, domain.NewProtocolError(fmt.Sprintf("already joined room %s", snap.RoomID))
	}
	id := domain.RoomID(*msg.RoomID)
	callerTaken, calleeTaken := rooms.Occupancy(id)

	var role domain.Role
	switch {
	case msg.Initiator != nil:
		role = domain.RoleFromInitiator(*msg.Initiator)
	case !callerTaken:
		role = domain.RoleCaller
	case !calleeTaken:
		role = domain.RoleCallee
	default:
		return core.Outcome{}, domain.ErrRoomFull
	}

	initiator, _ := role.Initiator()
	peerPresent := calleeTaken
	if role == domain.RoleCallee {
		peerPresent = callerTaken
	}
	return core.Outcome{
		Target: snap.Self,
		Join:   &core.JoinDirective{RoomID: id, Role: role},
		Payload: core.Payload{
			"event":        "joined",
			"room_id":      id,
			"initiator":    initiator,
			"peer_present": peerPresent,
		},
	}, nil
}

func (p *Processor) call(snap core.Snapshot, req core.Request) (core.Outcome, error) {
	if err := requirePeer(snap, domain.RoleCaller); err != nil {
		return core.Outcome{}, err
	}
	offer, err := parseJsep(req.Jsep, webrtc.SDPTypeOffer)
	if err != nil {
		return core.Outcome{}, domain.NewProtocolError(err.Error())
	}
	return core.Outcome{
		Target: snap.Peer,
		Payload: core.Payload{
			"event":   "incoming_call",
			"room_id": snap.RoomID,
			"jsep":    offer,
		},
	}, nil
}

func (p *Processor) accept(snap core.Snapshot, req core.Request) (core.Outcome, error) {
	if err := requirePeer(snap, domain.RoleCallee); err != nil {
		return core.Outcome{}, err
	}
	answer, err := parseJsep(req.Jsep, webrtc.SDPTypeAnswer)
	if err != nil {
		return core.Outcome{}, domain.NewProtocolError(err.Error())
	}
	return core.Outcome{
		Target: snap.Peer,
		Payload: core.Payload{
			"event":   "accepted",
			"room_id": snap.RoomID,
			"jsep":    answer,
		},
	}, nil
}

func (p *Processor) candidate(snap core.Snapshot, msg message) (core.Outcome, error) {
	if err := requirePeer(snap, domain.RoleNone); err != nil {
		return core.Outcome{}, err
	}
	return core.Outcome{
		Target: snap.Peer,
		Payload: core.Payload{
			"event":     "candidate",
			"candidate": msg.Candidate.ToPion(),
		},
	}, nil
}

// requirePeer checks the session is joined (in role, unless RoleNone) and
// that the counterpart slot is occupied.
func requirePeer(snap core.Snapshot, role domain.Role) error {
	if !snap.Joined() {
		return domain.NewProtocolError("not joined to any room")
	}
	if role != domain.RoleNone && snap.Role != role {
		return domain.NewProtocolError(fmt.Sprintf("only the %s can do this", role))
	}
	if snap.Peer.IsZero() {
		return domain.NewProtocolError("peer has not joined the room")
	}
	return nil
}

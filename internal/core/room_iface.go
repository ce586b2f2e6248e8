package core

import "github.com/dkeye/p2pcall/internal/domain"

// Payload is an opaque structured signaling object. The core only touches
// the "ok" and "error" keys.
type Payload map[string]any

// Request is one inbound signaling message as seen by a Processor.
type Request struct {
	Transaction string
	Body        Payload
	// Jsep is the optional negotiation payload; nil when absent.
	Jsep Payload
}

// Snapshot is a read-only copy of a session's state taken on the
// dispatcher worker right before processing.
type Snapshot struct {
	Self   SessionRef
	RoomID domain.RoomID
	Role   domain.Role
	// Peer is the counterpart slot of the session's room; zero when empty
	// or when the session has not joined.
	Peer SessionRef
}

func (s Snapshot) Joined() bool { return s.Role != domain.RoleNone }

// RoomView exposes room occupancy to processors without handing out
// the rooms themselves.
type RoomView interface {
	Occupancy(id domain.RoomID) (caller, callee bool)
}

// JoinDirective asks the dispatcher to place the session in a room slot.
type JoinDirective struct {
	RoomID domain.RoomID
	Role   domain.Role
}

// Outcome is a routed result: deliver Payload to Target.
type Outcome struct {
	Target  SessionRef
	Join    *JoinDirective
	Payload Payload
}

// Processor owns the signaling grammar. It must not retain the snapshot
// or the view past the call.
type Processor interface {
	Process(snap Snapshot, rooms RoomView, req Request) (Outcome, error)
}

// ProcessorFunc adapts a plain function to Processor.
type ProcessorFunc func(snap Snapshot, rooms RoomView, req Request) (Outcome, error)

func (f ProcessorFunc) Process(snap Snapshot, rooms RoomView, req Request) (Outcome, error) {
	return f(snap, rooms, req)
}

// RoomInfo is a read-only view for APIs.
type RoomInfo struct {
	ID     domain.RoomID `json:"id"`
	Caller string        `json:"caller,omitempty"`
	Callee string        `json:"callee,omitempty"`
}

// SessionInfo is a read-only view for APIs.
type SessionInfo struct {
	Handle    Handle         `json:"handle"`
	RoomID    *domain.RoomID `json:"room_id,omitempty"`
	Initiator *bool          `json:"initiator,omitempty"`
}

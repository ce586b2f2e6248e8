// Package domain contains entities without logic, just meta-data
package domain

import "strconv"

// RoomID is supplied by the signaling payload, never generated here.
type RoomID uint64

func (id RoomID) String() string { return strconv.FormatUint(uint64(id), 10) }

// Role is the slot a session occupies in a two-party room.
type Role int

const (
	RoleNone Role = iota
	RoleCaller
	RoleCallee
)

// RoleFromInitiator maps the wire-level initiator flag to a slot.
func RoleFromInitiator(initiator bool) Role {
	if initiator {
		return RoleCaller
	}
	return RoleCallee
}

// Initiator reports the wire-level flag. ok is false for RoleNone.
func (r Role) Initiator() (initiator, ok bool) {
	switch r {
	case RoleCaller:
		return true, true
	case RoleCallee:
		return false, true
	default:
		return false, false
	}
}

// Counterpart returns the other slot of the room.
func (r Role) Counterpart() Role {
	switch r {
	case RoleCaller:
		return RoleCallee
	case RoleCallee:
		return RoleCaller
	default:
		return RoleNone
	}
}

func (r Role) String() string {
	switch r {
	case RoleCaller:
		return "caller"
	case RoleCallee:
		return "callee"
	default:
		return "none"
	}
}

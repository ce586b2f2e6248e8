package domain

import (
	"errors"
)

var (
	ErrSessionNotFound  = errors.New("no session associated with handle")
	ErrPeerHasGone      = errors.New("peer has gone")
	ErrPublish          = errors.New("push rejected by host")
	ErrQueueFull        = errors.New("message queue is full")
	ErrDispatcherClosed = errors.New("dispatcher closed")
	ErrSessionClosed    = errors.New("session closed")
	ErrRoleTaken        = errors.New("role already taken")
	ErrRoomFull         = errors.New("room is full")
	ErrAlreadyJoined    = errors.New("session already joined a room")
	ErrEmptyHandle      = errors.New("empty handle")
)

// ProtocolError is a domain violation reported by a signaling processor.
// Its message is forwarded verbatim to the originating endpoint.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string { return e.Reason }

func NewProtocolError(reason string) error {
	return &ProtocolError{Reason: reason}
}

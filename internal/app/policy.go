package app

import "fmt"

// QueuePolicy decides what Enqueue does when the dispatcher queue is full.
type QueuePolicy int

const (
	// RejectNew fails the enqueue with domain.ErrQueueFull.
	RejectNew QueuePolicy = iota
	// BlockProducer waits for space or for the caller's context.
	BlockProducer
)

func ParseQueuePolicy(s string) (QueuePolicy, error) {
	switch s {
	case "", "reject":
		return RejectNew, nil
	case "block":
		return BlockProducer, nil
	}
	return RejectNew, fmt.Errorf("unknown queue policy %q", s)
}

func (p QueuePolicy) String() string {
	if p == BlockProducer {
		return "block"
	}
	return "reject"
}

// CollisionPolicy decides what happens when a session claims a role slot
// that a live session already holds.
type CollisionPolicy int

const (
	// RejectClaimant leaves the room untouched and fails the claim.
	RejectClaimant CollisionPolicy = iota
	// DisplaceOccupant overwrites the slot and orphans the previous occupant.
	DisplaceOccupant
)

func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch s {
	case "", "reject":
		return RejectClaimant, nil
	case "overwrite":
		return DisplaceOccupant, nil
	}
	return RejectClaimant, fmt.Errorf("unknown role collision policy %q", s)
}

func (p CollisionPolicy) String() string {
	if p == DisplaceOccupant {
		return "overwrite"
	}
	return "reject"
}

package core

// Pusher is the host's outbound push primitive.
// Owned by the host adapter; the core only calls Push.
type Pusher interface {
	Push(handle Handle, transaction string, payload []byte) error
}

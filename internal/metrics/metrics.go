package metrics

import (
	"maps"
	"sync"
)

// Event names.
const (
	EventEnqueued        = "enqueued"
	EventQueueRejected   = "queue_rejected"
	EventProcessed       = "processed"
	EventTeardownRace    = "teardown_race"
	EventPeerHasGone     = "peer_has_gone"
	EventProtocolError   = "protocol_error"
	EventProcessorPanic  = "processor_panic"
	EventPublished       = "published"
	EventPublishFailed   = "publish_failed"
	EventRoleDisplaced   = "role_displaced"
	EventSessionCreated  = "session_created"
	EventSessionDestroy  = "session_destroyed"
	EventRoomCreated     = "room_created"
	EventRoomRemoved     = "room_removed"
	EventRateLimited     = "rate_limited"
	EventSessionNotFound = "session_not_found"
)

// Metrics is a concurrency-safe counter registry.
// A nil *Metrics is valid and discards everything.
type Metrics struct {
	mu sync.Mutex
	m  map[string]uint64
}

func New() *Metrics {
	return &Metrics{
		m: make(map[string]uint64),
	}
}

func (m *Metrics) Inc(name string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.m[name]++
	m.mu.Unlock()
}

func (m *Metrics) Get(name string) uint64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.m[name]
}

func (m *Metrics) Snapshot() map[string]uint64 {
	if m == nil {
		return map[string]uint64{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.m)
}

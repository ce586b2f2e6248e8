package signal

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dkeye/p2pcall/internal/core"
)

// Hub maps handles to live connections and implements core.Pusher.
type Hub struct {
	mu    sync.RWMutex
	conns map[core.Handle]*WsSignalConn
}

func NewHub() *Hub {
	return &Hub{conns: make(map[core.Handle]*WsSignalConn)}
}

func (h *Hub) Add(handle core.Handle, c *WsSignalConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[handle] = c
}

func (h *Hub) Remove(handle core.Handle) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, handle)
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Push wraps payload into an event frame and queues it on the connection.
// A full send buffer is a failure; the caller does not retry.
func (h *Hub) Push(handle core.Handle, transaction string, payload []byte) error {
	h.mu.RLock()
	c, ok := h.conns[handle]
	h.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no connection for handle %q", handle)
	}
	b, err := json.Marshal(outboundFrame{
		Type:        frameEvent,
		Transaction: transaction,
		Data:        payload,
	})
	if err != nil {
		return err
	}
	return c.TrySend(b)
}

package signal

import (
	"encoding/json"

	"github.com/dkeye/p2pcall/internal/core"
)

const (
	frameMessage  = "message"
	framePing     = "ping"
	frameQuery    = "query"
	frameAttached = "attached"
	frameAck      = "ack"
	frameEvent    = "event"
	frameError    = "error"
	framePong     = "pong"
	frameSession  = "session"
)

type inboundFrame struct {
	Type        string       `json:"type"`
	Transaction string       `json:"transaction,omitempty"`
	Body        core.Payload `json:"body,omitempty"`
	Jsep        core.Payload `json:"jsep,omitempty"`
}

type outboundFrame struct {
	Type        string            `json:"type"`
	Transaction string            `json:"transaction,omitempty"`
	Handle      core.Handle       `json:"handle,omitempty"`
	Data        json.RawMessage   `json:"data,omitempty"`
	Error       string            `json:"error,omitempty"`
	Session     *core.SessionInfo `json:"session,omitempty"`
}

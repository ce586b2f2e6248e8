package signal

import (
	"context"

	"github.com/dkeye/p2pcall/internal/core"
	"github.com/rs/zerolog/log"
)

// handleMessage acks receipt, then hands the message to the relay. The ack
// is on the send buffer before the message can be processed, so it always
// precedes the event frame. If the message cannot be queued an error frame
// with the same transaction follows the ack.
func (ctl *SignalWSController) handleMessage(
	ctx context.Context,
	handle core.Handle,
	conn *WsSignalConn,
	frame inboundFrame,
) {
	ctl.sendJSON(conn, outboundFrame{Type: frameAck, Transaction: frame.Transaction})

	err := ctl.Orch.HandleMessage(ctx, handle, frame.Transaction, frame.Body, frame.Jsep)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("handle", string(handle)).Str("transaction", frame.Transaction).Msg("message not queued")
		ctl.sendJSON(conn, outboundFrame{Type: frameError, Transaction: frame.Transaction, Error: err.Error()})
	}
}

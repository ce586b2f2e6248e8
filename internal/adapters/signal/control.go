package signal

import "github.com/dkeye/p2pcall/internal/core"

func (ctl *SignalWSController) handlePing(
	conn *WsSignalConn,
	frame inboundFrame,
) {
	ctl.sendJSON(conn, outboundFrame{Type: framePong, Transaction: frame.Transaction})
}

func (ctl *SignalWSController) handleQuery(
	handle core.Handle,
	conn *WsSignalConn,
	frame inboundFrame,
) {
	info, err := ctl.Orch.QuerySession(handle)
	if err != nil {
		ctl.sendJSON(conn, outboundFrame{Type: frameError, Transaction: frame.Transaction, Error: err.Error()})
		return
	}
	ctl.sendJSON(conn, outboundFrame{Type: frameSession, Transaction: frame.Transaction, Session: &info})
}

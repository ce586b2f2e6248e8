package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dkeye/p2pcall/internal/core"
	"github.com/dkeye/p2pcall/internal/metrics"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 5 * time.Second

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.opts.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Msg("writePump ctx done")
			// unblocks the reader
			_ = c.conn.Close()
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			c.mu.RLock()
			closed := c.closed
			c.mu.RUnlock()
			if closed {
				return
			}
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Debug().Err(err).Str("module", "signal").Msg("writePump ping error")
				return
			}
		}
	}
}

// readPump owns the connection lifetime: when it returns the session is torn
// down and the connection closed.
func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, handle core.Handle, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("handle", string(handle)).Msg("readPump closing")
		cancel()
		ctl.Orch.DestroySession(handle)
		ctl.Hub.Remove(handle)
		if ctl.limiter != nil {
			ctl.limiter.Forget(handle)
		}
		c.Close()
	}()

	pongWait := ctl.opts.PingPeriod * 10 / 9
	c.conn.SetReadLimit(ctl.opts.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("handle", string(handle)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Error().Err(err).Str("module", "signal").Str("handle", string(handle)).Msg("readPump read error")
				}
				return
			}
			_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
			ctl.handleSignal(ctx, handle, c, data)
		}
	}
}

func (ctl *SignalWSController) handleSignal(ctx context.Context, handle core.Handle, c *WsSignalConn, data []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		ctl.sendJSON(c, outboundFrame{Type: frameError, Error: "bad_payload"})
		return
	}

	if ctl.limiter != nil && !ctl.limiter.Allow(handle) {
		ctl.Orch.Metrics.Inc(metrics.EventRateLimited)
		ctl.sendJSON(c, outboundFrame{Type: frameError, Transaction: frame.Transaction, Error: "rate limited"})
		return
	}

	switch frame.Type {
	case frameMessage:
		ctl.handleMessage(ctx, handle, c, frame)
	case framePing:
		ctl.handlePing(c, frame)
	case frameQuery:
		ctl.handleQuery(handle, c, frame)
	default:
		log.Warn().Str("module", "signal").Str("type", frame.Type).Msg("unknown signal")
		ctl.sendJSON(c, outboundFrame{Type: frameError, Transaction: frame.Transaction, Error: "unknown frame type"})
	}
}

func (ctl *SignalWSController) sendJSON(c *WsSignalConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	if err := c.TrySend(b); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("sendJSON dropped")
	}
}

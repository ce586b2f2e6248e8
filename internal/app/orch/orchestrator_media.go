package orch

import (
	"github.com/dkeye/p2pcall/internal/core"
	"github.com/pion/rtp"
	"github.com/rs/zerolog/log"
)

// Media never flows through this relay; endpoints talk to each other
// directly once signaling is done. These hooks exist for hosts that call
// them anyway and only log.

func (o *Orchestrator) SetupMedia(handle core.Handle) {
	log.Debug().Str("module", "orch.media").Str("handle", string(handle)).Msg("setup_media")
}

func (o *Orchestrator) HangupMedia(handle core.Handle) {
	log.Debug().Str("module", "orch.media").Str("handle", string(handle)).Msg("hangup_media")
}

func (o *Orchestrator) IncomingRTP(handle core.Handle, video bool, buf []byte) {
	e := log.Trace()
	if !e.Enabled() {
		return
	}
	e = e.Str("module", "orch.media").Str("handle", string(handle)).Bool("video", video)
	var h rtp.Header
	if _, err := h.Unmarshal(buf); err != nil {
		e.Err(err).Msg("incoming rtp, bad header")
		return
	}
	e.Uint32("ssrc", h.SSRC).
		Uint16("seq", h.SequenceNumber).
		Uint8("pt", h.PayloadType).
		Msg("incoming rtp ignored")
}

func (o *Orchestrator) IncomingRTCP(handle core.Handle, video bool, buf []byte) {}

func (o *Orchestrator) IncomingData(handle core.Handle, buf []byte) {}

func (o *Orchestrator) SlowLink(handle core.Handle, uplink, video bool) {
	log.Debug().Str("module", "orch.media").Str("handle", string(handle)).Bool("uplink", uplink).Bool("video", video).Msg("slow_link")
}

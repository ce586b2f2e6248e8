package signaling

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkeye/p2pcall/internal/core"
	"github.com/pion/sdp/v3"
	"github.com/pion/webrtc/v4"
)

type messageKind string

const (
	kindJoin      messageKind = "join"
	kindCall      messageKind = "call"
	kindAccept    messageKind = "accept"
	kindCandidate messageKind = "candidate"
)

type message struct {
	Kind      messageKind `json:"kind"`
	RoomID    *uint64     `json:"room_id,omitempty"`
	Initiator *bool       `json:"initiator,omitempty"`
	Candidate *candidate  `json:"candidate,omitempty"`
}

type candidate struct {
	Candidate        *string `json:"candidate"`
	SDPMid           *string `json:"sdpMid,omitempty"`
	SDPMLineIndex    *uint16 `json:"sdpMLineIndex,omitempty"`
	UsernameFragment *string `json:"usernameFragment,omitempty"`
}

func (c candidate) ToPion() webrtc.ICECandidateInit {
	init := webrtc.ICECandidateInit{
		SDPMid:           c.SDPMid,
		SDPMLineIndex:    c.SDPMLineIndex,
		UsernameFragment: c.UsernameFragment,
	}
	if c.Candidate != nil {
		init.Candidate = *c.Candidate
	}
	return init
}

type jsep struct {
	Type string `json:"type"`
	SDP  string `json:"sdp"`
}

func decode(p core.Payload, v any) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

func parseMessage(body core.Payload) (message, error) {
	if body == nil {
		return message{}, errors.New("missing message body")
	}
	var msg message
	if err := decode(body, &msg); err != nil {
		return message{}, fmt.Errorf("malformed message: %w", err)
	}
	if err := msg.validate(); err != nil {
		return message{}, err
	}
	return msg, nil
}

func (m message) validate() error {
	switch m.Kind {
	case kindJoin:
		if m.RoomID == nil {
			return errors.New("join message missing room_id")
		}
	case kindCall, kindAccept:
	case kindCandidate:
		if m.Candidate == nil || m.Candidate.Candidate == nil {
			return errors.New("candidate message missing candidate")
		}
	case "":
		return errors.New("message missing kind")
	default:
		return fmt.Errorf("unsupported message kind %q", m.Kind)
	}
	return nil
}

// parseJsep checks that the negotiation payload is a well-formed SDP of the
// wanted type. The SDP itself is relayed untouched.
func parseJsep(p core.Payload, want webrtc.SDPType) (jsep, error) {
	if p == nil {
		return jsep{}, fmt.Errorf("missing jsep %s", want)
	}
	var j jsep
	if err := decode(p, &j); err != nil {
		return jsep{}, fmt.Errorf("malformed jsep: %w", err)
	}
	if got := webrtc.NewSDPType(j.Type); got != want {
		return jsep{}, fmt.Errorf("expected jsep %s, got %q", want, j.Type)
	}
	var desc sdp.SessionDescription
	if err := desc.Unmarshal([]byte(j.SDP)); err != nil {
		return jsep{}, fmt.Errorf("invalid sdp: %w", err)
	}
	return j, nil
}

package signaling

import (
	"encoding/json"
	"testing"

	"github.com/dkeye/p2pcall/internal/core"
	"github.com/dkeye/p2pcall/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSDP = "v=0\r\no=- 4215775240449105457 2 IN IP4 127.0.0.1\r\ns=-\r\nt=0 0\r\n"

type fakeRooms map[domain.RoomID][2]bool

func (f fakeRooms) Occupancy(id domain.RoomID) (caller, callee bool) {
	o := f[id]
	return o[0], o[1]
}

var (
	self = core.SessionRef{Handle: "self", Serial: 1}
	peer = core.SessionRef{Handle: "peer", Serial: 2}
)

func joined(role domain.Role, withPeer bool) core.Snapshot {
	s := core.Snapshot{Self: self, RoomID: 42, Role: role}
	if withPeer {
		s.Peer = peer
	}
	return s
}

func protocolError(t *testing.T, err error) string {
	t.Helper()
	var perr *domain.ProtocolError
	require.ErrorAs(t, err, &perr)
	return perr.Reason
}

func TestJoin(t *testing.T) {
	p := NewProcessor()

	tests := []struct {
		name        string
		rooms       fakeRooms
		body        core.Payload
		wantRole    domain.Role
		wantPresent bool
	}{
		{
			name:     "empty room picks caller",
			rooms:    fakeRooms{},
			body:     core.Payload{"kind": "join", "room_id": 42},
			wantRole: domain.RoleCaller,
		},
		{
			name:        "caller present picks callee",
			rooms:       fakeRooms{42: {true, false}},
			body:        core.Payload{"kind": "join", "room_id": 42},
			wantRole:    domain.RoleCallee,
			wantPresent: true,
		},
		{
			name:        "only callee present picks caller",
			rooms:       fakeRooms{42: {false, true}},
			body:        core.Payload{"kind": "join", "room_id": 42},
			wantRole:    domain.RoleCaller,
			wantPresent: true,
		},
		{
			name:     "explicit callee",
			rooms:    fakeRooms{},
			body:     core.Payload{"kind": "join", "room_id": 42, "initiator": false},
			wantRole: domain.RoleCallee,
		},
		{
			name:        "explicit caller on taken slot is left to the room table",
			rooms:       fakeRooms{42: {true, false}},
			body:        core.Payload{"kind": "join", "room_id": 42, "initiator": true},
			wantRole:    domain.RoleCaller,
			wantPresent: false,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := p.Process(core.Snapshot{Self: self}, tc.rooms, core.Request{Body: tc.body})
			require.NoError(t, err)
			assert.Equal(t, self, out.Target)
			require.NotNil(t, out.Join)
			assert.Equal(t, core.JoinDirective{RoomID: 42, Role: tc.wantRole}, *out.Join)
			assert.Equal(t, "joined", out.Payload["event"])
			assert.Equal(t, tc.wantRole == domain.RoleCaller, out.Payload["initiator"])
			assert.Equal(t, tc.wantPresent, out.Payload["peer_present"])
		})
	}
}

func TestJoinErrors(t *testing.T) {
	p := NewProcessor()

	_, err := p.Process(core.Snapshot{Self: self}, fakeRooms{42: {true, true}}, core.Request{Body: core.Payload{"kind": "join", "room_id": 42}})
	assert.ErrorIs(t, err, domain.ErrRoomFull)

	_, err = p.Process(joined(domain.RoleCaller, false), fakeRooms{}, core.Request{Body: core.Payload{"kind": "join", "room_id": 1}})
	assert.Equal(t, "already joined room 42", protocolError(t, err))

	_, err = p.Process(core.Snapshot{Self: self}, fakeRooms{}, core.Request{Body: core.Payload{"kind": "join"}})
	assert.Equal(t, "join message missing room_id", protocolError(t, err))
}

func TestMalformedMessages(t *testing.T) {
	p := NewProcessor()
	for name, body := range map[string]core.Payload{
		"nil body":          nil,
		"missing kind":      {"room_id": 1},
		"unknown kind":      {"kind": "dance"},
		"wrong type":        {"kind": "join", "room_id": "forty-two"},
		"candidate missing": {"kind": "candidate"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := p.Process(core.Snapshot{Self: self}, fakeRooms{}, core.Request{Body: body})
			protocolError(t, err)
		})
	}
}

func TestCall(t *testing.T) {
	p := NewProcessor()
	body := core.Payload{"kind": "call"}
	offer := core.Payload{"type": "offer", "sdp": testSDP}

	out, err := p.Process(joined(domain.RoleCaller, true), fakeRooms{}, core.Request{Body: body, Jsep: offer})
	require.NoError(t, err)
	assert.Equal(t, peer, out.Target)
	assert.Nil(t, out.Join)
	assert.Equal(t, "incoming_call", out.Payload["event"])
	assert.Equal(t, domain.RoomID(42), out.Payload["room_id"])
	assert.Equal(t, jsep{Type: "offer", SDP: testSDP}, out.Payload["jsep"])

	_, err = p.Process(core.Snapshot{Self: self}, fakeRooms{}, core.Request{Body: body, Jsep: offer})
	assert.Equal(t, "not joined to any room", protocolError(t, err))

	_, err = p.Process(joined(domain.RoleCallee, true), fakeRooms{}, core.Request{Body: body, Jsep: offer})
	assert.Equal(t, "only the caller can do this", protocolError(t, err))

	_, err = p.Process(joined(domain.RoleCaller, false), fakeRooms{}, core.Request{Body: body, Jsep: offer})
	assert.Equal(t, "peer has not joined the room", protocolError(t, err))

	_, err = p.Process(joined(domain.RoleCaller, true), fakeRooms{}, core.Request{Body: body})
	assert.Equal(t, "missing jsep offer", protocolError(t, err))

	_, err = p.Process(joined(domain.RoleCaller, true), fakeRooms{}, core.Request{Body: body, Jsep: core.Payload{"type": "answer", "sdp": testSDP}})
	assert.Contains(t, protocolError(t, err), "expected jsep offer")

	_, err = p.Process(joined(domain.RoleCaller, true), fakeRooms{}, core.Request{Body: body, Jsep: core.Payload{"type": "offer", "sdp": "garbage"}})
	assert.Contains(t, protocolError(t, err), "invalid sdp")
}

func TestAccept(t *testing.T) {
	p := NewProcessor()
	body := core.Payload{"kind": "accept"}
	answer := core.Payload{"type": "answer", "sdp": testSDP}

	out, err := p.Process(joined(domain.RoleCallee, true), fakeRooms{}, core.Request{Body: body, Jsep: answer})
	require.NoError(t, err)
	assert.Equal(t, peer, out.Target)
	assert.Equal(t, "accepted", out.Payload["event"])

	_, err = p.Process(joined(domain.RoleCaller, true), fakeRooms{}, core.Request{Body: body, Jsep: answer})
	assert.Equal(t, "only the callee can do this", protocolError(t, err))
}

func TestCandidate(t *testing.T) {
	p := NewProcessor()
	body := core.Payload{
		"kind": "candidate",
		"candidate": map[string]any{
			"candidate":     "candidate:1 1 UDP 2122252543 192.168.1.2 50000 typ host",
			"sdpMid":        "0",
			"sdpMLineIndex": 0,
		},
	}

	for _, role := range []domain.Role{domain.RoleCaller, domain.RoleCallee} {
		out, err := p.Process(joined(role, true), fakeRooms{}, core.Request{Body: body})
		require.NoError(t, err)
		assert.Equal(t, peer, out.Target)
		cand, ok := out.Payload["candidate"].(webrtc.ICECandidateInit)
		require.True(t, ok)
		assert.Equal(t, "candidate:1 1 UDP 2122252543 192.168.1.2 50000 typ host", cand.Candidate)
		require.NotNil(t, cand.SDPMid)
		assert.Equal(t, "0", *cand.SDPMid)
		require.NotNil(t, cand.SDPMLineIndex)
		assert.EqualValues(t, 0, *cand.SDPMLineIndex)
	}

	_, err := p.Process(joined(domain.RoleCaller, false), fakeRooms{}, core.Request{Body: body})
	assert.Equal(t, "peer has not joined the room", protocolError(t, err))
}

func TestJoinKeepsLargeRoomIDs(t *testing.T) {
	p := NewProcessor()
	for _, raw := range []string{"9007199254740992", "9007199254740993", "18446744073709551615"} {
		var body core.Payload
		require.NoError(t, json.Unmarshal([]byte(`{"kind":"join","room_id":`+raw+`}`), &body))

		out, err := p.Process(core.Snapshot{Self: self}, fakeRooms{}, core.Request{Body: body})
		require.NoError(t, err)
		require.NotNil(t, out.Join)
		assert.Equal(t, raw, out.Join.RoomID.String())
	}
}

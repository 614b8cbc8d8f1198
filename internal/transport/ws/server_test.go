package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/pairline/signal-service/internal/domain"
	"github.com/pairline/signal-service/internal/service"
	"github.com/pairline/signal-service/internal/store"
)

type testEnv struct {
	srv   *httptest.Server
	rooms *store.RoomStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	registry := store.NewConnectionRegistry()
	rooms := store.NewRoomStore()
	hub := NewHub()
	matchmaker := service.NewMatchmaker(registry, rooms, hub)
	relay := service.NewRelayRouter(registry, rooms, hub)
	reconciler := service.NewDisconnectReconciler(registry, rooms, hub)

	s := NewServer(hub, registry, matchmaker, relay, reconciler, time.Second, 64<<10)
	srv := httptest.NewServer(http.HandlerFunc(s.HandleWS))
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, rooms: rooms}
}

func (e *testEnv) dial(t *testing.T) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(e.srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func send(t *testing.T, c *websocket.Conn, typ string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, c.WriteJSON(Message{Type: typ, Payload: raw}))
}

func recv(t *testing.T, c *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))

	var msg Message
	require.NoError(t, c.ReadJSON(&msg))
	return msg
}

func recvTyped(t *testing.T, c *websocket.Conn, typ string, dst any) {
	t.Helper()
	msg := recv(t, c)
	require.Equal(t, typ, msg.Type)
	if dst != nil {
		require.NoError(t, json.Unmarshal(msg.Payload, dst))
	}
}

func TestEndToEnd_PairNegotiateChatDisconnect(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)

	// Ann joins and opens a room
	c1 := env.dial(t)
	send(t, c1, domain.EventJoin, JoinPayload{DisplayName: "Ann"})

	var assigned domain.RoomAssignedPayload
	recvTyped(t, c1, domain.EventRoomAssigned, &assigned)
	req.True(strings.HasPrefix(assigned.RoomID, "room_"))
	req.Len(assigned.Occupants, 1)
	req.Equal("Ann", assigned.Occupants[0].DisplayName)
	annID := assigned.Occupants[0].ConnectionID
	roomID := assigned.RoomID

	var membership domain.MembershipChangedPayload
	recvTyped(t, c1, domain.EventMembershipChanged, &membership)
	req.Len(membership.Occupants, 1)

	// Bo joins and the room is reused
	c2 := env.dial(t)
	send(t, c2, domain.EventJoin, JoinPayload{DisplayName: "Bo"})

	var assigned2 domain.RoomAssignedPayload
	recvTyped(t, c2, domain.EventRoomAssigned, &assigned2)
	req.Equal(roomID, assigned2.RoomID)
	req.Len(assigned2.Occupants, 2)

	recvTyped(t, c2, domain.EventMembershipChanged, &membership)
	req.Len(membership.Occupants, 2)

	recvTyped(t, c1, domain.EventMembershipChanged, &membership)
	req.Len(membership.Occupants, 2)

	// both sides get exactly one negotiation_start with the peer's name
	var ready domain.NegotiationStartPayload
	recvTyped(t, c1, domain.EventNegotiationStart, &ready)
	req.Equal("Bo", ready.PeerDisplayName)
	recvTyped(t, c2, domain.EventNegotiationStart, &ready)
	req.Equal("Ann", ready.PeerDisplayName)

	// offer flows Ann -> Bo with sender metadata attached
	send(t, c1, domain.EventNegotiationOffer, map[string]any{"room_id": roomID, "sdp": "O"})

	var offer domain.NegotiationPayload
	recvTyped(t, c2, domain.EventNegotiationOffer, &offer)
	req.Equal(`"O"`, string(offer.SDP))
	req.Equal("Ann", offer.SenderDisplayName)

	// a relay against a bogus room is swallowed; the next real message
	// proves nothing was delivered out of order or cross-room
	send(t, c1, domain.EventChatMessage, map[string]any{"room_id": "room_bogus", "text": "nope"})
	send(t, c1, domain.EventChatMessage, map[string]any{"room_id": roomID, "text": "hi bo"})

	var chat domain.ChatMessagePayload
	recvTyped(t, c2, domain.EventChatMessage, &chat)
	req.Equal(`"hi bo"`, string(chat.Text))
	req.Equal("Ann", chat.SenderDisplayName)
	req.Equal(annID, chat.SenderConnectionID)

	// Bo drops: Ann hears peer_left and the room is gone
	req.NoError(c2.Close())
	recvTyped(t, c1, domain.EventPeerLeft, nil)
	req.Eventually(func() bool { return env.rooms.RoomCount() == 0 },
		2*time.Second, 10*time.Millisecond)
}

func TestServer_MalformedMessagesDoNotKillTheConnection(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)

	c1 := env.dial(t)
	req.NoError(c1.WriteMessage(websocket.TextMessage, []byte("not json")))
	req.NoError(c1.WriteMessage(websocket.TextMessage, []byte(`{"type":"wat"}`)))
	send(t, c1, domain.EventJoin, JoinPayload{DisplayName: ""}) // rejected, no room

	// the connection is still serviceable
	send(t, c1, domain.EventJoin, JoinPayload{DisplayName: "Ann"})
	var assigned domain.RoomAssignedPayload
	recvTyped(t, c1, domain.EventRoomAssigned, &assigned)
	req.Equal("Ann", assigned.Occupants[0].DisplayName)
	req.Equal(1, env.rooms.RoomCount())
}

func TestServer_ThirdClientGetsItsOwnRoom(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)

	c1 := env.dial(t)
	send(t, c1, domain.EventJoin, JoinPayload{DisplayName: "Ann"})
	var first domain.RoomAssignedPayload
	recvTyped(t, c1, domain.EventRoomAssigned, &first)

	c2 := env.dial(t)
	send(t, c2, domain.EventJoin, JoinPayload{DisplayName: "Bo"})
	var second domain.RoomAssignedPayload
	recvTyped(t, c2, domain.EventRoomAssigned, &second)
	req.Equal(first.RoomID, second.RoomID)

	c3 := env.dial(t)
	send(t, c3, domain.EventJoin, JoinPayload{DisplayName: "Cy"})
	var third domain.RoomAssignedPayload
	recvTyped(t, c3, domain.EventRoomAssigned, &third)
	req.NotEqual(first.RoomID, third.RoomID)
	req.Len(third.Occupants, 1)
}

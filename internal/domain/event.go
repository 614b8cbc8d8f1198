package domain

import "encoding/json"

// Event types carried over the websocket.
const (
	EventJoin              = "join"               // client -> server
	EventRoomAssigned      = "room_assigned"      // server -> requester
	EventMembershipChanged = "membership_changed" // server -> room
	EventNegotiationStart  = "negotiation_start"  // server -> both occupants
	EventNegotiationOffer  = "negotiation_offer"  // relayed to peer
	EventNegotiationAnswer = "negotiation_answer" // relayed to peer
	EventICECandidate      = "ice_candidate"      // relayed to peer, verbatim
	EventChatMessage       = "chat_message"       // relayed to peer
	EventPeerLeft          = "peer_left"          // server -> survivor
)

type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type OccupantItem struct {
	ConnectionID string `json:"connection_id"`
	DisplayName  string `json:"display_name"`
}

type RoomAssignedPayload struct {
	RoomID    string         `json:"room_id"`
	Occupants []OccupantItem `json:"occupants"`
}

type MembershipChangedPayload struct {
	Occupants []OccupantItem `json:"occupants"`
}

type NegotiationStartPayload struct {
	PeerDisplayName string `json:"peer_display_name"`
}

// NegotiationPayload carries an SDP offer or answer. The SDP body is opaque to
// the server and forwarded untouched.
type NegotiationPayload struct {
	SDP               json.RawMessage `json:"sdp"`
	SenderDisplayName string          `json:"sender_display_name"`
}

// ChatMessagePayload carries both name and connection id so the recipient can
// tell its own echoed messages from the peer's.
type ChatMessagePayload struct {
	Text               json.RawMessage `json:"text"`
	SenderDisplayName  string          `json:"sender_display_name"`
	SenderConnectionID string          `json:"sender_connection_id"`
}

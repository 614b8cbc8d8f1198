package ws

import "encoding/json"

// Inbound message envelope. Outbound events are domain.Event, which encodes
// to the same {type, payload} shape.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type JoinPayload struct {
	DisplayName string `json:"display_name"`
}

// SDPPayload carries an inbound offer or answer. The sdp body is opaque.
type SDPPayload struct {
	RoomID string          `json:"room_id"`
	SDP    json.RawMessage `json:"sdp"`
}

type CandidatePayload struct {
	RoomID    string          `json:"room_id"`
	Candidate json.RawMessage `json:"candidate"`
}

type ChatPayload struct {
	RoomID string          `json:"room_id"`
	Text   json.RawMessage `json:"text"`
}

package service

import (
	"encoding/json"
	"log/slog"

	"github.com/pairline/signal-service/internal/domain"
	"github.com/pairline/signal-service/internal/store"
)

// RelayRouter forwards negotiation and chat payloads between the two
// occupants of a room. Payloads are opaque: the router never reads SDP, ICE
// or chat content, it only wraps them with sender metadata.
type RelayRouter struct {
	registry *store.ConnectionRegistry
	rooms    *store.RoomStore
	emitter  Emitter
}

func NewRelayRouter(registry *store.ConnectionRegistry, rooms *store.RoomStore, emitter Emitter) *RelayRouter {
	return &RelayRouter{registry: registry, rooms: rooms, emitter: emitter}
}

// Relay delivers payload to every occupant of roomID except the sender.
// A stale or spoofed roomID yields ErrUnknownRoom / ErrNotInRoom; the caller
// drops the message and nothing leaks outside the room.
func (r *RelayRouter) Relay(kind domain.RelayKind, senderID, roomID string, payload json.RawMessage) error {
	occupants, ok := r.rooms.OccupantsOf(roomID)
	if !ok {
		return domain.ErrUnknownRoom
	}

	sender := false
	for _, id := range occupants {
		if id == senderID {
			sender = true
			break
		}
	}
	if !sender {
		return domain.ErrNotInRoom
	}

	senderName, _ := r.registry.Get(senderID)
	ev := r.wrap(kind, senderID, senderName, payload)

	for _, id := range occupants {
		if id == senderID {
			continue
		}
		r.emitter.Emit(id, ev)
	}
	slog.Debug("relay", "kind", kind, "room", roomID, "from", senderID)

	return nil
}

func (r *RelayRouter) wrap(kind domain.RelayKind, senderID, senderName string, payload json.RawMessage) domain.Event {
	switch kind {
	case domain.RelayOffer:
		return domain.Event{
			Type:    domain.EventNegotiationOffer,
			Payload: domain.NegotiationPayload{SDP: payload, SenderDisplayName: senderName},
		}
	case domain.RelayAnswer:
		return domain.Event{
			Type:    domain.EventNegotiationAnswer,
			Payload: domain.NegotiationPayload{SDP: payload, SenderDisplayName: senderName},
		}
	case domain.RelayChat:
		return domain.Event{
			Type: domain.EventChatMessage,
			Payload: domain.ChatMessagePayload{
				Text:               payload,
				SenderDisplayName:  senderName,
				SenderConnectionID: senderID,
			},
		}
	default:
		// ICE candidates travel verbatim, no metadata attached.
		return domain.Event{Type: domain.EventICECandidate, Payload: payload}
	}
}

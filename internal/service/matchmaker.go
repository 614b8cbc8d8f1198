package service

import (
	"fmt"
	"log/slog"

	"github.com/pairline/signal-service/internal/domain"
	"github.com/pairline/signal-service/internal/store"
)

// Matchmaker assigns arriving connections to rooms and signals both sides
// when a pair completes.
type Matchmaker struct {
	registry *store.ConnectionRegistry
	rooms    *store.RoomStore
	emitter  Emitter
}

func NewMatchmaker(registry *store.ConnectionRegistry, rooms *store.RoomStore, emitter Emitter) *Matchmaker {
	return &Matchmaker{registry: registry, rooms: rooms, emitter: emitter}
}

// Join records the display name, places the connection into a joinable room
// (creating one when none exists) and emits room_assigned to the requester,
// membership_changed to the room, and, the moment the room fills, one
// negotiation_start per occupant carrying the other side's display name.
//
// A connection already in a room is removed from it first, so a connection
// occupies at most one room at any instant.
func (m *Matchmaker) Join(connectionID, displayName string) error {
	if err := m.registry.SetDisplayName(connectionID, displayName); err != nil {
		return fmt.Errorf("set display name: %w", err)
	}

	asg := m.rooms.Assign(connectionID)
	if asg.Evicted != nil {
		notifyRemoval(m.emitter, *asg.Evicted)
	}

	items := occupantItems(m.registry, asg.Occupants)
	slog.Info("join", "conn", connectionID, "name", displayName,
		"room", asg.RoomID, "inside", asg.Count)

	m.emitter.Emit(connectionID, domain.Event{
		Type:    domain.EventRoomAssigned,
		Payload: domain.RoomAssignedPayload{RoomID: asg.RoomID, Occupants: items},
	})
	for _, id := range asg.Occupants {
		m.emitter.Emit(id, domain.Event{
			Type:    domain.EventMembershipChanged,
			Payload: domain.MembershipChangedPayload{Occupants: items},
		})
	}

	// Pair complete: both sides learn their peer's name and start
	// offer/answer negotiation. The server does not pick the initiator.
	if asg.Count == 2 {
		a, b := items[0], items[1]
		m.emitter.Emit(a.ConnectionID, domain.Event{
			Type:    domain.EventNegotiationStart,
			Payload: domain.NegotiationStartPayload{PeerDisplayName: b.DisplayName},
		})
		m.emitter.Emit(b.ConnectionID, domain.Event{
			Type:    domain.EventNegotiationStart,
			Payload: domain.NegotiationStartPayload{PeerDisplayName: a.DisplayName},
		})
	}

	return nil
}

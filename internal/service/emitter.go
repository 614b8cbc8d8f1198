package service

import (
	"github.com/samber/lo"

	"github.com/pairline/signal-service/internal/domain"
	"github.com/pairline/signal-service/internal/store"
)

// Emitter delivers an event to one live connection. Delivery is fire-and-
// forget: implementations must not block on the recipient's I/O and never
// report failure back into the emitting operation.
type Emitter interface {
	Emit(connectionID string, ev domain.Event)
}

// occupantItems resolves connection ids to wire occupant entries.
func occupantItems(reg *store.ConnectionRegistry, ids []string) []domain.OccupantItem {
	return lo.Map(ids, func(id string, _ int) domain.OccupantItem {
		name, _ := reg.Get(id)
		return domain.OccupantItem{ConnectionID: id, DisplayName: name}
	})
}

// notifyRemoval tells the survivors of a dissolved room that their peer is
// gone. Each survivor is expected to come back with a fresh join; the server
// never auto-rejoins anyone. Shared by the reconciler and by the
// leave-then-join path of the matchmaker.
func notifyRemoval(em Emitter, rem store.Removal) {
	for _, id := range rem.Survivors {
		em.Emit(id, domain.Event{Type: domain.EventPeerLeft})
	}
}

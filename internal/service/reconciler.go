package service

import (
	"log/slog"

	"github.com/pairline/signal-service/internal/store"
)

// DisconnectReconciler repairs room state when a connection drops: the
// departing occupant is removed from its room, the survivor is notified, a
// drained room is deleted, and the connection is unregistered.
type DisconnectReconciler struct {
	registry *store.ConnectionRegistry
	rooms    *store.RoomStore
	emitter  Emitter
}

func NewDisconnectReconciler(registry *store.ConnectionRegistry, rooms *store.RoomStore, emitter Emitter) *DisconnectReconciler {
	return &DisconnectReconciler{registry: registry, rooms: rooms, emitter: emitter}
}

// OnDisconnect is a lifecycle event, not an error path: it runs for every
// connection teardown regardless of cause.
func (d *DisconnectReconciler) OnDisconnect(connectionID string) {
	if rem, ok := d.rooms.Remove(connectionID); ok {
		slog.Info("disconnect", "conn", connectionID,
			"room", rem.RoomID, "survivors", len(rem.Survivors))
		notifyRemoval(d.emitter, rem)
	} else {
		slog.Info("disconnect", "conn", connectionID)
	}

	d.registry.Unregister(connectionID)
}

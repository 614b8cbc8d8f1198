package service

import (
	"sync"

	"github.com/pairline/signal-service/internal/domain"
	"github.com/pairline/signal-service/internal/store"
)

// recordingEmitter captures emitted events per connection.
type recordingEmitter struct {
	mu     sync.Mutex
	events map[string][]domain.Event
}

func newRecordingEmitter() *recordingEmitter {
	return &recordingEmitter{events: make(map[string][]domain.Event)}
}

func (e *recordingEmitter) Emit(connectionID string, ev domain.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events[connectionID] = append(e.events[connectionID], ev)
}

func (e *recordingEmitter) forConn(connectionID string) []domain.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]domain.Event(nil), e.events[connectionID]...)
}

func (e *recordingEmitter) ofType(connectionID, eventType string) []domain.Event {
	var out []domain.Event
	for _, ev := range e.forConn(connectionID) {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

type stack struct {
	registry   *store.ConnectionRegistry
	rooms      *store.RoomStore
	emitter    *recordingEmitter
	matchmaker *Matchmaker
	relay      *RelayRouter
	reconciler *DisconnectReconciler
}

func newStack() *stack {
	registry := store.NewConnectionRegistry()
	rooms := store.NewRoomStore()
	emitter := newRecordingEmitter()
	return &stack{
		registry:   registry,
		rooms:      rooms,
		emitter:    emitter,
		matchmaker: NewMatchmaker(registry, rooms, emitter),
		relay:      NewRelayRouter(registry, rooms, emitter),
		reconciler: NewDisconnectReconciler(registry, rooms, emitter),
	}
}

// joined registers a connection and joins it under name.
func (s *stack) joined(name string) string {
	id := s.registry.Register()
	if err := s.matchmaker.Join(id, name); err != nil {
		panic(err)
	}
	return id
}

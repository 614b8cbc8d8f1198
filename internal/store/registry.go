package store

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/pairline/signal-service/internal/domain"
)

// ConnectionRegistry tracks live connections and the display name each one
// joined under. It owns nothing but its own map; room membership lives in
// RoomStore.
type ConnectionRegistry struct {
	mu    sync.RWMutex
	names map[string]string // connectionID -> display name ("" until first join)
}

func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{names: make(map[string]string)}
}

// Register allocates a fresh server-assigned connection id, stable for the
// connection's lifetime.
func (r *ConnectionRegistry) Register() string {
	id := uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.names[id] = ""

	return id
}

// SetDisplayName records the name a connection joined under. Empty or
// whitespace-only names are rejected before any room state is touched.
func (r *ConnectionRegistry) SetDisplayName(id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ErrInvalidState
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.names[id]; !ok {
		return domain.ErrInvalidState
	}
	r.names[id] = name

	return nil
}

func (r *ConnectionRegistry) Get(id string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name, ok := r.names[id]
	return name, ok
}

func (r *ConnectionRegistry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.names, id)
}

package ws

import (
	"sync"

	"github.com/pairline/signal-service/internal/domain"
)

// Hub is the table of live connections keyed by connection id. It implements
// service.Emitter; room fan-out is the services' job, the hub only knows how
// to reach one connection.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*wsConn
}

func NewHub() *Hub {
	return &Hub{conns: make(map[string]*wsConn)}
}

func (h *Hub) Add(connectionID string, c *wsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[connectionID] = c
}

func (h *Hub) Remove(connectionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, connectionID)
}

// Emit is best-effort: a dead recipient surfaces through its own read loop,
// not through the emitting operation.
func (h *Hub) Emit(connectionID string, ev domain.Event) {
	h.mu.RLock()
	c, ok := h.conns[connectionID]
	h.mu.RUnlock()

	if ok {
		_ = c.Send(ev)
	}
}

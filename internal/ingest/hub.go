package ingest

import (
	"sync"

	"github.com/google/uuid"
)

// Hub tracks live websocket sessions so the health endpoint can report a
// connected-client count.
type Hub struct {
	mu      sync.Mutex
	clients map[string]string // id -> remote address
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]string)}
}

// Register adds a client and returns its assigned id.
func (h *Hub) Register(remoteAddr string) string {
	id := uuid.NewString()
	h.mu.Lock()
	h.clients[id] = remoteAddr
	h.mu.Unlock()
	return id
}

// Unregister drops a client by id. Unknown ids are ignored.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	delete(h.clients, id)
	h.mu.Unlock()
}

// Count returns the number of live clients.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

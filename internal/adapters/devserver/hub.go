package devserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.trai.ch/swatch/internal/core/domain"
)

const (
	clientBuffer      = 4
	defaultHeartbeat  = 30 * time.Second
	reloadEventName   = "reload"
	connectedPreamble = ": connected\n\n"
)

// Hub fans reload notifications out to browsers connected over server-sent events.
type Hub struct {
	mu        sync.Mutex
	clients   map[string]*client
	closed    bool
	heartbeat time.Duration
}

type client struct {
	events chan []byte
	done   chan struct{}
}

type reloadMessage struct {
	Kind  domain.ReloadKind `json:"kind"`
	Paths []string          `json:"paths,omitempty"`
}

// NewHub creates a Hub without clients.
func NewHub() *Hub {
	return &Hub{clients: make(map[string]*client), heartbeat: defaultHeartbeat}
}

// ServeHTTP streams reload events until the client disconnects or the hub shuts down.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	id := uuid.NewString()
	c := &client{events: make(chan []byte, clientBuffer), done: make(chan struct{})}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		http.Error(w, "live reload shutting down", http.StatusServiceUnavailable)
		return
	}
	h.clients[id] = c
	h.mu.Unlock()
	defer h.remove(id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	if _, err := w.Write([]byte(connectedPreamble)); err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-c.done:
			return
		case <-ticker.C:
			if _, err := w.Write([]byte(": ping\n\n")); err != nil {
				return
			}
			flusher.Flush()
		case event := <-c.events:
			if _, err := w.Write(event); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// Broadcast queues r for every connected client and returns how many were reached.
// Clients too slow to drain their queue are disconnected.
func (h *Hub) Broadcast(r domain.Reload) int {
	payload, err := json.Marshal(reloadMessage{Kind: r.Kind, Paths: r.Paths})
	if err != nil {
		return 0
	}
	event := []byte("id: " + uuid.NewString() + "\nevent: " + reloadEventName + "\ndata: " + string(payload) + "\n\n")

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return 0
	}

	delivered := 0
	for id, c := range h.clients {
		select {
		case c.events <- event:
			delivered++
		default:
			close(c.done)
			delete(h.clients, id)
		}
	}
	return delivered
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Shutdown disconnects every client and rejects new ones.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, c := range h.clients {
		close(c.done)
		delete(h.clients, id)
	}
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.clients[id]; ok {
		close(c.done)
		delete(h.clients, id)
	}
}

package server

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The surface binds to loopback; the UI host is local.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Event is one UI-bound notification.
type Event struct {
	Event   string `json:"event"`
	Payload string `json:"payload"`
}

// Hub fans session events out to connected websocket clients. It
// satisfies the session event sink so the controller never sees the
// transport.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	logger  zerolog.Logger
}

// NewHub returns an empty hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]struct{}),
		logger:  logger.With().Str("component", "events").Logger(),
	}
}

// Emit broadcasts an event to every connected client. Clients that
// fail to write are dropped.
func (h *Hub) Emit(event, payload string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteJSON(Event{Event: event, Payload: payload}); err != nil {
			h.logger.Debug().Err(err).Msg("dropping event client")
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// ServeHTTP upgrades the request and keeps the connection registered
// until the client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug().Int("clients", n).Msg("event client connected")

	// Reads are discarded; the stream is one-way. The read loop only
	// detects disconnects.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.mu.Lock()
				delete(h.clients, conn)
				h.mu.Unlock()
				conn.Close()
				return
			}
		}
	}()
}

// ClientCount reports connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

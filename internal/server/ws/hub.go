package ws

import (
	"log/slog"
	"sync"
)

// Central hub tracking every live stream connection keyed by user id. One
// user may hold several connections (multiple devices); a push fans out to
// all of them.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]bool // userID -> connections
	logger  *slog.Logger
}

// NewHub creates an empty hub
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[string]map[*Client]bool),
		logger:  logger,
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.UserID] == nil {
		h.clients[c.UserID] = make(map[*Client]bool)
	}
	h.clients[c.UserID][c] = true
	h.logger.Info("stream client connected",
		"client_id", c.ID,
		"user_id", c.UserID,
	)
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := h.clients[c.UserID]
	if conns == nil || !conns[c] {
		return
	}
	delete(conns, c)
	if len(conns) == 0 {
		delete(h.clients, c.UserID)
	}
	close(c.SendChannel)
	h.logger.Info("stream client disconnected",
		"client_id", c.ID,
		"user_id", c.UserID,
	)
}

// Push delivers one frame to all of a user's live connections. A connection
// whose send buffer is full is skipped rather than blocking the caller; the
// client recovers the missed event on its next reconciliation fetch.
func (h *Hub) Push(userID string, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[userID] {
		select {
		case c.SendChannel <- frame:
		default:
			h.logger.Warn("stream client send buffer full, frame dropped",
				"client_id", c.ID,
				"user_id", userID,
			)
		}
	}
}

package http

import (
	"context"
	"log/slog"
	"sync"

	"trivia-chat-service/internal/domain"
)

const clientBuffer = 32

// client is one websocket connection joined to a conversation.
type client struct {
	userID string
	send   chan outboundMessage[any]
}

// Hub fans renders out to every socket in a conversation. It is the
// Notifier used by the trivia service for renders produced off-request.
type Hub struct {
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:  logger,
		clients: make(map[string]map[*client]struct{}),
	}
}

func (h *Hub) register(conversationID, userID string) *client {
	c := &client{userID: userID, send: make(chan outboundMessage[any], clientBuffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[conversationID]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[conversationID] = set
	}
	set[c] = struct{}{}
	return c
}

// unregister removes c and closes its send channel. It reports whether the
// conversation has no sockets left.
func (h *Hub) unregister(conversationID string, c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[conversationID]
	if _, ok := set[c]; ok {
		delete(set, c)
		close(c.send)
	}
	if len(set) == 0 {
		delete(h.clients, conversationID)
		return true
	}
	return false
}

// Deliver sends each render to every socket of its conversation. Slow
// sockets whose buffer is full miss the render.
func (h *Hub) Deliver(_ context.Context, renders ...domain.Render) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, r := range renders {
		for c := range h.clients[r.ConversationID] {
			select {
			case c.send <- outboundMessage[any]{Type: "render", Payload: r}:
			default:
				h.logger.Warn("dropping render for slow client",
					slog.String("conversation", r.ConversationID),
					slog.String("user", c.userID))
			}
		}
	}
	return nil
}

// Connections returns the number of sockets joined to a conversation.
func (h *Hub) Connections(conversationID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[conversationID])
}

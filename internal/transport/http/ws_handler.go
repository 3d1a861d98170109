package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"trivia-chat-service/internal/app"
	"trivia-chat-service/internal/domain"
)

type WSHandler struct {
	service  *app.TriviaService
	hub      *Hub
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.TriviaService, hub *Hub, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{
		service: service,
		hub:     hub,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type textPayload struct {
	MessageID string `json:"messageId"`
	Text      string `json:"text"`
}

type actionPayload struct {
	MessageID string `json:"messageId"`
	Action    string `json:"action"`
	Data      string `json:"data"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and feeds chat traffic into
// the trivia service. Every render is fanned out to the whole conversation.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conversationID := r.URL.Query().Get("conversationId")
	userID := r.URL.Query().Get("userId")
	displayName := r.URL.Query().Get("name")
	if conversationID == "" || userID == "" || displayName == "" {
		http.Error(w, "missing conversationId, userId, or name", http.StatusBadRequest)
		return
	}

	// Join the hub before the handshake completes so the client never misses
	// renders sent right after it connects.
	c := h.hub.register(conversationID, userID)
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.hub.unregister(conversationID, c)
		h.logger.Warn("ws upgrade failed", slog.Any("error", err))
		return
	}
	defer conn.Close()
	h.logger.Debug("socket joined conversation",
		slog.String("conversation", conversationID),
		slog.String("user", userID),
		slog.Int("sockets", h.hub.Connections(conversationID)))

	writerDone := make(chan struct{})

	// Single writer per connection; gorilla connections are not safe for
	// concurrent writes.
	go func() {
		defer close(writerDone)
		for msg := range c.send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write error", slog.String("conversation", conversationID), slog.Any("error", err))
				return
			}
		}
	}()

	reply := func(msg string) {
		select {
		case c.send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}:
		default:
		}
	}

	ctx := r.Context()
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		var renders []domain.Render
		switch inbound.Type {
		case "text":
			var payload textPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				reply("invalid text payload")
				continue
			}
			renders = h.service.OnText(ctx, domain.TextEvent{
				ConversationID: conversationID,
				UserID:         userID,
				UserName:       displayName,
				MessageID:      messageID(payload.MessageID),
				Text:           payload.Text,
			})
		case "action":
			var payload actionPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				reply("invalid action payload")
				continue
			}
			action, err := domain.ParseAction(payload.Action)
			if err != nil {
				reply(err.Error())
				continue
			}
			renders = h.service.OnAction(ctx, domain.ActionEvent{
				ConversationID: conversationID,
				UserID:         userID,
				UserName:       displayName,
				MessageID:      messageID(payload.MessageID),
				Action:         action,
				Data:           payload.Data,
			})
		default:
			reply("unsupported message type")
			continue
		}
		_ = h.hub.Deliver(ctx, renders...)
	}

	if empty := h.hub.unregister(conversationID, c); empty {
		h.logger.Debug("last socket left conversation, forgetting it", slog.String("conversation", conversationID))
		h.service.Forget(conversationID)
	}
	<-writerDone
}

func messageID(supplied string) string {
	if supplied != "" {
		return supplied
	}
	return uuid.NewString()
}

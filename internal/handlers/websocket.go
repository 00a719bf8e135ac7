package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"portfolio-backend/internal/middleware"
	"portfolio-backend/internal/services"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles admin change-notification sockets
type WebSocketHandler struct {
	hub       *services.WSHub
	validator middleware.TokenValidator
	upgrader  websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocket handler. Browsers cannot set an
// Authorization header on a socket, so the token travels in the query string.
func NewWebSocketHandler(hub *services.WSHub, validator middleware.TokenValidator, allowedOrigin string) *WebSocketHandler {
	return &WebSocketHandler{
		hub:       hub,
		validator: validator,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "" || origin == "" || origin == allowedOrigin
			},
		},
	}
}

// HandleWebSocket handles GET /api/admin/ws?token=...
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, "token required", http.StatusUnauthorized)
		return
	}

	if err := h.validator.ValidateToken(token); err != nil {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	connID := uuid.NewString()
	h.hub.Register(connID, conn)
	defer h.hub.Unregister(connID)

	if err := h.hub.SendTo(connID, services.WSMessage{
		Type:      services.WSTypeHello,
		Timestamp: time.Now().UnixMilli(),
	}); err != nil {
		log.Error().Err(err).Str("conn_id", connID).Msg("Failed to send hello message")
		return
	}

	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().Err(err).Str("conn_id", connID).Msg("WebSocket error")
			}
			break
		}

		var msg services.WSMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			h.reply(connID, services.WSMessage{Type: services.WSTypeError, Message: "Invalid message format"})
			continue
		}

		switch msg.Type {
		case "ping":
			h.reply(connID, services.WSMessage{Type: services.WSTypePong, Timestamp: time.Now().UnixMilli()})
		default:
			h.reply(connID, services.WSMessage{Type: services.WSTypeError, Message: "Unknown message type"})
		}
	}
}

func (h *WebSocketHandler) reply(connID string, msg services.WSMessage) {
	if err := h.hub.SendTo(connID, msg); err != nil {
		log.Warn().Err(err).Str("conn_id", connID).Str("type", msg.Type).Msg("Failed to reply on WebSocket")
	}
}

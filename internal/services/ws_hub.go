package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"portfolio-backend/internal/models"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const wsWriteTimeout = 5 * time.Second

// WS message types
const (
	WSTypeImagesChanged = "images_changed"
	WSTypeHello         = "hello"
	WSTypePong          = "pong"
	WSTypeError         = "error"
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type      string          `json:"type"`
	Category  models.Category `json:"category,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
	Message   string          `json:"message,omitempty"`
}

// wsSendBuffer is how many messages may wait for a slow session before it is
// dropped
const wsSendBuffer = 16

// wsSession owns the write side of one connection. Only its writer goroutine
// writes to conn.
type wsSession struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (s *wsSession) close() {
	s.once.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}

// enqueue never blocks: a full queue means the peer stopped reading
func (s *wsSession) enqueue(data []byte) error {
	select {
	case <-s.done:
		return fmt.Errorf("session %s is closed", s.id)
	default:
	}
	select {
	case s.send <- data:
		return nil
	default:
		return fmt.Errorf("session %s is not keeping up", s.id)
	}
}

// WSHub keeps the open admin sessions and tells them when a category changed so
// they can reconcile their order again. Socket writes happen on one goroutine
// per session, never under the hub lock.
type WSHub struct {
	mu       sync.Mutex
	sessions map[string]*wsSession
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{
		sessions: make(map[string]*wsSession),
	}
}

// Register adds a connection under id, closing any previous one with the same id
func (h *WSHub) Register(id string, conn *websocket.Conn) {
	s := &wsSession{
		id:   id,
		conn: conn,
		send: make(chan []byte, wsSendBuffer),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	if existing, ok := h.sessions[id]; ok {
		existing.close()
	}
	h.sessions[id] = s
	n := len(h.sessions)
	h.mu.Unlock()

	go h.writePump(s)

	log.Info().Str("conn_id", id).Int("sessions", n).Msg("Admin WebSocket registered")
}

// Unregister removes and closes the connection registered under id
func (h *WSHub) Unregister(id string) {
	h.mu.Lock()
	s, ok := h.sessions[id]
	h.mu.Unlock()
	if ok {
		h.drop(s)
	}
}

// drop removes s if it is still the session registered under its id
func (h *WSHub) drop(s *wsSession) {
	h.mu.Lock()
	current, ok := h.sessions[s.id]
	if ok && current == s {
		delete(h.sessions, s.id)
	}
	h.mu.Unlock()

	s.close()
	if ok && current == s {
		log.Info().Str("conn_id", s.id).Msg("Admin WebSocket unregistered")
	}
}

// Count returns the number of open sessions
func (h *WSHub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// CloseAll closes every session
func (h *WSHub) CloseAll() {
	for _, s := range h.snapshot() {
		h.drop(s)
	}
}

func (h *WSHub) snapshot() []*wsSession {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*wsSession, 0, len(h.sessions))
	for _, s := range h.sessions {
		out = append(out, s)
	}
	return out
}

// SendTo queues a message for a single session
func (h *WSHub) SendTo(id string, message WSMessage) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	h.mu.Lock()
	s, ok := h.sessions[id]
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("session %s is not connected", id)
	}
	if err := s.enqueue(data); err != nil {
		h.drop(s)
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// Broadcast queues a message for every session and returns without waiting
// for the writes. Sessions whose queue is full are dropped.
func (h *WSHub) Broadcast(message WSMessage) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal broadcast")
		return
	}

	for _, s := range h.snapshot() {
		if err := s.enqueue(data); err != nil {
			log.Warn().Err(err).Str("conn_id", s.id).Msg("Dropping admin WebSocket")
			h.drop(s)
		}
	}
}

// NotifyImagesChanged broadcasts an images_changed message for category
func (h *WSHub) NotifyImagesChanged(category models.Category) {
	h.Broadcast(WSMessage{
		Type:      WSTypeImagesChanged,
		Category:  category,
		Timestamp: time.Now().UnixMilli(),
	})
}

func (h *WSHub) writePump(s *wsSession) {
	for {
		select {
		case <-s.done:
			return
		case data := <-s.send:
			err := s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err == nil {
				err = s.conn.WriteMessage(websocket.TextMessage, data)
			}
			if err != nil {
				log.Warn().Err(err).Str("conn_id", s.id).Msg("Dropping admin WebSocket")
				h.drop(s)
				return
			}
		}
	}
}

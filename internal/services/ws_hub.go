package services

import (
	"encoding/json"
	"fmt"
	"sync"

	"skillswap-backend/internal/livequery"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocket frame types
const (
	WSSubscribe   = "subscribe"
	WSUnsubscribe = "unsubscribe"
	WSSnapshot    = "snapshot"
	WSError       = "error"
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	ID      string      `json:"id,omitempty"`
	Query   string      `json:"query,omitempty"`
	OtherID string      `json:"other_id,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// WSConn is the part of *websocket.Conn a session writes to
type WSConn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// WSSession is one client connection and the live queries it holds
type WSSession struct {
	UserID string

	conn    WSConn
	writeMu sync.Mutex

	mu     sync.Mutex
	subs   map[string]*livequery.Subscription
	closed bool
}

// Send writes a frame to the client
func (s *WSSession) Send(message WSMessage) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// SendError writes an error frame for the subscription id
func (s *WSSession) SendError(id, message string) {
	if err := s.Send(WSMessage{Type: WSError, ID: id, Message: message}); err != nil {
		log.Debug().Err(err).Str("user_id", s.UserID).Msg("Failed to send error frame")
	}
}

// Attach stores sub under id, replacing and stopping any previous one. A
// subscription attached after the session closed is stopped immediately.
func (s *WSSession) Attach(id string, sub *livequery.Subscription) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		sub.Unsubscribe()
		return
	}
	prev := s.subs[id]
	s.subs[id] = sub
	s.mu.Unlock()

	if prev != nil {
		prev.Unsubscribe()
	}
}

// Detach stops the subscription stored under id
func (s *WSSession) Detach(id string) bool {
	s.mu.Lock()
	sub, ok := s.subs[id]
	delete(s.subs, id)
	s.mu.Unlock()

	if ok {
		sub.Unsubscribe()
	}
	return ok
}

// Subscriptions returns the number of live queries held by the session
func (s *WSSession) Subscriptions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *WSSession) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	subs := s.subs
	s.subs = map[string]*livequery.Subscription{}
	s.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
	s.conn.Close()
}

// WSHub manages WebSocket sessions
type WSHub struct {
	mu       sync.RWMutex
	sessions map[*WSSession]struct{}
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{
		sessions: make(map[*WSSession]struct{}),
	}
}

// Register registers a new WebSocket connection for a user
func (h *WSHub) Register(userID string, conn WSConn) *WSSession {
	session := &WSSession{
		UserID: userID,
		conn:   conn,
		subs:   make(map[string]*livequery.Subscription),
	}

	h.mu.Lock()
	h.sessions[session] = struct{}{}
	h.mu.Unlock()

	log.Info().Str("user_id", userID).Msg("WebSocket connection registered")
	return session
}

// Unregister stops every live query of the session and closes its connection
func (h *WSHub) Unregister(session *WSSession) {
	h.mu.Lock()
	_, exists := h.sessions[session]
	delete(h.sessions, session)
	h.mu.Unlock()

	session.close()
	if exists {
		log.Info().Str("user_id", session.UserID).Msg("WebSocket connection unregistered")
	}
}

// IsOnline checks if a user has at least one open session
func (h *WSHub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.sessions {
		if s.UserID == userID {
			return true
		}
	}
	return false
}

// Close unregisters every session
func (h *WSHub) Close() {
	h.mu.Lock()
	sessions := make([]*WSSession, 0, len(h.sessions))
	for s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.sessions = make(map[*WSSession]struct{})
	h.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
	log.Info().Int("sessions", len(sessions)).Msg("WebSocket hub closed")
}

// Package realtime serves the chat over WebSocket connections.
package realtime

import (
	"strings"
	"sync"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/ashureev/collabmatch/internal/logger"
)

// Registry tracks the open chat connection for each user and session.
type Registry struct {
	mu     sync.RWMutex
	active map[string]map[string]*websocket.Conn
	log    *zap.Logger
}

// NewRegistry creates an empty connection registry.
func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		active: make(map[string]map[string]*websocket.Conn),
		log:    logger.OrNop(log),
	}
}

// Count returns the number of open connections.
func (m *Registry) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, sessions := range m.active {
		n += len(sessions)
	}
	return n
}

// Register adds a connection, closing any older one for the same session.
func (m *Registry) Register(userID, sessionID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.active[userID]; !exists {
		m.active[userID] = make(map[string]*websocket.Conn)
	}

	if existing, exists := m.active[userID][sessionID]; exists && existing != conn {
		_ = existing.Close(websocket.StatusNormalClosure, "session replaced")
	}

	m.active[userID][sessionID] = conn
	m.log.Info("chat connection registered", zap.String(logger.FieldUserID, userID), zap.String(logger.FieldSessionID, sessionID))
}

// Unregister removes a connection if it is still the current one.
func (m *Registry) Unregister(userID, sessionID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sessions, ok := m.active[userID]; ok {
		if current, exists := sessions[sessionID]; exists && current == conn {
			delete(sessions, sessionID)
			if len(sessions) == 0 {
				delete(m.active, userID)
			}
			m.log.Info("chat connection unregistered", zap.String(logger.FieldUserID, userID), zap.String(logger.FieldSessionID, sessionID))
		}
	}
}

// CloseConversation closes the connection for a "userID:sessionID" key.
// It is used when the conversation expires.
func (m *Registry) CloseConversation(key string) {
	userID, sessionID, ok := strings.Cut(key, ":")
	if !ok {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sessions, ok := m.active[userID]
	if !ok {
		return
	}
	conn, ok := sessions[sessionID]
	if !ok {
		return
	}
	_ = conn.Close(websocket.StatusNormalClosure, "conversation expired")
	delete(sessions, sessionID)
	if len(sessions) == 0 {
		delete(m.active, userID)
	}
	m.log.Info("chat connection closed after expiry", zap.String(logger.FieldUserID, userID), zap.String(logger.FieldSessionID, sessionID))
}

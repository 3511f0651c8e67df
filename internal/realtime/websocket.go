package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/ashureev/collabmatch/internal/identity"
	"github.com/ashureev/collabmatch/internal/logger"
)

// Chatter answers one chat message for one conversation key.
type Chatter interface {
	HandleMessage(ctx context.Context, sessionID, utterance string) string
}

// wsMessage is both the inbound and outbound frame.
type wsMessage struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Reply   string `json:"reply,omitempty"`
	Error   string `json:"error,omitempty"`
}

const maxFrameSize = 16 << 10

// ChatHandler handles WebSocket chat sessions.
type ChatHandler struct {
	chat          Chatter
	conns         *Registry
	allowedOrigin string
	isDev         bool
	log           *zap.Logger
}

// NewChatHandler creates a new WebSocket chat handler.
func NewChatHandler(chat Chatter, conns *Registry, allowedOrigin string, isDev bool, log *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chat:          chat,
		conns:         conns,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
		log:           logger.OrNop(log),
	}
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	sessionID := identity.SessionIDFromContext(r.Context())
	log := h.log.With(zap.String(logger.FieldUserID, userID), zap.String(logger.FieldSessionID, sessionID))
	log.Info("chat websocket request", zap.String("ip", identity.IPFromRequest(r)))

	if userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Error("failed to accept websocket", zap.Error(err))
		return
	}
	ws.SetReadLimit(maxFrameSize)
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			log.Debug("failed to close websocket", zap.Error(closeErr))
		}
	}()

	h.conns.Register(userID, sessionID, ws)
	defer h.conns.Unregister(userID, sessionID, ws)

	h.readLoop(r.Context(), ws, identity.ConversationKey(userID, sessionID), log)
	log.Info("chat websocket ended")
}

func (h *ChatHandler) readLoop(ctx context.Context, ws *websocket.Conn, key string, log *zap.Logger) {
	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				log.Debug("websocket closed by client")
			} else if ctx.Err() == nil {
				log.Warn("websocket read error", zap.Error(err))
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			msg = wsMessage{Type: "message", Message: string(data)}
		}

		var out wsMessage
		switch msg.Type {
		case "", "message":
			if strings.TrimSpace(msg.Message) == "" {
				out = wsMessage{Type: "error", Error: "message is required"}
				break
			}
			out = wsMessage{Type: "reply", Reply: h.chat.HandleMessage(ctx, key, msg.Message)}
		case "ping":
			out = wsMessage{Type: "pong"}
		default:
			out = wsMessage{Type: "error", Error: "unknown message type"}
		}

		if err := writeJSON(ctx, ws, out); err != nil {
			log.Debug("failed to write websocket frame", zap.Error(err))
			return
		}
	}
}

func (h *ChatHandler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" {
		return true
	}
	if origin == h.allowedOrigin {
		return true
	}
	h.log.Warn("websocket origin rejected", zap.String("origin", origin), zap.String("allowed", h.allowedOrigin))
	return false
}

func writeJSON(ctx context.Context, ws *websocket.Conn, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return ws.Write(ctx, websocket.MessageText, data)
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ashureev/collabmatch/internal/identity"
	"github.com/ashureev/collabmatch/internal/logger"
)

const maxChatBodySize = 16 << 10

// ChatRequest is the body of POST /api/chat. SessionID overrides the
// session header when set.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// ChatResponse is the reply to a chat message.
type ChatResponse struct {
	Reply     string `json:"reply"`
	SessionID string `json:"session_id"`
}

// HandleChat answers one chat message synchronously.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if h.limiter != nil && !h.limiter.Allow(userID) {
		Error(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxChatBodySize)
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		Error(w, http.StatusBadRequest, "message is required")
		return
	}

	sessionID := identity.SessionIDFromContext(r.Context())
	if req.SessionID != "" {
		sessionID = identity.SanitizeSessionID(req.SessionID)
	}
	key := identity.ConversationKey(userID, sessionID)

	h.log.Info("chat request",
		zap.String(logger.FieldUserID, userID),
		zap.String(logger.FieldSessionID, sessionID),
		zap.String("request_id", chiMiddleware.GetReqID(r.Context())),
		zap.Int("message_length", len(req.Message)))

	reply := h.chat.HandleMessage(r.Context(), key, req.Message)
	w.Header().Set(identity.SessionHeaderName, sessionID)
	JSON(w, http.StatusOK, ChatResponse{Reply: reply, SessionID: sessionID})
}

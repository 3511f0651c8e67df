package api

import (
	"net/http"

	"go.uber.org/zap"
)

// HealthResponse is the /api/health payload.
type HealthResponse struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
	Sessions    int    `json:"sessions"`
}

// HandleHealth reports database reachability and live chat counts.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}
	if h.conns != nil {
		resp.Connections = h.conns.Count()
	}
	if h.sessions != nil {
		resp.Sessions = h.sessions.Count()
	}

	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			h.log.Warn("health check failed", zap.Error(err))
			resp.Status = "unavailable"
			JSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}
	JSON(w, http.StatusOK, resp)
}

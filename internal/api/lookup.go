package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ashureev/collabmatch/internal/match"
)

// HandleGetInfluencer returns one influencer profile by name.
func (h *Handler) HandleGetInfluencer(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(chi.URLParam(r, "name"))
	if name == "" {
		Error(w, http.StatusBadRequest, "name is required")
		return
	}

	inf, err := h.profiles.LookupInfluencer(r.Context(), name)
	if errors.Is(err, match.ErrNotFound) {
		Error(w, http.StatusNotFound, "influencer not found")
		return
	}
	if err != nil {
		h.log.Error("influencer lookup failed", zap.String("name", name), zap.Error(err))
		Error(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	JSON(w, http.StatusOK, inf)
}

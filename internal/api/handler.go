// Package api provides HTTP handlers for the collabmatch API.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ashureev/collabmatch/internal/domain"
	"github.com/ashureev/collabmatch/internal/logger"
	"github.com/ashureev/collabmatch/internal/registry"
)

// Chatter answers one chat message for one conversation key.
type Chatter interface {
	HandleMessage(ctx context.Context, sessionID, utterance string) string
}

// Profiles performs direct influencer lookups.
type Profiles interface {
	LookupInfluencer(ctx context.Context, name string) (*domain.Influencer, error)
}

// Registrar stores new entities.
type Registrar interface {
	RegisterInfluencer(ctx context.Context, in registry.InfluencerInput) (int64, error)
	RegisterBrand(ctx context.Context, in registry.BrandInput) (int64, error)
}

// Counter reports how many live connections or sessions exist.
type Counter interface {
	Count() int
}

// Pinger reports database reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators a Handler needs.
type Deps struct {
	Chat      Chatter
	Profiles  Profiles
	Registrar Registrar
	DB        Pinger
	Conns     Counter
	Sessions  Counter
	Limiter   *RateLimiter
	Log       *zap.Logger
}

// Handler serves the JSON API.
type Handler struct {
	chat      Chatter
	profiles  Profiles
	registrar Registrar
	db        Pinger
	conns     Counter
	sessions  Counter
	limiter   *RateLimiter
	log       *zap.Logger
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(d Deps) *Handler {
	return &Handler{
		chat:      d.Chat,
		profiles:  d.Profiles,
		registrar: d.Registrar,
		db:        d.DB,
		conns:     d.Conns,
		sessions:  d.Sessions,
		limiter:   d.Limiter,
		log:       logger.OrNop(d.Log),
	}
}

// RegisterRoutes mounts the API routes. Identity middleware must run first.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.HandleHealth)
		r.Post("/chat", h.HandleChat)
		r.Post("/influencers", h.HandleRegisterInfluencer)
		r.Get("/influencers/{name}", h.HandleGetInfluencer)
		r.Post("/brands", h.HandleRegisterBrand)
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

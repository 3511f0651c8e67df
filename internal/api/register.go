package api

import (
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/ashureev/collabmatch/internal/registry"
)

const maxRegisterBodySize = 8 << 10

// RegisterResponse is returned after a successful registration.
type RegisterResponse struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

// HandleRegisterInfluencer stores a new influencer.
func (h *Handler) HandleRegisterInfluencer(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	in, err := registry.DecodeInfluencer(body)
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	id, err := h.registrar.RegisterInfluencer(r.Context(), in)
	if err != nil {
		h.registerFailed(w, "influencer", err)
		return
	}
	JSON(w, http.StatusCreated, RegisterResponse{ID: id, Message: "Influencer registered!"})
}

// HandleRegisterBrand stores a new brand.
func (h *Handler) HandleRegisterBrand(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	in, err := registry.DecodeBrand(body)
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	id, err := h.registrar.RegisterBrand(r.Context(), in)
	if err != nil {
		h.registerFailed(w, "brand", err)
		return
	}
	JSON(w, http.StatusCreated, RegisterResponse{ID: id, Message: "Brand registered!"})
}

func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRegisterBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			Error(w, http.StatusRequestEntityTooLarge, "request body too large")
		} else {
			Error(w, http.StatusBadRequest, "invalid request body")
		}
		return nil, false
	}
	return body, true
}

func (h *Handler) registerFailed(w http.ResponseWriter, kind string, err error) {
	if errors.Is(err, registry.ErrInvalid) {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	h.log.Error("registration failed", zap.String("kind", kind), zap.Error(err))
	Error(w, http.StatusInternalServerError, "failed to register "+kind)
}

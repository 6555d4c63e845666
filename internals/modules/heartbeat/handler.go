package heartbeat

import (
	"encoding/json"
	"net/http"

	"pulsemon/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type Handler struct {
	service *Service
	logger  *zerolog.Logger
}

func NewHandler(service *Service, logger *zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

type okResponse struct {
	OK bool `json:"ok"`
}

// Heartbeat serves GET /h/{slug}/{token}. An unknown slug and a wrong
// token are indistinguishable to the caller, both are a plain 404.
func (h *Handler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	slug := chi.URLParam(r, "slug")
	token := chi.URLParam(r, "token")

	if err := h.service.Ping(ctx, slug, token); err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(okResponse{OK: true}); err != nil {
		h.logger.Error().Err(err).Msg("error in encoding heartbeat response")
	}
}

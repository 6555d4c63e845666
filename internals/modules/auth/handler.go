package auth

import (
	"encoding/json"
	"net/http"

	"pulsemon/config"
	"pulsemon/internals/security"
	"pulsemon/pkg/apperror"
	"pulsemon/pkg/utils"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Handler trades the admin password for a short-lived bearer token. The
// password itself is never stored, only its argon2id hash from config.
type Handler struct {
	tokenSvc  *security.TokenService
	adminHash string
	validator *validator.Validate
	logger    *zerolog.Logger
}

func NewHandler(authCfg *config.AuthConfig, tokenSvc *security.TokenService, validator *validator.Validate, logger *zerolog.Logger) *Handler {
	return &Handler{
		tokenSvc:  tokenSvc,
		adminHash: authCfg.AdminPasswordHash,
		validator: validator,
		logger:    logger,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, err.Error())
		return
	}

	ok, err := security.ComparePassword(req.Password, h.adminHash)
	if err != nil || !ok {
		utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "invalid credentials")
		return
	}

	token, err := h.tokenSvc.GenerateAccessToken()
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to sign access token")
		utils.WriteError(w, http.StatusInternalServerError, reqID, apperror.Internal, "internal server error")
		return
	}

	utils.WriteJSON(w, http.StatusOK, reqID, "logged in successfully", LoginResponse{AccessToken: token})
}

package monitor

import (
	"encoding/json"
	"net/http"
	"strconv"

	"pulsemon/pkg/apperror"
	"pulsemon/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service, validator *validator.Validate) *Handler {
	return &Handler{
		service:   service,
		validator: validator,
	}
}

func (h *Handler) CreateMonitor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	var req CreateMonitorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, err.Error())
		return
	}

	m, err := h.service.CreateMonitor(ctx, CreateMonitorCmd{
		Name:        req.Name,
		Slug:        req.Slug,
		IntervalSec: req.IntervalSec,
		GraceSec:    req.GraceSec,
		WebhookURL:  req.WebhookURL,
	})
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	// the token is shown once, at creation
	utils.WriteJSON(w, http.StatusCreated, reqID, "monitor created successfully", toMonitorResponse(&m, true))
}

func (h *Handler) GetMonitor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	slug := chi.URLParam(r, "slug")

	m, err := h.service.GetMonitor(ctx, slug)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, reqID, "", toMonitorResponse(&m, false))
}

func (h *Handler) ListMonitors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	monitors, err := h.service.ListMonitors(ctx)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	resp := make([]MonitorResponse, 0, len(monitors))
	for i := range monitors {
		resp = append(resp, toMonitorResponse(&monitors[i], false))
	}

	utils.WriteJSON(w, http.StatusOK, reqID, "", resp)
}

func (h *Handler) DeleteMonitor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	slug := chi.URLParam(r, "slug")

	if err := h.service.DeleteMonitor(ctx, slug); err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	utils.WriteJSON[any](w, http.StatusOK, reqID, "monitor deleted successfully", nil)
}

// /monitors/{slug}/history?limit=50
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	slug := chi.URLParam(r, "slug")

	var limit int64
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		limit, err = strconv.ParseInt(limitStr, 10, 32)
		if err != nil {
			utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid limit")
			return
		}
	}

	entries, err := h.service.History(ctx, slug, int32(limit))
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	resp := make([]HistoryEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, HistoryEntryResponse{
			PrevStatus: e.PrevStatus,
			NewStatus:  e.NewStatus,
			Note:       e.Note,
			CreatedAt:  e.CreatedAt,
		})
	}

	utils.WriteJSON(w, http.StatusOK, reqID, "", resp)
}

// Overview is the public status page feed, no auth.
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	data, err := h.service.Overview(ctx)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func toMonitorResponse(m *Monitor, includeToken bool) MonitorResponse {
	resp := MonitorResponse{
		Name:        m.Name,
		Slug:        m.Slug,
		IntervalSec: m.IntervalSec,
		GraceSec:    m.GraceSec,
		Status:      m.Status,
		LastPing:    m.LastPing,
		WebhookURL:  m.WebhookURL,
		CreatedAt:   m.CreatedAt,
	}
	if includeToken {
		resp.Token = m.Token
	}
	return resp
}

package monitor

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.CreateMonitor)
	r.Get("/", h.ListMonitors)
	r.Get("/{slug}", h.GetMonitor)
	r.Delete("/{slug}", h.DeleteMonitor)
	r.Get("/{slug}/history", h.GetHistory)

	return r
}

package app

import (
	"net/http"
	"time"

	middle "pulsemon/internals/middleware"
	"pulsemon/internals/modules/auth"
	"pulsemon/internals/modules/monitor"
	"pulsemon/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func RegisterRoutes(c *Container) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middle.Logger(c.Logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, http.StatusOK, middleware.GetReqID(r.Context()), "ok", map[string]string{"status": "ok"})
	})

	// check-in URL used by the monitored jobs themselves
	r.Get("/h/{slug}/{token}", c.heartbeatHandler.Heartbeat)

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(middleware.Timeout(5 * time.Second))

		v1.Mount("/auth", auth.Routes(c.authHandler))

		// public status overview
		v1.Get("/status", c.monitorHandler.Overview)

		// admin surface
		v1.With(c.authMW.Handle).
			Mount("/monitors", monitor.Routes(c.monitorHandler))
	})

	return r
}

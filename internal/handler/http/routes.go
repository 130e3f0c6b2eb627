package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)
	router.Use(h.withLogging)

	// probed and data routes honor the offline simulation
	router.Group(func(r chi.Router) {
		r.Use(h.withOffline)

		r.Get("/api/health", h.health)

		r.Group(func(r chi.Router) {
			r.Use(h.requireDeviceToken)
			r.With(h.submitHashing).Post("/api/records/submit", h.submit)
			r.Post("/api/backups", h.uploadBackup)
		})
	})

	// admin routes stay reachable while "offline"
	router.Post("/admin/offline", h.setOffline)

	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}

package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all action item routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/action-items", func(r chi.Router) {
		r.Post("/refresh", h.HandleRefresh)
		r.Get("/current", h.HandleCurrent)
		r.Get("/periods", h.HandlePeriods)
		r.Get("/period/{key}", h.HandlePeriod)
		r.Delete("/period/{key}", h.HandleClearPeriod)
		r.Get("/{id}", h.HandleGet)
		r.Post("/{id}/status", h.HandleStatus)
		r.Delete("/", h.HandleClearAll)
	})
}

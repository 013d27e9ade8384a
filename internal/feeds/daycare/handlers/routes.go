package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers daycare report routes on the router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/daycare", func(r chi.Router) {
		r.Post("/reports", h.HandleAddReport)
		r.Get("/current", h.HandleCurrent)
		r.Get("/periods", h.HandlePeriods)
		r.Get("/period/{key}", h.HandlePeriod)
		r.Delete("/period/{key}", h.HandleClearPeriod)
		r.Get("/{id}", h.HandleGet)
		r.Post("/{id}/archive", h.HandleArchive)
		r.Delete("/", h.HandleClearAll)
	})
}

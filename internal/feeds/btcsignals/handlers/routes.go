package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers BTC signal routes on the router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/btc-signals", func(r chi.Router) {
		r.Post("/signals", h.HandleAddSignal)
		r.Get("/current", h.HandleCurrent)
		r.Get("/periods", h.HandlePeriods)
		r.Get("/period/{key}", h.HandlePeriod)
		r.Delete("/period/{key}", h.HandleClearPeriod)
		r.Get("/{id}", h.HandleGet)
		r.Post("/{id}/resolve", h.HandleResolve)
		r.Post("/{id}/status", h.HandleStatus)
		r.Delete("/", h.HandleClearAll)
	})
}

// Package handlers provides HTTP handlers for the BTC signal feed.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/stavrou/homebase/internal/feeds/btcsignals"
	"github.com/stavrou/homebase/internal/feedstore"
	"github.com/stavrou/homebase/internal/server/respond"
)

// Handler handles BTC signal HTTP requests
type Handler struct {
	service *btcsignals.Service
	log     zerolog.Logger
}

// NewHandler creates a new BTC signals handler
func NewHandler(service *btcsignals.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", btcsignals.FeedName).Logger(),
	}
}

// HandleAddSignal handles POST /api/btc-signals/signals
func (h *Handler) HandleAddSignal(w http.ResponseWriter, r *http.Request) {
	var sig btcsignals.Signal
	if err := json.NewDecoder(r.Body).Decode(&sig); err != nil {
		respond.Error(w, h.log, fmt.Errorf("%w: %v", feedstore.ErrInvalidArgument, err))
		return
	}

	id, created, err := h.service.Add(sig)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respond.JSON(w, h.log, status, map[string]interface{}{
		"id":      id,
		"created": created,
	})
}

type resolveRequest struct {
	Direction string `json:"direction"`
}

// HandleResolve handles POST /api/btc-signals/{id}/resolve
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, h.log, fmt.Errorf("%w: %v", feedstore.ErrInvalidArgument, err))
		return
	}

	res, err := h.service.Resolve(chi.URLParam(r, "id"), req.Direction)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	respond.JSON(w, h.log, http.StatusOK, res)
}

// HandleCurrent handles GET /api/btc-signals/current
func (h *Handler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	batch, err := h.service.Current()
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	respond.JSON(w, h.log, http.StatusOK, batch)
}

// HandleGet handles GET /api/btc-signals/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.Get(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	respond.JSON(w, h.log, http.StatusOK, rec)
}

// HandlePeriods handles GET /api/btc-signals/periods
func (h *Handler) HandlePeriods(w http.ResponseWriter, r *http.Request) {
	days, err := h.service.Days(30)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	respond.JSON(w, h.log, http.StatusOK, map[string]interface{}{"periods": days})
}

// HandlePeriod handles GET /api/btc-signals/period/{key}
func (h *Handler) HandlePeriod(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	records, err := h.service.Day(key)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	respond.JSON(w, h.log, http.StatusOK, map[string]interface{}{
		"period_key": key,
		"records":    records,
	})
}

type statusRequest struct {
	Status string `json:"status"`
}

// HandleStatus handles POST /api/btc-signals/{id}/status
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, h.log, fmt.Errorf("%w: %v", feedstore.ErrInvalidArgument, err))
		return
	}

	if err := h.service.Promote(chi.URLParam(r, "id"), feedstore.Status(req.Status)); err != nil {
		respond.Error(w, h.log, err)
		return
	}

	respond.JSON(w, h.log, http.StatusOK, map[string]string{"status": req.Status})
}

// HandleClearPeriod handles DELETE /api/btc-signals/period/{key}
func (h *Handler) HandleClearPeriod(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.service.ClearDay(chi.URLParam(r, "key"))
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	respond.JSON(w, h.log, http.StatusOK, map[string]int{"deleted": deleted})
}

// HandleClearAll handles DELETE /api/btc-signals
func (h *Handler) HandleClearAll(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.service.ClearAll()
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	respond.JSON(w, h.log, http.StatusOK, map[string]int{"deleted": deleted})
}

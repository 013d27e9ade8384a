// Package handlers provides HTTP handlers for the polymarket trade feed.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/stavrou/homebase/internal/feeds/polymarket"
	"github.com/stavrou/homebase/internal/feedstore"
	"github.com/stavrou/homebase/internal/server/respond"
)

// Handler handles polymarket trade HTTP requests
type Handler struct {
	service *polymarket.Service
	log     zerolog.Logger
}

// NewHandler creates a new polymarket handler
func NewHandler(service *polymarket.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", polymarket.FeedName).Logger(),
	}
}

type refreshRequest struct {
	PeriodKey  string             `json:"period_key"`
	Candidates []polymarket.Trade `json:"candidates"`
}

// HandleRefresh handles POST /api/polymarket/refresh
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, h.log, fmt.Errorf("%w: %v", feedstore.ErrInvalidArgument, err))
		return
	}

	ids, err := h.service.Refresh(req.PeriodKey, req.Candidates)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	respond.JSON(w, h.log, http.StatusOK, map[string]interface{}{"ids": ids})
}

type resolveRequest struct {
	Won bool `json:"won"`
}

// HandleResolve handles POST /api/polymarket/{id}/resolve
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, h.log, fmt.Errorf("%w: %v", feedstore.ErrInvalidArgument, err))
		return
	}

	res, err := h.service.Resolve(chi.URLParam(r, "id"), req.Won)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	respond.JSON(w, h.log, http.StatusOK, res)
}

// HandleCurrent handles GET /api/polymarket/current
func (h *Handler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	batch, err := h.service.Current()
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	respond.JSON(w, h.log, http.StatusOK, batch)
}

// HandleGet handles GET /api/polymarket/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.Get(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	respond.JSON(w, h.log, http.StatusOK, rec)
}

// HandlePeriods handles GET /api/polymarket/periods
func (h *Handler) HandlePeriods(w http.ResponseWriter, r *http.Request) {
	days, err := h.service.Days(30)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	respond.JSON(w, h.log, http.StatusOK, map[string]interface{}{"periods": days})
}

// HandlePeriod handles GET /api/polymarket/period/{key}
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

// HandleStatus handles POST /api/polymarket/{id}/status
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

// HandleClearPeriod handles DELETE /api/polymarket/period/{key}
func (h *Handler) HandleClearPeriod(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.service.ClearDay(chi.URLParam(r, "key"))
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	respond.JSON(w, h.log, http.StatusOK, map[string]int{"deleted": deleted})
}

// HandleClearAll handles DELETE /api/polymarket
func (h *Handler) HandleClearAll(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.service.ClearAll()
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	respond.JSON(w, h.log, http.StatusOK, map[string]int{"deleted": deleted})
}

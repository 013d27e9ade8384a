// Package handlers provides HTTP handlers for the action item feed.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/stavrou/homebase/internal/feeds/actionitems"
	"github.com/stavrou/homebase/internal/feedstore"
	"github.com/stavrou/homebase/internal/server/respond"
)

// Handler handles action item HTTP requests
type Handler struct {
	service *actionitems.Service
	log     zerolog.Logger
}

// NewHandler creates a new action items handler
func NewHandler(service *actionitems.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", actionitems.FeedName).Logger(),
	}
}

type refreshRequest struct {
	PeriodKey  string             `json:"period_key"`
	Candidates []actionitems.Item `json:"candidates"`
}

// HandleRefresh handles POST /api/action-items/refresh
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

// HandleCurrent handles GET /api/action-items/current
func (h *Handler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	batch, err := h.service.Current()
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	respond.JSON(w, h.log, http.StatusOK, batch)
}

// HandleGet handles GET /api/action-items/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.Get(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	respond.JSON(w, h.log, http.StatusOK, rec)
}

// HandlePeriods handles GET /api/action-items/periods
func (h *Handler) HandlePeriods(w http.ResponseWriter, r *http.Request) {
	days, err := h.service.Days(30)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	respond.JSON(w, h.log, http.StatusOK, map[string]interface{}{"periods": days})
}

// HandlePeriod handles GET /api/action-items/period/{key}
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

// HandleStatus handles POST /api/action-items/{id}/status
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

// HandleClearPeriod handles DELETE /api/action-items/period/{key}
func (h *Handler) HandleClearPeriod(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.service.ClearDay(chi.URLParam(r, "key"))
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	respond.JSON(w, h.log, http.StatusOK, map[string]int{"deleted": deleted})
}

// HandleClearAll handles DELETE /api/action-items
func (h *Handler) HandleClearAll(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.service.ClearAll()
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	respond.JSON(w, h.log, http.StatusOK, map[string]int{"deleted": deleted})
}

// Package handlers provides HTTP handlers for the daycare report feed.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/stavrou/homebase/internal/feeds/daycare"
	"github.com/stavrou/homebase/internal/feedstore"
	"github.com/stavrou/homebase/internal/server/respond"
)

// Handler handles daycare report HTTP requests
type Handler struct {
	service *daycare.Service
	log     zerolog.Logger
}

// NewHandler creates a new daycare handler
func NewHandler(service *daycare.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", daycare.FeedName).Logger(),
	}
}

// HandleAddReport handles POST /api/daycare/reports
func (h *Handler) HandleAddReport(w http.ResponseWriter, r *http.Request) {
	var report daycare.Report
	if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
		respond.Error(w, h.log, fmt.Errorf("%w: %v", feedstore.ErrInvalidArgument, err))
		return
	}

	id, created, err := h.service.Add(report)
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

// HandleCurrent handles GET /api/daycare/current
func (h *Handler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	batch, err := h.service.Current()
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	respond.JSON(w, h.log, http.StatusOK, batch)
}

// HandleGet handles GET /api/daycare/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.Get(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	respond.JSON(w, h.log, http.StatusOK, rec)
}

// HandlePeriods handles GET /api/daycare/periods
func (h *Handler) HandlePeriods(w http.ResponseWriter, r *http.Request) {
	days, err := h.service.Days(30)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	respond.JSON(w, h.log, http.StatusOK, map[string]interface{}{"periods": days})
}

// HandlePeriod handles GET /api/daycare/period/{key}
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

// HandleArchive handles POST /api/daycare/{id}/archive
func (h *Handler) HandleArchive(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Archive(chi.URLParam(r, "id")); err != nil {
		respond.Error(w, h.log, err)
		return
	}

	respond.JSON(w, h.log, http.StatusOK, map[string]string{"status": string(feedstore.StatusArchived)})
}

// HandleClearPeriod handles DELETE /api/daycare/period/{key}
func (h *Handler) HandleClearPeriod(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.service.ClearDay(chi.URLParam(r, "key"))
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	respond.JSON(w, h.log, http.StatusOK, map[string]int{"deleted": deleted})
}

// HandleClearAll handles DELETE /api/daycare
func (h *Handler) HandleClearAll(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.service.ClearAll()
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	respond.JSON(w, h.log, http.StatusOK, map[string]int{"deleted": deleted})
}

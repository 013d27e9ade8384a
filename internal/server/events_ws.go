package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"

	"github.com/stavrou/homebase/internal/events"
)

// EventsHandler streams bus events to websocket clients as JSON frames
type EventsHandler struct {
	bus *events.Bus
	log zerolog.Logger
}

// NewEventsHandler creates the events websocket handler
func NewEventsHandler(bus *events.Bus, log zerolog.Logger) *EventsHandler {
	return &EventsHandler{
		bus: bus,
		log: log.With().Str("handler", "events_ws").Logger(),
	}
}

// ServeHTTP handles GET /api/events/ws
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Single-operator service behind a trusted reverse proxy
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("Websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	ch, unsubscribe := h.bus.Subscribe(64)
	defer unsubscribe()

	h.log.Info().Msg("Client connected to event stream")

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case event, ok := <-ch:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "bus closed")
				return
			}

			data, err := json.Marshal(event)
			if err != nil {
				h.log.Error().Err(err).Str("type", string(event.Type)).Msg("Failed to marshal event")
				continue
			}

			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				status := websocket.CloseStatus(err)
				if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
					h.log.Debug().Err(err).Msg("Websocket write failed")
				}
				return
			}
		}
	}
}

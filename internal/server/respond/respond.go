// Package respond provides shared JSON response helpers for HTTP handlers.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/stavrou/homebase/internal/feedstore"
)

// JSON writes a JSON response with the given status code
func JSON(w http.ResponseWriter, log zerolog.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// errorBody is the uniform error response shape
type errorBody struct {
	Error string `json:"error"`
}

// Error maps store errors to HTTP status codes and writes a JSON error body:
// NotFound -> 404, AlreadyResolved -> 409, InvalidArgument (including invalid
// transitions) -> 400, anything else -> 500.
func Error(w http.ResponseWriter, log zerolog.Logger, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, feedstore.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, feedstore.ErrAlreadyResolved):
		status = http.StatusConflict
	case errors.Is(err, feedstore.ErrInvalidArgument):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("Request failed")
	} else {
		log.Debug().Err(err).Int("status", status).Msg("Request rejected")
	}

	JSON(w, log, status, errorBody{Error: err.Error()})
}

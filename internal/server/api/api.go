// Package api provides the JSON HTTP handlers for soundwave.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ayusman/soundwave/internal/app"
	"github.com/ayusman/soundwave/internal/gesture"
	"github.com/ayusman/soundwave/internal/store"
)

// Controller is the application surface the handlers drive. *app.App
// implements it.
type Controller interface {
	Status() app.Status
	SetEnabled(enabled bool)
	SetVolume(ctx context.Context, v float64) (float64, error)
	EngineConfig() gesture.Config
	Configure(cfg gesture.Config) error
	TogglePlayPause(ctx context.Context) (bool, error)
	Seek(ctx context.Context, pos time.Duration) error
	Subscribe() (<-chan gesture.Result, func())
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeErr maps known sentinel errors to status codes.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, gesture.ErrInvalidConfig):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
}

// decode reads a JSON body into v, rejecting unknown fields.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

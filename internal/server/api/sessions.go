package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ayusman/soundwave/internal/store"
)

const defaultListLimit = 50

var errInvalidLimit = errors.New("limit must be a non-negative integer")

// SessionsHandler serves /api/sessions and its sub-resources.
type SessionsHandler struct {
	store *store.Store
}

// NewSessionsHandler creates a SessionsHandler.
func NewSessionsHandler(s *store.Store) *SessionsHandler {
	return &SessionsHandler{store: s}
}

func (h *SessionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// /api/sessions, /api/sessions/{id} or /api/sessions/{id}/events
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/sessions"), "/")
	parts := strings.Split(path, "/")

	switch {
	case path == "":
		h.handleList(w, r)
	case len(parts) == 1:
		h.handleSession(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "events":
		h.handleEvents(w, r, parts[0])
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (h *SessionsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	limit, err := limitParam(r, defaultListLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sessions, err := h.store.Sessions().List(limit)
	if err != nil {
		writeErr(w, err)
		return
	}
	if sessions == nil {
		sessions = []*store.Session{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (h *SessionsHandler) handleSession(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		sess, err := h.store.Sessions().Get(id)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sess)
	case http.MethodDelete:
		if err := h.store.Sessions().Delete(id); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

func (h *SessionsHandler) handleEvents(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	if _, err := h.store.Sessions().Get(id); err != nil {
		writeErr(w, err)
		return
	}

	limit, err := limitParam(r, 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	events, err := h.store.Events().ListBySession(id, limit)
	if err != nil {
		writeErr(w, err)
		return
	}
	if events == nil {
		events = []*store.VolumeEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

// EventsHandler serves GET /api/events, the most recent events across sessions.
type EventsHandler struct {
	store *store.Store
}

// NewEventsHandler creates an EventsHandler.
func NewEventsHandler(s *store.Store) *EventsHandler {
	return &EventsHandler{store: s}
}

func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	limit, err := limitParam(r, defaultListLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	events, err := h.store.Events().Recent(limit)
	if err != nil {
		writeErr(w, err)
		return
	}
	if events == nil {
		events = []*store.VolumeEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

// limitParam parses ?limit=, returning def when absent. Zero means no limit.
func limitParam(r *http.Request, def int) (int, error) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errInvalidLimit
	}
	return n, nil
}

package api

import (
	"net/http"
	"time"

	"github.com/ayusman/soundwave/internal/log"
)

// StatusHandler serves GET /api/status.
type StatusHandler struct {
	ctl Controller
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(ctl Controller) *StatusHandler {
	return &StatusHandler{ctl: ctl}
}

func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, h.ctl.Status())
}

// VolumeHandler serves GET and PUT /api/volume.
type VolumeHandler struct {
	ctl Controller
}

// NewVolumeHandler creates a VolumeHandler.
func NewVolumeHandler(ctl Controller) *VolumeHandler {
	return &VolumeHandler{ctl: ctl}
}

type volumeRequest struct {
	Volume *float64 `json:"volume"`
}

type volumeResponse struct {
	Volume float64 `json:"volume"`
}

func (h *VolumeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, volumeResponse{Volume: h.ctl.Status().Volume})
	case http.MethodPut:
		var req volumeRequest
		if err := decode(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		if req.Volume == nil {
			writeError(w, http.StatusBadRequest, "volume is required")
			return
		}

		level, err := h.ctl.SetVolume(r.Context(), *req.Volume)
		if err != nil {
			// The engine already holds the new level; only the sink failed.
			log.Warn("manual volume not applied to sink", "volume", level, "error", err)
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, volumeResponse{Volume: level})
	default:
		methodNotAllowed(w)
	}
}

// PlaybackHandler serves POST /api/playback.
type PlaybackHandler struct {
	ctl Controller
}

// NewPlaybackHandler creates a PlaybackHandler.
func NewPlaybackHandler(ctl Controller) *PlaybackHandler {
	return &PlaybackHandler{ctl: ctl}
}

type playbackRequest struct {
	Action  string  `json:"action"` // "toggle" or "seek"
	Seconds float64 `json:"seconds,omitempty"`
}

type playbackResponse struct {
	Playing bool `json:"playing"`
}

func (h *PlaybackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req playbackRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	switch req.Action {
	case "toggle":
		playing, err := h.ctl.TogglePlayPause(r.Context())
		if err != nil {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, playbackResponse{Playing: playing})
	case "seek":
		if req.Seconds < 0 {
			writeError(w, http.StatusBadRequest, "seconds must not be negative")
			return
		}
		pos := time.Duration(req.Seconds * float64(time.Second))
		if err := h.ctl.Seek(r.Context(), pos); err != nil {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, playbackResponse{Playing: h.ctl.Status().Playing})
	default:
		writeError(w, http.StatusBadRequest, "action must be toggle or seek")
	}
}

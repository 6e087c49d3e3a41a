package api

import (
	"net/http"
	"time"

	"github.com/ayusman/soundwave/internal/gesture"
)

// SettingsHandler serves GET and PUT /api/settings.
type SettingsHandler struct {
	ctl Controller
}

// NewSettingsHandler creates a SettingsHandler.
func NewSettingsHandler(ctl Controller) *SettingsHandler {
	return &SettingsHandler{ctl: ctl}
}

// settingsView is the wire form of the engine settings. Intervals travel as
// milliseconds.
type settingsView struct {
	Enabled              bool    `json:"enabled"`
	Mode                 string  `json:"mode"`
	MaxAngle             float64 `json:"max_angle"`
	MaxSpeed             float64 `json:"max_speed"`
	Deadband             float64 `json:"deadband"`
	ContinuousIntervalMS int64   `json:"continuous_interval_ms"`
	DirectionThreshold   float64 `json:"direction_threshold"`
	Step                 float64 `json:"step"`
	DiscreteIntervalMS   int64   `json:"discrete_interval_ms"`
}

// settingsRequest is a partial update; absent fields keep their value.
type settingsRequest struct {
	Enabled              *bool    `json:"enabled"`
	Mode                 *string  `json:"mode"`
	MaxAngle             *float64 `json:"max_angle"`
	MaxSpeed             *float64 `json:"max_speed"`
	Deadband             *float64 `json:"deadband"`
	ContinuousIntervalMS *int64   `json:"continuous_interval_ms"`
	DirectionThreshold   *float64 `json:"direction_threshold"`
	Step                 *float64 `json:"step"`
	DiscreteIntervalMS   *int64   `json:"discrete_interval_ms"`
}

func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.view())
	case http.MethodPut:
		h.update(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (h *SettingsHandler) view() settingsView {
	cfg := h.ctl.EngineConfig()
	return settingsView{
		Enabled:              h.ctl.Status().Enabled,
		Mode:                 string(cfg.Mode),
		MaxAngle:             cfg.MaxAngle,
		MaxSpeed:             cfg.MaxSpeed,
		Deadband:             cfg.Deadband,
		ContinuousIntervalMS: cfg.ContinuousInterval.Milliseconds(),
		DirectionThreshold:   cfg.DirectionThreshold,
		Step:                 cfg.Step,
		DiscreteIntervalMS:   cfg.DiscreteInterval.Milliseconds(),
	}
}

func (h *SettingsHandler) update(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	cfg := h.ctl.EngineConfig()
	if req.Mode != nil {
		mode, err := gesture.ParseMode(*req.Mode)
		if err != nil {
			writeErr(w, err)
			return
		}
		cfg.Mode = mode
	}
	setFloat(&cfg.MaxAngle, req.MaxAngle)
	setFloat(&cfg.MaxSpeed, req.MaxSpeed)
	setFloat(&cfg.Deadband, req.Deadband)
	setFloat(&cfg.DirectionThreshold, req.DirectionThreshold)
	setFloat(&cfg.Step, req.Step)
	setMillis(&cfg.ContinuousInterval, req.ContinuousIntervalMS)
	setMillis(&cfg.DiscreteInterval, req.DiscreteIntervalMS)

	if err := h.ctl.Configure(cfg); err != nil {
		writeErr(w, err)
		return
	}
	if req.Enabled != nil {
		h.ctl.SetEnabled(*req.Enabled)
	}

	writeJSON(w, http.StatusOK, h.view())
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setMillis(dst *time.Duration, ms *int64) {
	if ms != nil {
		*dst = time.Duration(*ms) * time.Millisecond
	}
}

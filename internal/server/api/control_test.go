package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ayusman/soundwave/internal/app"
	"github.com/ayusman/soundwave/internal/gesture"
)

// fakeController is an in-memory Controller.
type fakeController struct {
	mu       sync.Mutex
	engine   *gesture.Engine
	enabled  bool
	playing  bool
	seekedTo time.Duration
	sinkErr  error
}

func newFakeController(t *testing.T) *fakeController {
	t.Helper()
	cfg := gesture.DefaultConfig()
	cfg.InitialVolume = 50
	e, err := gesture.New(cfg)
	if err != nil {
		t.Fatalf("gesture.New() error = %v", err)
	}
	return &fakeController{engine: e, enabled: true}
}

func (f *fakeController) Status() app.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return app.Status{Result: f.engine.Last(), Enabled: f.enabled, Playing: f.playing}
}

func (f *fakeController) SetEnabled(enabled bool) {
	f.mu.Lock()
	f.enabled = enabled
	f.mu.Unlock()
}

func (f *fakeController) SetVolume(_ context.Context, v float64) (float64, error) {
	level := f.engine.SetVolume(v)
	return level, f.sinkErr
}

func (f *fakeController) EngineConfig() gesture.Config { return f.engine.Config() }

func (f *fakeController) Configure(cfg gesture.Config) error { return f.engine.Configure(cfg) }

func (f *fakeController) TogglePlayPause(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sinkErr != nil {
		return f.playing, f.sinkErr
	}
	f.playing = !f.playing
	return f.playing, nil
}

func (f *fakeController) Seek(_ context.Context, pos time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seekedTo = pos
	return f.sinkErr
}

func (f *fakeController) Subscribe() (<-chan gesture.Result, func()) {
	ch := make(chan gesture.Result)
	return ch, func() {}
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStatusHandler(t *testing.T) {
	ctl := newFakeController(t)
	h := NewStatusHandler(ctl)

	rec := do(t, h, http.MethodGet, "/api/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["status"] != string(gesture.StatusNoHandDetected) {
		t.Errorf("expected NO_HAND_DETECTED before any tick, got %v", body["status"])
	}
	if body["volume"] != 50.0 || body["enabled"] != true {
		t.Errorf("unexpected status body %v", body)
	}

	if rec := do(t, h, http.MethodPost, "/api/status", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 for POST, got %d", rec.Code)
	}
}

func TestVolumeHandler(t *testing.T) {
	ctl := newFakeController(t)
	h := NewVolumeHandler(ctl)

	tests := []struct {
		name       string
		method     string
		body       string
		wantStatus int
		wantVolume float64
	}{
		{"get", http.MethodGet, "", http.StatusOK, 50},
		{"set", http.MethodPut, `{"volume": 30}`, http.StatusOK, 30},
		{"clamp high", http.MethodPut, `{"volume": 250}`, http.StatusOK, 100},
		{"clamp low", http.MethodPut, `{"volume": -4}`, http.StatusOK, 0},
		{"missing volume", http.MethodPut, `{}`, http.StatusBadRequest, 0},
		{"bad json", http.MethodPut, `{"volume": "loud"}`, http.StatusBadRequest, 0},
		{"unknown field", http.MethodPut, `{"level": 3}`, http.StatusBadRequest, 0},
		{"wrong method", http.MethodDelete, "", http.StatusMethodNotAllowed, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, "/api/volume", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var resp volumeResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Volume != tt.wantVolume {
				t.Errorf("expected volume %v, got %v", tt.wantVolume, resp.Volume)
			}
		})
	}
}

func TestVolumeHandler_SinkFailure(t *testing.T) {
	ctl := newFakeController(t)
	ctl.sinkErr = errors.New("osascript failed")

	rec := do(t, NewVolumeHandler(ctl), http.MethodPut, "/api/volume", `{"volume": 10}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}

	var resp errorResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Error == "" {
		t.Error("expected error message")
	}
	if ctl.engine.Volume() != 10 {
		t.Errorf("expected engine volume to be set anyway, got %v", ctl.engine.Volume())
	}
}

func TestPlaybackHandler(t *testing.T) {
	ctl := newFakeController(t)
	h := NewPlaybackHandler(ctl)

	rec := do(t, h, http.MethodPost, "/api/playback", `{"action": "toggle"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp playbackResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if !resp.Playing {
		t.Error("expected playing after toggle")
	}

	rec = do(t, h, http.MethodPost, "/api/playback", `{"action": "seek", "seconds": 12.5}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for seek, got %d", rec.Code)
	}
	if ctl.seekedTo != 12500*time.Millisecond {
		t.Errorf("expected seek to 12.5s, got %v", ctl.seekedTo)
	}

	if rec := do(t, h, http.MethodPost, "/api/playback", `{"action": "seek", "seconds": -1}`); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for negative seek, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/playback", `{"action": "rewind"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown action, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/playback", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 for GET, got %d", rec.Code)
	}
}

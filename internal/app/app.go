// Package app wires the camera, hand detection, the control engine, the
// audio sink and persistence into the running soundwave pipeline.
package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ayusman/soundwave/internal/audio"
	"github.com/ayusman/soundwave/internal/capture"
	"github.com/ayusman/soundwave/internal/detector"
	"github.com/ayusman/soundwave/internal/gesture"
	"github.com/ayusman/soundwave/internal/log"
	"github.com/ayusman/soundwave/internal/recording"
	"github.com/ayusman/soundwave/internal/store"
)

// Settings keys.
const (
	SettingEngine  = "engine"
	SettingEnabled = "enabled"
	SettingVolume  = "volume"
)

// Options configures an App. Camera, Detector and Sink are required.
type Options struct {
	Camera   capture.Camera
	Detector detector.Detector
	Sink     audio.Sink
	Store    *store.Store // optional

	Engine          gesture.Config
	MotionThreshold float64
	IdleFPS         int
	ActiveFPS       int
	IdleTimeout     time.Duration

	Recorder *recording.Writer    // optional
	Preview  *capture.LatestFrame // optional
}

// Status is a snapshot of the application state.
type Status struct {
	gesture.Result
	Enabled   bool   `json:"enabled"`
	Running   bool   `json:"running"`
	Active    bool   `json:"active"`
	Playing   bool   `json:"playing"`
	SessionID string `json:"session_id,omitempty"`
}

// App orchestrates the control pipeline.
type App struct {
	opts   Options
	engine *gesture.Engine
	motion *capture.MotionDetector
	gate   *capture.Gate
	hub    *Hub

	mu      sync.RWMutex
	enabled bool
	playing bool
	session *store.Session
	stopCh  chan struct{}
	done    chan struct{}
}

// New validates opts and builds an App. Detection starts enabled.
func New(opts Options) (*App, error) {
	if opts.Camera == nil || opts.Detector == nil || opts.Sink == nil {
		return nil, errors.New("app: camera, detector and sink are required")
	}
	if opts.IdleFPS <= 0 {
		opts.IdleFPS = capture.DefaultIdleFPS
	}
	if opts.ActiveFPS <= 0 {
		opts.ActiveFPS = capture.DefaultActiveFPS
	}
	if opts.MotionThreshold <= 0 {
		opts.MotionThreshold = 1.0
	}

	engine, err := gesture.New(opts.Engine)
	if err != nil {
		return nil, err
	}

	motion := capture.NewMotionDetector(opts.MotionThreshold)
	return &App{
		opts:    opts,
		engine:  engine,
		motion:  motion,
		gate:    capture.NewGate(motion, opts.IdleTimeout),
		hub:     NewHub(),
		enabled: true,
	}, nil
}

// LoadSettings applies persisted engine settings, the enabled flag and the
// last volume. Missing keys are skipped.
func (a *App) LoadSettings() error {
	if a.opts.Store == nil {
		return nil
	}
	settings := a.opts.Store.Settings()

	var cfg gesture.Config
	switch err := settings.GetJSON(SettingEngine, &cfg); {
	case err == nil:
		if err := a.engine.Configure(cfg); err != nil {
			log.Warn("ignoring persisted engine settings", "error", err)
		}
	case !errors.Is(err, store.ErrNotFound):
		return err
	}

	if v, err := settings.Get(SettingEnabled); err == nil {
		if b, perr := strconv.ParseBool(v); perr == nil {
			a.SetEnabled(b)
		}
	}
	if v, err := settings.Get(SettingVolume); err == nil {
		if f, perr := strconv.ParseFloat(v, 64); perr == nil {
			a.engine.SetVolume(f)
		}
	}

	log.Info("settings loaded", "mode", a.engine.Config().Mode, "volume", a.engine.Volume())
	return nil
}

// Engine returns the control engine.
func (a *App) Engine() *gesture.Engine {
	return a.engine
}

// EngineConfig returns the active engine configuration.
func (a *App) EngineConfig() gesture.Config {
	return a.engine.Config()
}

// Subscribe registers for tick results. See Hub.Subscribe.
func (a *App) Subscribe() (<-chan gesture.Result, func()) {
	return a.hub.Subscribe()
}

// Preview returns the latest-frame buffer, which may be nil.
func (a *App) Preview() *capture.LatestFrame {
	return a.opts.Preview
}

// SetEnabled turns gesture control on or off and persists the choice.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	a.enabled = enabled
	a.mu.Unlock()

	if a.opts.Store != nil {
		if err := a.opts.Store.Settings().Set(SettingEnabled, strconv.FormatBool(enabled)); err != nil {
			log.Warn("persist enabled flag failed", "error", err)
		}
	}
	log.Info("gesture control toggled", "enabled", enabled)
}

// IsEnabled reports whether gesture control is on.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// Running reports whether the pipeline goroutine is active.
func (a *App) Running() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stopCh != nil
}

// Status returns the last tick result with application flags.
func (a *App) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()

	st := Status{
		Result:  a.engine.Last(),
		Enabled: a.enabled,
		Running: a.stopCh != nil,
		Active:  a.gate.Active(),
		Playing: a.playing,
	}
	if a.session != nil {
		st.SessionID = a.session.ID
	}
	return st
}

// Configure validates and applies engine settings and persists them.
func (a *App) Configure(cfg gesture.Config) error {
	if err := a.engine.Configure(cfg); err != nil {
		return err
	}
	if a.opts.Store != nil {
		if err := a.opts.Store.Settings().SetJSON(SettingEngine, cfg); err != nil {
			return fmt.Errorf("persist engine settings: %w", err)
		}
	}
	log.Info("engine configured", "mode", cfg.Mode)
	return nil
}

// SetVolume sets the volume directly, clamped to [0, 100], and applies it
// to the sink immediately.
func (a *App) SetVolume(ctx context.Context, v float64) (float64, error) {
	before := a.engine.Volume()
	level := a.engine.SetVolume(v)

	a.persistVolume(level)
	a.recordEvent(gesture.Result{
		Mode:   a.engine.Config().Mode,
		Volume: level,
		Delta:  level - before,
		At:     time.Now(),
	}, store.SourceAPI)

	err := a.opts.Sink.SetVolume(ctx, level)
	a.hub.Publish(a.engine.Last())
	if err != nil {
		return level, fmt.Errorf("apply volume: %w", err)
	}
	return level, nil
}

// TogglePlayPause flips playback on the sink and returns the new state.
func (a *App) TogglePlayPause(ctx context.Context) (bool, error) {
	a.mu.Lock()
	playing := !a.playing
	a.mu.Unlock()

	var err error
	if playing {
		err = a.opts.Sink.Play(ctx)
	} else {
		err = a.opts.Sink.Pause(ctx)
	}
	if err != nil {
		return !playing, err
	}

	a.mu.Lock()
	a.playing = playing
	a.mu.Unlock()
	return playing, nil
}

// Seek moves playback on the sink.
func (a *App) Seek(ctx context.Context, pos time.Duration) error {
	return a.opts.Sink.Seek(ctx, pos)
}

// Start opens the camera, opens a session row and starts the pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.opts.Camera.Open(); err != nil {
		return err
	}
	a.opts.Camera.SetFPS(a.opts.IdleFPS)
	a.gate.Reset()

	if a.opts.Store != nil {
		sess, err := a.opts.Store.Sessions().Create(string(a.engine.Config().Mode), time.Now())
		if err != nil {
			log.Warn("open session failed", "error", err)
		} else {
			a.session = sess
		}
	}

	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	go a.runPipeline(a.stopCh, a.done)

	log.Info("pipeline started", "idle_fps", a.opts.IdleFPS, "active_fps", a.opts.ActiveFPS)
	return nil
}

// Stop halts the pipeline, closes the session and releases the camera.
// The detector and sink stay usable.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, done := a.stopCh, a.done
	a.stopCh, a.done = nil, nil
	sess := a.session
	a.session = nil
	a.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-done

	if err := a.opts.Camera.Close(); err != nil {
		log.Warn("close camera failed", "error", err)
	}
	if sess != nil && a.opts.Store != nil {
		if err := a.opts.Store.Sessions().End(sess.ID, time.Now()); err != nil {
			log.Warn("close session failed", "session", sess.ID, "error", err)
		}
	}
	a.persistVolume(a.engine.Volume())
	if a.opts.Recorder != nil {
		if err := a.opts.Recorder.Flush(); err != nil {
			log.Warn("flush recording failed", "error", err)
		}
	}

	log.Info("pipeline stopped")
}

// Close stops the pipeline and releases every resource the App holds.
func (a *App) Close() error {
	a.Stop()
	a.hub.Close()
	a.motion.Close()

	var errs []error
	if err := a.opts.Detector.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close detector: %w", err))
	}
	if a.opts.Recorder != nil {
		if err := a.opts.Recorder.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close recording: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (a *App) sessionID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.session == nil {
		return ""
	}
	return a.session.ID
}

func (a *App) persistVolume(level float64) {
	if a.opts.Store == nil {
		return
	}
	if err := a.opts.Store.Settings().Set(SettingVolume, strconv.FormatFloat(level, 'f', -1, 64)); err != nil {
		log.Warn("persist volume failed", "error", err)
	}
}

func (a *App) recordEvent(r gesture.Result, source string) {
	if a.opts.Store == nil {
		return
	}
	err := a.opts.Store.Events().Create(&store.VolumeEvent{
		SessionID: a.sessionID(),
		Volume:    r.Volume,
		Delta:     r.Delta,
		Mode:      string(r.Mode),
		Direction: string(r.Direction),
		Source:    source,
		CreatedAt: r.At,
	})
	if err != nil {
		log.Warn("persist volume event failed", "error", err)
	}
}

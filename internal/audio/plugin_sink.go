package audio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ayusman/soundwave/internal/log"
	"github.com/ayusman/soundwave/internal/plugin"
)

// ActionSetVolume is the plugin action a PluginSink cannot work without.
const ActionSetVolume = "set-volume"

// DefaultWriteInterval is the minimum spacing between volume writes to a plugin.
const DefaultWriteInterval = 100 * time.Millisecond

// PluginSink forwards commands to a system-control style plugin.
//
// Volume writes are coalesced: SetVolume only records the latest level and
// Run delivers it at most once per write interval. Transport commands are
// executed synchronously.
type PluginSink struct {
	exec    *plugin.Executor
	plug    *plugin.Plugin
	limiter *rate.Limiter

	mu      sync.Mutex
	pending *float64
	notify  chan struct{}
}

// NewPluginSink returns a sink bound to plug. A non-positive interval
// selects DefaultWriteInterval.
func NewPluginSink(exec *plugin.Executor, plug *plugin.Plugin, interval time.Duration) (*PluginSink, error) {
	if !plug.Manifest.Supports(ActionSetVolume) {
		return nil, fmt.Errorf("plugin %s: %w: %s", plug.Manifest.Name, ErrUnsupported, ActionSetVolume)
	}
	if interval <= 0 {
		interval = DefaultWriteInterval
	}
	return &PluginSink{
		exec:    exec,
		plug:    plug,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		notify:  make(chan struct{}, 1),
	}, nil
}

// SetVolume queues level for delivery by Run.
func (s *PluginSink) SetVolume(_ context.Context, level float64) error {
	s.mu.Lock()
	s.pending = &level
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
	return nil
}

// Run delivers queued volume levels until ctx is done, then flushes any
// remaining level.
func (s *PluginSink) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			if err := s.Flush(flushCtx); err != nil {
				log.Warn("final volume flush failed", "error", err)
			}
			cancel()
			return
		case <-s.notify:
		}

		if err := s.limiter.Wait(ctx); err != nil {
			continue
		}
		if err := s.Flush(ctx); err != nil {
			log.Warn("volume write failed", "plugin", s.plug.Manifest.Name, "error", err)
		}
	}
}

// Flush writes the pending level immediately, if any.
func (s *PluginSink) Flush(ctx context.Context) error {
	s.mu.Lock()
	level := s.pending
	s.pending = nil
	s.mu.Unlock()

	if level == nil {
		return nil
	}
	return s.call(ctx, ActionSetVolume, map[string]float64{"level": *level})
}

func (s *PluginSink) Play(ctx context.Context) error {
	return s.call(ctx, "play", nil)
}

func (s *PluginSink) Pause(ctx context.Context) error {
	return s.call(ctx, "pause", nil)
}

func (s *PluginSink) Seek(ctx context.Context, pos time.Duration) error {
	if pos < 0 {
		return errors.New("seek position must not be negative")
	}
	return s.call(ctx, "seek", map[string]float64{"seconds": pos.Seconds()})
}

func (s *PluginSink) call(ctx context.Context, action string, params any) error {
	if !s.plug.Manifest.Supports(action) {
		return fmt.Errorf("plugin %s: %w: %s", s.plug.Manifest.Name, ErrUnsupported, action)
	}

	req := &plugin.Request{Action: action, Source: "soundwave"}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("marshal params: %w", err)
		}
		req.Params = raw
	}

	resp, err := s.exec.Execute(ctx, s.plug, req)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("plugin %s %s: %s", s.plug.Manifest.Name, action, resp.Error)
	}
	log.Debug("plugin call", "plugin", s.plug.Manifest.Name, "action", action)
	return nil
}

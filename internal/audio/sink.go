// Package audio applies engine output to a playback target.
package audio

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrUnsupported is returned when a sink cannot perform an operation.
var ErrUnsupported = errors.New("operation not supported by sink")

// Sink receives volume levels and transport commands. Levels are in [0, 100].
type Sink interface {
	SetVolume(ctx context.Context, level float64) error
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Seek(ctx context.Context, pos time.Duration) error
}

// MemorySink keeps the last applied values in memory. It backs the
// headless "memory" sink and tests.
type MemorySink struct {
	mu       sync.Mutex
	volume   float64
	playing  bool
	position time.Duration
	levels   []float64
}

// NewMemorySink returns a paused sink at volume 0.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) SetVolume(_ context.Context, level float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = level
	s.levels = append(s.levels, level)
	return nil
}

func (s *MemorySink) Play(context.Context) error {
	s.mu.Lock()
	s.playing = true
	s.mu.Unlock()
	return nil
}

func (s *MemorySink) Pause(context.Context) error {
	s.mu.Lock()
	s.playing = false
	s.mu.Unlock()
	return nil
}

func (s *MemorySink) Seek(_ context.Context, pos time.Duration) error {
	if pos < 0 {
		return errors.New("seek position must not be negative")
	}
	s.mu.Lock()
	s.position = pos
	s.mu.Unlock()
	return nil
}

// Volume returns the last level set.
func (s *MemorySink) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// Playing reports whether Play was called more recently than Pause.
func (s *MemorySink) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Position returns the last seek position.
func (s *MemorySink) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

// Levels returns every level set, oldest first.
func (s *MemorySink) Levels() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]float64, len(s.levels))
	copy(out, s.levels)
	return out
}

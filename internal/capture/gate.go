package capture

import (
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/soundwave/internal/log"
)

// DefaultIdleTimeout is how long the gate stays active after the last motion.
const DefaultIdleTimeout = 2 * time.Second

// Gate switches between idle and active based on motion. Frames are only
// sent to hand detection while the gate is active.
type Gate struct {
	mu          sync.Mutex
	motion      *MotionDetector
	idleTimeout time.Duration
	active      bool
	lastMotion  time.Time
}

// NewGate wraps motion. A non-positive idleTimeout selects DefaultIdleTimeout.
func NewGate(motion *MotionDetector, idleTimeout time.Duration) *Gate {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &Gate{motion: motion, idleTimeout: idleTimeout}
}

// Observe feeds frame to the motion detector and returns the gate state
// after it, plus whether that state changed. A frame the detector cannot
// process counts as no motion.
func (g *Gate) Observe(frame *gocv.Mat, now time.Time) (active, changed bool) {
	moved, score, err := g.motion.Detect(frame)
	if err != nil {
		log.Debug("motion detection failed", "error", err)
	} else if moved {
		log.Debug("motion", "changed_pct", score)
	}
	return g.update(moved, now)
}

func (g *Gate) update(moved bool, now time.Time) (active, changed bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	prev := g.active
	switch {
	case moved:
		g.lastMotion = now
		g.active = true
	case g.active && now.Sub(g.lastMotion) > g.idleTimeout:
		g.active = false
	}
	return g.active, g.active != prev
}

// Active reports the current state.
func (g *Gate) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

// Force sets the state directly, e.g. to keep detection running while a
// hand is in view even if the scene is still.
func (g *Gate) Force(active bool, now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.active = active
	if active {
		g.lastMotion = now
	}
}

// Reset returns to idle and drops the motion baseline.
func (g *Gate) Reset() {
	g.mu.Lock()
	g.active = false
	g.lastMotion = time.Time{}
	g.mu.Unlock()
	g.motion.Reset()
}

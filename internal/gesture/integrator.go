package gesture

import (
	"math"
	"time"
)

// Volume bounds.
const (
	MinVolume = 0.0
	MaxVolume = 100.0
)

// Continuous mode integrator defaults.
const (
	DefaultDeadband           = 0.05
	DefaultContinuousInterval = 50 * time.Millisecond
)

// ControlState is the engine's mutable state. Volume only changes on an
// accepted update and is always within [MinVolume, MaxVolume].
type ControlState struct {
	Volume     float64   `json:"volume"`
	LastUpdate time.Time `json:"last_update"`
}

// NewControlState returns a state at the given volume that has never been
// updated, so the first qualifying tick is always accepted.
func NewControlState(volume float64) ControlState {
	return ControlState{Volume: ClampVolume(volume)}
}

// ClampVolume bounds v to [MinVolume, MaxVolume].
func ClampVolume(v float64) float64 {
	return math.Max(MinVolume, math.Min(MaxVolume, v))
}

// throttleOpen reports whether strictly more than interval has elapsed since
// last. A clock that moved backwards yields a negative delta and keeps the
// throttle closed.
func throttleOpen(last, now time.Time, interval time.Duration) bool {
	if last.IsZero() {
		return true
	}
	return now.Sub(last) > interval
}

// Integrator applies a signed speed to the volume subject to a deadband and
// a minimum interval between accepted updates.
type Integrator struct {
	Deadband float64
	Interval time.Duration
}

// DefaultIntegrator returns an Integrator with the default constants.
func DefaultIntegrator() Integrator {
	return Integrator{Deadband: DefaultDeadband, Interval: DefaultContinuousInterval}
}

// Apply integrates speed into st if it clears the deadband and the throttle.
// It reports whether st was updated. A NaN speed never clears the deadband.
func (in Integrator) Apply(st *ControlState, speed float64, now time.Time) bool {
	if !(math.Abs(speed) > in.Deadband) {
		return false
	}
	if !throttleOpen(st.LastUpdate, now, in.Interval) {
		return false
	}

	st.Volume = ClampVolume(st.Volume + speed)
	st.LastUpdate = now
	return true
}

package gesture

import "time"

// Discrete mode defaults.
const (
	DefaultDirectionThreshold = 40.0
	DefaultStep               = 2.0
	DefaultDiscreteInterval   = 300 * time.Millisecond
)

// Direction is the bucket the index finger points to in discrete mode.
type Direction string

const (
	DirectionCenter Direction = "CENTER"
	DirectionEast   Direction = "EAST"
	DirectionWest   Direction = "WEST"
)

// ClassifyDirection buckets the index tip's horizontal offset from the palm.
// Offsets strictly beyond threshold point EAST or WEST.
func ClassifyDirection(dx, threshold float64) Direction {
	switch {
	case dx > threshold:
		return DirectionEast
	case dx < -threshold:
		return DirectionWest
	default:
		return DirectionCenter
	}
}

// Stepper moves the volume by a fixed step while the hand points EAST
// (down) or WEST (up), at most once per Interval.
type Stepper struct {
	Step     float64
	Interval time.Duration
}

// DefaultStepper returns a Stepper with the default constants.
func DefaultStepper() Stepper {
	return Stepper{Step: DefaultStep, Interval: DefaultDiscreteInterval}
}

// Delta returns the signed volume change for d.
func (s Stepper) Delta(d Direction) float64 {
	switch d {
	case DirectionEast:
		return -s.Step
	case DirectionWest:
		return s.Step
	default:
		return 0
	}
}

// Apply steps st for direction d if the throttle allows. CENTER never
// updates and never consumes the throttle.
//
// Holding EAST or WEST repeats the step once per Interval; it does not wait
// for the direction to change. This is intentional and matches a held
// volume key.
func (s Stepper) Apply(st *ControlState, d Direction, now time.Time) bool {
	delta := s.Delta(d)
	if delta == 0 {
		return false
	}
	if !throttleOpen(st.LastUpdate, now, s.Interval) {
		return false
	}

	st.Volume = ClampVolume(st.Volume + delta)
	st.LastUpdate = now
	return true
}

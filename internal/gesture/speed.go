package gesture

import "math"

// Continuous mode defaults.
const (
	// DefaultMaxAngle is the angle, in degrees, at which speed saturates.
	DefaultMaxAngle = 90.0
	// DefaultMaxSpeed is the volume change per accepted update at saturation.
	DefaultMaxSpeed = 3.0
)

// SpeedMapper maps a hand angle linearly onto a signed rotation speed.
type SpeedMapper struct {
	MaxAngle float64
	MaxSpeed float64
}

// DefaultSpeedMapper returns a SpeedMapper with the default constants.
func DefaultSpeedMapper() SpeedMapper {
	return SpeedMapper{MaxAngle: DefaultMaxAngle, MaxSpeed: DefaultMaxSpeed}
}

// Magnitude returns the unsigned speed for an angle. Angles beyond MaxAngle
// saturate at MaxSpeed.
func (m SpeedMapper) Magnitude(angleDegrees float64) float64 {
	if m.MaxAngle <= 0 {
		return 0
	}
	return math.Min(math.Abs(angleDegrees), m.MaxAngle) / m.MaxAngle * m.MaxSpeed
}

// Speed returns the signed rotation speed for f. The base sign follows the
// angle; a right hand reverses it so the same physical rotation drives the
// volume the same way whichever hand is shown.
func (m SpeedMapper) Speed(f Features) float64 {
	speed := m.Magnitude(f.AngleDegrees) * sign(f.AngleDegrees)
	if f.IsRightHand {
		return -speed
	}
	return speed
}

// sign returns -1, 0 or 1.
func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

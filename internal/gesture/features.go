// Package gesture turns hand landmarks into a bounded, rate-limited volume
// control signal.
//
// The pipeline per frame is: landmarks -> Features -> signed speed ->
// (maybe) integrated volume. ExtractFeatures and SpeedMapper are pure;
// all mutation happens in Integrator and Stepper, which operate on a
// ControlState owned by an Engine.
package gesture

import (
	"math"

	"github.com/ayusman/soundwave/internal/detector"
)

// Point2D is a position in frame pixel space.
type Point2D struct {
	X, Y float64
}

// Sub returns p - q.
func (p Point2D) Sub(q Point2D) Point2D {
	return Point2D{X: p.X - q.X, Y: p.Y - q.Y}
}

func project(p detector.Point3D) Point2D {
	return Point2D{X: p.X, Y: p.Y}
}

// Features are the geometric quantities both gesture modes read from a hand.
type Features struct {
	// AngleDegrees is the signed angle from palm->thumb-tip to
	// palm->index-tip, normalized into (-180, 180].
	AngleDegrees float64 `json:"angle_degrees"`

	// IsRightHand is the handedness heuristic: true when the index tip sits
	// left of the pinky tip in the image. It is an orientation proxy that
	// depends on which side of the hand faces the camera and how it is
	// rotated, not a calibrated left/right classifier.
	IsRightHand bool `json:"is_right_hand"`

	// IndexOffsetX is the horizontal displacement of the index tip from the
	// palm, in pixels. Positive is image-right.
	IndexOffsetX float64 `json:"index_offset_x"`
}

// ExtractFeatures computes Features from one hand. It returns false when any
// of the palm, thumb tip, index tip or pinky tip landmarks is missing or has
// a non-finite coordinate.
//
// A fingertip coincident with the palm yields a zero vector; atan2(0, 0) is 0,
// so the degenerate geometry maps to no rotation rather than an error.
func ExtractFeatures(hand *detector.HandLandmarks) (Features, bool) {
	palm, ok := usablePoint(hand, detector.Palm)
	if !ok {
		return Features{}, false
	}
	index, ok := usablePoint(hand, detector.IndexTip)
	if !ok {
		return Features{}, false
	}
	thumb, ok := usablePoint(hand, detector.ThumbTip)
	if !ok {
		return Features{}, false
	}
	pinky, ok := usablePoint(hand, detector.PinkyTip)
	if !ok {
		return Features{}, false
	}

	p := project(palm)
	vIndex := project(index).Sub(p)
	vThumb := project(thumb).Sub(p)

	raw := math.Atan2(vIndex.Y, vIndex.X) - math.Atan2(vThumb.Y, vThumb.X)

	return Features{
		AngleDegrees: NormalizeAngle(raw * 180 / math.Pi),
		IsRightHand:  index.X-pinky.X < 0,
		IndexOffsetX: vIndex.X,
	}, true
}

func usablePoint(hand *detector.HandLandmarks, i int) (detector.Point3D, bool) {
	p, ok := hand.Point(i)
	if !ok || !finite(p.X) || !finite(p.Y) {
		return detector.Point3D{}, false
	}
	return p, true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// NormalizeAngle folds a difference of two atan2 results, which lies in
// [-360, 360], into (-180, 180].
func NormalizeAngle(deg float64) float64 {
	if deg > 180 {
		deg -= 360
	}
	if deg <= -180 {
		deg += 360
	}
	return deg
}

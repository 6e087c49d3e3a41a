package detector

import (
	"math"
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	hands []HandLandmarks
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// fixtureOrigin is the palm position used by the preset hands, roughly the
// center of a 640x480 frame.
var fixtureOrigin = Point3D{X: 320, Y: 240}

// baseHand fills every landmark with the palm position so that presets only
// need to place the points they care about.
func baseHand(handedness string) HandLandmarks {
	h := HandLandmarks{
		Points:     make([]Point3D, NumLandmarks),
		Handedness: handedness,
		Score:      0.95,
	}
	for i := range h.Points {
		h.Points[i] = fixtureOrigin
	}
	return h
}

// RotatedHand returns a hand whose thumb points along +X from the palm and
// whose index finger is rotated angleDeg from the thumb (atan2 convention,
// image Y axis). rightHand places the index tip left of the pinky tip, which
// is what the handedness heuristic reads as a right hand.
func RotatedHand(angleDeg float64, rightHand bool) HandLandmarks {
	handedness := "Left"
	if rightHand {
		handedness = "Right"
	}
	h := baseHand(handedness)

	const length = 100.0
	rad := angleDeg * math.Pi / 180

	h.Points[ThumbTip] = Point3D{X: fixtureOrigin.X + length, Y: fixtureOrigin.Y}
	h.Points[IndexTip] = Point3D{
		X: fixtureOrigin.X + length*math.Cos(rad),
		Y: fixtureOrigin.Y + length*math.Sin(rad),
	}

	// The pinky sits far enough to either side to keep the handedness sign
	// stable regardless of where the index tip lands.
	pinkyX := h.Points[IndexTip].X - 2*length
	if rightHand {
		pinkyX = h.Points[IndexTip].X + 2*length
	}
	h.Points[PinkyTip] = Point3D{X: pinkyX, Y: fixtureOrigin.Y + length/2}

	return h
}

// PointingHand returns a hand whose index tip sits dx pixels right of the palm.
func PointingHand(dx float64) HandLandmarks {
	h := baseHand("Right")
	h.Points[IndexTip] = Point3D{X: fixtureOrigin.X + dx, Y: fixtureOrigin.Y - 80}
	h.Points[ThumbTip] = Point3D{X: fixtureOrigin.X + 60, Y: fixtureOrigin.Y - 20}
	h.Points[PinkyTip] = Point3D{X: fixtureOrigin.X - 60, Y: fixtureOrigin.Y - 60}
	return h
}

// OpenPalmLandmarks returns an upright open right hand in pixel space.
// All fingers are extended and the thumb points outward.
func OpenPalmLandmarks() HandLandmarks {
	landmarks := HandLandmarks{
		Points:     make([]Point3D, NumLandmarks),
		Handedness: "Right",
		Score:      0.95,
	}

	landmarks.Points[Wrist] = Point3D{X: 320, Y: 384}

	landmarks.Points[ThumbCMC] = Point3D{X: 352, Y: 360}
	landmarks.Points[ThumbMCP] = Point3D{X: 397, Y: 336}
	landmarks.Points[ThumbIP] = Point3D{X: 435, Y: 312}
	landmarks.Points[ThumbTip] = Point3D{X: 467, Y: 288}

	landmarks.Points[IndexMCP] = Point3D{X: 352, Y: 326}
	landmarks.Points[IndexPIP] = Point3D{X: 365, Y: 264}
	landmarks.Points[IndexDIP] = Point3D{X: 371, Y: 216}
	landmarks.Points[IndexTip] = Point3D{X: 371, Y: 168}

	landmarks.Points[MiddleMCP] = Point3D{X: 320, Y: 317}
	landmarks.Points[MiddlePIP] = Point3D{X: 320, Y: 250}
	landmarks.Points[MiddleDIP] = Point3D{X: 320, Y: 192}
	landmarks.Points[MiddleTip] = Point3D{X: 320, Y: 134}

	landmarks.Points[RingMCP] = Point3D{X: 288, Y: 326}
	landmarks.Points[RingPIP] = Point3D{X: 275, Y: 264}
	landmarks.Points[RingDIP] = Point3D{X: 269, Y: 216}
	landmarks.Points[RingTip] = Point3D{X: 269, Y: 168}

	landmarks.Points[PinkyMCP] = Point3D{X: 256, Y: 336}
	landmarks.Points[PinkyPIP] = Point3D{X: 237, Y: 288}
	landmarks.Points[PinkyDIP] = Point3D{X: 224, Y: 240}
	landmarks.Points[PinkyTip] = Point3D{X: 218, Y: 202}

	return landmarks
}

// Package detector defines the hand pose-estimation boundary: landmark types,
// the Detector interface and its implementations.
package detector

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21

	// Palm is the landmark used as the palm center. The middle finger MCP
	// sits at the center of the palm in the model's topology.
	Palm = MiddleMCP
)

// Point3D is a landmark position. X and Y are in frame pixel space; Z is
// the model's relative depth and is ignored by the control engine.
type Point3D struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
	Z float64 `json:"z" msgpack:"z"`
}

// HandLandmarks is one detected hand. Points is ordered by the model's
// landmark index and normally holds NumLandmarks entries, but a short
// list is a legal value that consumers must handle.
type HandLandmarks struct {
	Points     []Point3D `json:"points" msgpack:"points"`
	Handedness string    `json:"handedness" msgpack:"handedness"` // "Left" or "Right", as reported by the model
	Score      float64   `json:"score" msgpack:"score"`
}

// Point returns the landmark at index i and whether it exists.
func (h *HandLandmarks) Point(i int) (Point3D, bool) {
	if h == nil || i < 0 || i >= len(h.Points) {
		return Point3D{}, false
	}
	return h.Points[i], true
}

// Complete reports whether the hand carries the full landmark set.
func (h *HandLandmarks) Complete() bool {
	return h != nil && len(h.Points) >= NumLandmarks
}

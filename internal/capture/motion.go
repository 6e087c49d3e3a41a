package capture

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

const (
	// blurKernel is the Gaussian kernel size applied before differencing.
	blurKernel = 21
	// pixelDiffThreshold is the per-pixel intensity change counted as motion.
	pixelDiffThreshold = 25
)

// MotionDetector compares consecutive frames and reports the share of
// pixels that changed.
type MotionDetector struct {
	mu        sync.Mutex
	threshold float64
	prev      gocv.Mat
	hasPrev   bool
}

// NewMotionDetector returns a detector that reports motion when more than
// threshold percent of pixels change between frames.
func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{
		threshold: threshold,
		prev:      gocv.NewMat(),
	}
}

// Detect reports whether frame differs from the previous frame by more than
// the threshold, along with the changed-pixel percentage. The first frame
// only sets the baseline. A frame whose size differs from the baseline
// replaces it. An OpenCV failure leaves the baseline untouched.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0, nil
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		if err := gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray); err != nil {
			return false, 0, fmt.Errorf("motion: convert to gray: %w", err)
		}
	} else if err := frame.CopyTo(&gray); err != nil {
		return false, 0, fmt.Errorf("motion: copy frame: %w", err)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	if err := gocv.GaussianBlur(gray, &blurred, image.Pt(blurKernel, blurKernel), 0, 0, gocv.BorderDefault); err != nil {
		return false, 0, fmt.Errorf("motion: blur: %w", err)
	}

	if !m.hasPrev || m.prev.Rows() != blurred.Rows() || m.prev.Cols() != blurred.Cols() {
		if err := blurred.CopyTo(&m.prev); err != nil {
			return false, 0, fmt.Errorf("motion: store baseline: %w", err)
		}
		m.hasPrev = true
		return false, 0, nil
	}

	diff := gocv.NewMat()
	defer diff.Close()
	if err := gocv.AbsDiff(blurred, m.prev, &diff); err != nil {
		return false, 0, fmt.Errorf("motion: diff: %w", err)
	}

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(diff, &mask, pixelDiffThreshold, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(mask)) / float64(mask.Rows()*mask.Cols()) * 100.0

	if err := blurred.CopyTo(&m.prev); err != nil {
		return false, 0, fmt.Errorf("motion: store baseline: %w", err)
	}

	return changed > m.threshold, changed, nil
}

// Reset drops the baseline frame.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hasPrev = false
}

// Close releases the baseline frame.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prev.Close()
	m.prev = gocv.NewMat()
	m.hasPrev = false
}

// SetThreshold ignores non-positive values.
func (m *MotionDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}
	m.mu.Lock()
	m.threshold = threshold
	m.mu.Unlock()
}

// Threshold returns the current threshold percentage.
func (m *MotionDetector) Threshold() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.threshold
}

package gesture

import (
	"math"
	"testing"

	"github.com/ayusman/soundwave/internal/detector"
)

const epsilon = 1e-9

func TestNormalizeAngle(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{200, -160},
		{-200, 160},
		{180, 180},
		{-180, 180},
		{0, 0},
		{360, 0},
		{-360, 0},
		{90, 90},
		{-179.5, -179.5},
		{270, -90},
	}

	for _, tt := range tests {
		got := NormalizeAngle(tt.in)
		if math.Abs(got-tt.want) > epsilon {
			t.Errorf("NormalizeAngle(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}

	t.Run("result is always within (-180, 180]", func(t *testing.T) {
		for raw := -360.0; raw <= 360.0; raw += 0.5 {
			got := NormalizeAngle(raw)
			if got <= -180 || got > 180 {
				t.Fatalf("NormalizeAngle(%v) = %v out of range", raw, got)
			}
		}
	})
}

func TestExtractFeatures(t *testing.T) {
	t.Run("angle between index and thumb", func(t *testing.T) {
		for _, angle := range []float64{-150, -90, -30, 0, 30, 45, 90, 170} {
			hand := detector.RotatedHand(angle, false)

			f, ok := ExtractFeatures(&hand)
			if !ok {
				t.Fatalf("angle %v: expected features", angle)
			}
			if math.Abs(f.AngleDegrees-angle) > 1e-6 {
				t.Errorf("angle %v: got %v", angle, f.AngleDegrees)
			}
		}
	})

	t.Run("raw difference wraps into range", func(t *testing.T) {
		hand := detector.RotatedHand(0, false)
		palm := hand.Points[detector.Palm]
		// thumb at -170 deg, index at +170 deg: raw difference is 340
		hand.Points[detector.ThumbTip] = detector.Point3D{
			X: palm.X + 100*math.Cos(-170*math.Pi/180),
			Y: palm.Y + 100*math.Sin(-170*math.Pi/180),
		}
		hand.Points[detector.IndexTip] = detector.Point3D{
			X: palm.X + 100*math.Cos(170*math.Pi/180),
			Y: palm.Y + 100*math.Sin(170*math.Pi/180),
		}

		f, ok := ExtractFeatures(&hand)
		if !ok {
			t.Fatal("expected features")
		}
		if math.Abs(f.AngleDegrees-(-20)) > 1e-6 {
			t.Errorf("expected -20, got %v", f.AngleDegrees)
		}
	})

	t.Run("handedness heuristic", func(t *testing.T) {
		right := detector.RotatedHand(20, true)
		f, _ := ExtractFeatures(&right)
		if !f.IsRightHand {
			t.Error("expected right hand when index tip is left of pinky tip")
		}

		left := detector.RotatedHand(20, false)
		f, _ = ExtractFeatures(&left)
		if f.IsRightHand {
			t.Error("expected left hand when index tip is right of pinky tip")
		}
	})

	t.Run("equal index and pinky x is not a right hand", func(t *testing.T) {
		hand := detector.RotatedHand(20, false)
		hand.Points[detector.PinkyTip].X = hand.Points[detector.IndexTip].X

		f, _ := ExtractFeatures(&hand)
		if f.IsRightHand {
			t.Error("expected zero displacement to read as left hand")
		}
	})

	t.Run("index offset from palm", func(t *testing.T) {
		hand := detector.PointingHand(-42)

		f, ok := ExtractFeatures(&hand)
		if !ok {
			t.Fatal("expected features")
		}
		if math.Abs(f.IndexOffsetX-(-42)) > epsilon {
			t.Errorf("expected offset -42, got %v", f.IndexOffsetX)
		}
	})

	t.Run("non-finite coordinates are rejected", func(t *testing.T) {
		bad := []float64{math.NaN(), math.Inf(1), math.Inf(-1)}
		for _, idx := range []int{detector.Palm, detector.ThumbTip, detector.IndexTip, detector.PinkyTip} {
			for _, v := range bad {
				hand := detector.RotatedHand(30, false)
				hand.Points[idx].X = v
				if _, ok := ExtractFeatures(&hand); ok {
					t.Errorf("landmark %d x=%v: expected no features", idx, v)
				}

				hand = detector.RotatedHand(30, false)
				hand.Points[idx].Y = v
				if _, ok := ExtractFeatures(&hand); ok {
					t.Errorf("landmark %d y=%v: expected no features", idx, v)
				}
			}
		}
	})

	t.Run("non-finite depth is ignored", func(t *testing.T) {
		hand := detector.RotatedHand(30, false)
		hand.Points[detector.IndexTip].Z = math.NaN()
		if _, ok := ExtractFeatures(&hand); !ok {
			t.Error("expected features when only z is NaN")
		}
	})

	t.Run("index tip on palm yields zero angle", func(t *testing.T) {
		hand := detector.RotatedHand(60, false)
		hand.Points[detector.IndexTip] = hand.Points[detector.Palm]

		f, ok := ExtractFeatures(&hand)
		if !ok {
			t.Fatal("expected features for degenerate geometry")
		}
		if f.AngleDegrees != 0 {
			t.Errorf("expected angle 0, got %v", f.AngleDegrees)
		}
	})

	t.Run("all landmarks coincident", func(t *testing.T) {
		hand := detector.HandLandmarks{Points: make([]detector.Point3D, detector.NumLandmarks)}

		f, ok := ExtractFeatures(&hand)
		if !ok {
			t.Fatal("expected features")
		}
		if f.AngleDegrees != 0 || f.IndexOffsetX != 0 || f.IsRightHand {
			t.Errorf("expected zero features, got %+v", f)
		}
	})

	t.Run("short landmark set is degenerate", func(t *testing.T) {
		full := detector.RotatedHand(30, false)
		for _, n := range []int{0, 5, 9, 10, 20} {
			hand := detector.HandLandmarks{Points: full.Points[:n]}
			if _, ok := ExtractFeatures(&hand); ok {
				t.Errorf("expected %d points to be degenerate", n)
			}
		}
	})

	t.Run("nil hand is degenerate", func(t *testing.T) {
		if _, ok := ExtractFeatures(nil); ok {
			t.Error("expected nil hand to be degenerate")
		}
	})

	t.Run("z is ignored", func(t *testing.T) {
		flat := detector.RotatedHand(30, false)
		deep := detector.RotatedHand(30, false)
		for i := range deep.Points {
			deep.Points[i].Z = float64(i) * 7
		}

		a, _ := ExtractFeatures(&flat)
		b, _ := ExtractFeatures(&deep)
		if a != b {
			t.Errorf("expected identical features, got %+v and %+v", a, b)
		}
	})
}

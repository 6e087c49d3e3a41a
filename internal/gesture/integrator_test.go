package gesture

import (
	"math"
	"testing"
	"time"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func TestIntegrator_Deadband(t *testing.T) {
	in := DefaultIntegrator()

	t.Run("boundary speed is ignored", func(t *testing.T) {
		st := NewControlState(50)

		if in.Apply(&st, 0.05, t0) {
			t.Error("expected no update at the deadband boundary")
		}
		if in.Apply(&st, -0.05, t0) {
			t.Error("expected no update at the negative deadband boundary")
		}
		if st.Volume != 50 || !st.LastUpdate.IsZero() {
			t.Errorf("expected untouched state, got %+v", st)
		}
	})

	t.Run("speed above deadband is applied", func(t *testing.T) {
		st := NewControlState(50)

		if !in.Apply(&st, 0.06, t0) {
			t.Fatal("expected update above the deadband")
		}
		if got, want := st.Volume, 50.06; got < want-epsilon || got > want+epsilon {
			t.Errorf("expected volume %v, got %v", want, got)
		}
		if !st.LastUpdate.Equal(t0) {
			t.Errorf("expected last update %v, got %v", t0, st.LastUpdate)
		}
	})
}

func TestIntegrator_Throttle(t *testing.T) {
	in := DefaultIntegrator()

	t.Run("ticks 10ms apart update once", func(t *testing.T) {
		st := NewControlState(50)

		first := in.Apply(&st, 1, t0)
		second := in.Apply(&st, 1, t0.Add(10*time.Millisecond))

		if !first || second {
			t.Errorf("expected only the first tick to update, got %v %v", first, second)
		}
		if st.Volume != 51 {
			t.Errorf("expected volume 51, got %v", st.Volume)
		}
	})

	t.Run("ticks 60ms apart both update", func(t *testing.T) {
		st := NewControlState(50)

		first := in.Apply(&st, 1, t0)
		second := in.Apply(&st, 1, t0.Add(60*time.Millisecond))

		if !first || !second {
			t.Errorf("expected both ticks to update, got %v %v", first, second)
		}
		if st.Volume != 52 {
			t.Errorf("expected volume 52, got %v", st.Volume)
		}
	})

	t.Run("exactly the interval is still throttled", func(t *testing.T) {
		st := NewControlState(50)

		in.Apply(&st, 1, t0)
		if in.Apply(&st, 1, t0.Add(50*time.Millisecond)) {
			t.Error("expected update at exactly 50ms to be throttled")
		}
		if !in.Apply(&st, 1, t0.Add(51*time.Millisecond)) {
			t.Error("expected update after 50ms to be accepted")
		}
	})

	t.Run("throttled tick does not move the timestamp", func(t *testing.T) {
		st := NewControlState(50)

		in.Apply(&st, 1, t0)
		in.Apply(&st, 1, t0.Add(30*time.Millisecond))
		if !in.Apply(&st, 1, t0.Add(55*time.Millisecond)) {
			t.Error("expected update 55ms after the last accepted tick")
		}
	})

	t.Run("deadband tick does not move the timestamp", func(t *testing.T) {
		st := NewControlState(50)

		in.Apply(&st, 1, t0)
		in.Apply(&st, 0.01, t0.Add(60*time.Millisecond))
		if !st.LastUpdate.Equal(t0) {
			t.Errorf("expected last update to stay at %v, got %v", t0, st.LastUpdate)
		}
	})

	t.Run("clock moving backwards never updates", func(t *testing.T) {
		st := NewControlState(50)

		in.Apply(&st, 1, t0)
		if in.Apply(&st, 3, t0.Add(-time.Second)) {
			t.Error("expected negative elapsed time to suppress the update")
		}
		if st.Volume != 51 {
			t.Errorf("expected volume 51, got %v", st.Volume)
		}
	})
}

func TestIntegrator_NaNSpeed(t *testing.T) {
	in := DefaultIntegrator()
	st := NewControlState(50)

	if in.Apply(&st, math.NaN(), t0) {
		t.Error("expected NaN speed to be ignored")
	}
	if st.Volume != 50 || !st.LastUpdate.IsZero() {
		t.Errorf("expected untouched state, got %+v", st)
	}
}

func TestIntegrator_Clamp(t *testing.T) {
	in := DefaultIntegrator()

	t.Run("saturates at 100", func(t *testing.T) {
		st := NewControlState(99)
		now := t0
		for i := 0; i < 10; i++ {
			in.Apply(&st, 3, now)
			if st.Volume > MaxVolume {
				t.Fatalf("volume exceeded max: %v", st.Volume)
			}
			now = now.Add(60 * time.Millisecond)
		}
		if st.Volume != MaxVolume {
			t.Errorf("expected volume %v, got %v", MaxVolume, st.Volume)
		}
	})

	t.Run("saturates at 0", func(t *testing.T) {
		st := NewControlState(1)
		now := t0
		for i := 0; i < 10; i++ {
			in.Apply(&st, -3, now)
			if st.Volume < MinVolume {
				t.Fatalf("volume below min: %v", st.Volume)
			}
			now = now.Add(60 * time.Millisecond)
		}
		if st.Volume != MinVolume {
			t.Errorf("expected volume %v, got %v", MinVolume, st.Volume)
		}
	})
}

func TestClampVolume(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{-5, 0}, {0, 0}, {42.5, 42.5}, {100, 100}, {150, 100},
	}
	for _, tt := range tests {
		if got := ClampVolume(tt.in); got != tt.want {
			t.Errorf("ClampVolume(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

package recording

import (
	"bytes"
	"errors"
	"io"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/ayusman/soundwave/internal/detector"
	"github.com/ayusman/soundwave/internal/gesture"
)

var t0 = time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

func TestWriterReader(t *testing.T) {
	var buf bytes.Buffer

	w, err := NewWriter(&buf, "continuous")
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}

	ticks := []Tick{
		{At: t0, Hands: []detector.HandLandmarks{detector.RotatedHand(45, false)}},
		{At: t0.Add(100 * time.Millisecond)},
		{At: t0.Add(200 * time.Millisecond), Hands: []detector.HandLandmarks{detector.PointingHand(-60)}},
	}
	for _, tk := range ticks {
		if err := w.Write(tk); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if w.Count() != 3 {
		t.Errorf("expected count 3, got %d", w.Count())
	}

	r, err := NewReader(&buf)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	if h := r.Header(); h.Mode != "continuous" || h.Version != Version {
		t.Errorf("unexpected header %+v", h)
	}

	for i, want := range ticks {
		got, err := r.Next()
		if err != nil {
			t.Fatalf("Next() %d error = %v", i, err)
		}
		if !got.At.Equal(want.At) {
			t.Errorf("tick %d: expected %v, got %v", i, want.At, got.At)
		}
		if len(got.Hands) != len(want.Hands) {
			t.Fatalf("tick %d: expected %d hands, got %d", i, len(want.Hands), len(got.Hands))
		}
		if len(want.Hands) > 0 && got.Hands[0].Points[detector.IndexTip] != want.Hands[0].Points[detector.IndexTip] {
			t.Errorf("tick %d: index tip mismatch", i)
		}
	}

	if _, err := r.Next(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestNewReader_BadHeader(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		if _, err := NewReader(bytes.NewReader(nil)); !errors.Is(err, ErrBadFrame) {
			t.Errorf("expected ErrBadFrame, got %v", err)
		}
	})

	t.Run("wrong format", func(t *testing.T) {
		data, _ := msgpack.Marshal(&Header{Format: "other", Version: Version})
		if _, err := NewReader(bytes.NewReader(data)); !errors.Is(err, ErrBadFrame) {
			t.Errorf("expected ErrBadFrame, got %v", err)
		}
	})

	t.Run("future version", func(t *testing.T) {
		data, _ := msgpack.Marshal(&Header{Format: Format, Version: Version + 1})
		if _, err := NewReader(bytes.NewReader(data)); !errors.Is(err, ErrBadFrame) {
			t.Errorf("expected ErrBadFrame, got %v", err)
		}
	})
}

func TestReader_BadTick(t *testing.T) {
	var buf bytes.Buffer
	w, _ := NewWriter(&buf, "")
	w.Close()

	junk, _ := msgpack.Marshal("not a tick")
	buf.Write(junk)

	r, err := NewReader(&buf)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	if _, err := r.Next(); !errors.Is(err, ErrBadFrame) {
		t.Errorf("expected ErrBadFrame, got %v", err)
	}
}

func TestCreateOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.swrec")

	w, err := Create(path, "discrete")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	w.Write(Tick{At: t0})
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer r.Close()

	if r.Header().Mode != "discrete" {
		t.Errorf("expected discrete header, got %q", r.Header().Mode)
	}
	if _, err := r.Next(); err != nil {
		t.Errorf("Next() error = %v", err)
	}

	if _, err := Open(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error opening a missing file")
	}
}

func TestReplay(t *testing.T) {
	var buf bytes.Buffer
	w, _ := NewWriter(&buf, "continuous")

	hand := []detector.HandLandmarks{detector.RotatedHand(90, false)}
	w.Write(Tick{At: t0, Hands: hand})
	w.Write(Tick{At: t0.Add(10 * time.Millisecond), Hands: hand})
	w.Write(Tick{At: t0.Add(60 * time.Millisecond), Hands: hand})
	w.Write(Tick{At: t0.Add(200 * time.Millisecond)})
	w.Close()

	cfg := gesture.DefaultConfig()
	cfg.InitialVolume = 50
	e, err := gesture.New(cfg)
	if err != nil {
		t.Fatalf("gesture.New() error = %v", err)
	}

	r, err := NewReader(&buf)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	results, err := Replay(r, e)
	if err != nil {
		t.Fatalf("Replay() error = %v", err)
	}

	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	want := []struct {
		volume  float64
		changed bool
	}{{53, true}, {53, false}, {56, true}, {56, false}}
	for i, w := range want {
		if math.Abs(results[i].Volume-w.volume) > 1e-6 || results[i].Changed != w.changed {
			t.Errorf("result %d: got volume %v changed %v, want %v %v",
				i, results[i].Volume, results[i].Changed, w.volume, w.changed)
		}
	}
	if results[3].Status != gesture.StatusNoHandDetected {
		t.Errorf("expected no-hand status for the empty tick, got %s", results[3].Status)
	}
}

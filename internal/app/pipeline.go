package app

import (
	"context"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/soundwave/internal/detector"
	"github.com/ayusman/soundwave/internal/gesture"
	"github.com/ayusman/soundwave/internal/log"
	"github.com/ayusman/soundwave/internal/recording"
	"github.com/ayusman/soundwave/internal/store"
)

// sinkTimeout bounds a single sink write from the pipeline.
const sinkTimeout = 2 * time.Second

// runPipeline reads frames at the idle rate until motion is seen, then at
// the active rate while motion or a hand is present.
func (a *App) runPipeline(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(time.Second / time.Duration(a.opts.IdleFPS))
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		if !a.IsEnabled() {
			continue
		}

		frame, err := a.opts.Camera.ReadFrame()
		if err != nil {
			log.Debug("read frame failed", "error", err)
			continue
		}

		wasActive := a.gate.Active()
		a.ProcessFrame(frame, time.Now())
		frame.Close()

		if active := a.gate.Active(); active != wasActive {
			fps := a.opts.IdleFPS
			if active {
				fps = a.opts.ActiveFPS
			}
			a.opts.Camera.SetFPS(fps)
			ticker.Reset(time.Second / time.Duration(fps))
			log.Debug("pipeline rate changed", "active", active, "fps", fps)
		}
	}
}

// ProcessFrame runs one frame through the motion gate and, when active,
// hand detection, then applies the detections to the engine. Detector
// errors count as no detection for the frame.
func (a *App) ProcessFrame(frame *gocv.Mat, now time.Time) gesture.Result {
	if a.opts.Preview != nil {
		if err := a.opts.Preview.Store(frame); err != nil {
			log.Debug("preview encode failed", "error", err)
		}
	}

	active, _ := a.gate.Observe(frame, now)

	var hands []detector.HandLandmarks
	if active {
		var err error
		hands, err = a.opts.Detector.Detect(frame)
		if err != nil {
			log.Warn("hand detection failed", "error", err)
			hands = nil
		}
	}

	r := a.ProcessHands(hands, now)
	if r.Status == gesture.StatusHandDetected {
		// A steady hand produces little motion; keep detecting while it is in view.
		a.gate.Force(true, now)
	}
	return r
}

// ProcessHands applies one tick of detections to the engine, forwards a
// changed volume to the sink, records the tick and publishes the result.
func (a *App) ProcessHands(hands []detector.HandLandmarks, now time.Time) gesture.Result {
	r := a.engine.ProcessTick(hands, now)

	if a.opts.Recorder != nil {
		if err := a.opts.Recorder.Write(recording.Tick{At: now, Hands: hands}); err != nil {
			log.Warn("record tick failed", "error", err)
		}
	}

	if r.Changed {
		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
		if err := a.opts.Sink.SetVolume(ctx, r.Volume); err != nil {
			log.Warn("sink volume write failed", "volume", r.Volume, "error", err)
		}
		cancel()

		a.recordEvent(r, store.SourceGesture)
		log.Debug("volume changed", "volume", r.Volume, "delta", r.Delta, "mode", r.Mode, "direction", r.Direction)
	}

	a.hub.Publish(r)
	return r
}

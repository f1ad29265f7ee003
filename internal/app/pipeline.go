package app

import (
	"fmt"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/log"
)

// Default rates for the motion-gated loop.
const (
	DefaultIdleFPS   = 5
	DefaultActiveFPS = 30
	DefaultIdleAfter = 2 * time.Second
)

// runPipeline reads frames until stop is closed.
//
// With a motion gate the loop starts idle at IdleFPS and only checks for
// motion. Once motion is seen it switches to the camera rate and runs the
// detector on every frame, dropping back to idle after IdleAfter without
// motion. Going idle resets the engine so half-formed gestures are dropped.
// Without a gate every frame is detected at the camera rate.
func (a *App) runPipeline(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	idleFPS := a.config.IdleFPS
	if idleFPS <= 0 {
		idleFPS = DefaultIdleFPS
	}
	activeFPS := a.config.Camera.FPS
	if activeFPS <= 0 {
		activeFPS = DefaultActiveFPS
	}
	idleAfter := a.config.IdleAfter
	if idleAfter <= 0 {
		idleAfter = DefaultIdleAfter
	}

	active := a.motion == nil
	fps := idleFPS
	if active {
		fps = activeFPS
	}
	a.camera.SetFPS(fps)
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	setRate := func(fps int) {
		a.camera.SetFPS(fps)
		ticker.Reset(time.Second / time.Duration(fps))
	}

	var lastMotion time.Time
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		if !a.Enabled() {
			continue
		}

		frame, err := a.camera.ReadFrame()
		if err != nil {
			log.Warn("error reading frame", "error", err)
			continue
		}
		now := time.Now()

		if a.motion != nil {
			if a.motion.Moved(frame) {
				lastMotion = now
				if !active {
					active = true
					setRate(activeFPS)
					log.Debug("switched to active mode", "motion", a.motion.Level())
				}
			} else if active && now.Sub(lastMotion) > idleAfter {
				active = false
				setRate(idleFPS)
				a.engineMu.Lock()
				a.session.Reset()
				a.engineMu.Unlock()
				log.Debug("switched to idle mode")
			}
		}

		if active {
			a.processFrame(frame, now)
		} else if a.preview != nil {
			a.updatePreview(frame, nil, now)
		}
		frame.Close()
	}
}

// processFrame detects hands on one frame and feeds them to the engine.
func (a *App) processFrame(frame *gocv.Mat, now time.Time) {
	hands, err := a.detector.Detect(frame)
	if err != nil {
		log.Warn("error detecting hands", "error", err)
		return
	}

	if _, err := a.ProcessHands(hands, frame.Cols(), frame.Rows(), now); err != nil {
		log.Warn("frame rejected", "error", err)
		return
	}

	if a.preview != nil {
		a.updatePreview(frame, a.LaneStates(), now)
	}
}

func (a *App) updatePreview(frame *gocv.Mat, lanes []gesture.LaneState, now time.Time) {
	lines := make([]string, 0, len(lanes))
	for _, l := range lanes {
		lines = append(lines, fmt.Sprintf("HAND %d: %s", l.Lane, l.Final))
	}
	if err := a.preview.Update(frame, lines, now); err != nil {
		log.Debug("preview update failed", "error", err)
	}
}

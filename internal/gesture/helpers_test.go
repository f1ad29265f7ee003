package gesture

import (
	"time"

	"github.com/ayusman/mudra/internal/geometry"
	"github.com/ayusman/mudra/internal/landmark"
)

const (
	frameSize = 1000
	frameStep = 50 * time.Millisecond
)

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// at returns the timestamp of the i-th frame of a 20 fps stream.
func at(i int) time.Time {
	return epoch.Add(time.Duration(i) * frameStep)
}

func pixels(h landmark.Hand) *geometry.Pixels {
	p := geometry.ToPixels(&h, frameSize, frameSize)
	return &p
}

func frame(i int, hands ...landmark.Hand) Frame {
	return Frame{Hands: hands, Width: frameSize, Height: frameSize, Time: at(i)}
}

// swipeDown returns Pointing hands moving down by step per frame, starting
// high enough in the frame to stay on screen.
func swipeDown(frames int, step float64) []landmark.Hand {
	out := make([]landmark.Hand, frames)
	for i := range out {
		out[i] = landmark.Pointing().Translate(0, -0.35+float64(i)*step)
	}
	return out
}

// Package landmark defines the 21-point hand skeleton reported by the external
// hand detector, and the contract checks applied before a hand enters the
// gesture engine.
package landmark

import (
	"errors"
	"fmt"
	"math"
)

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
)

// FingerTips lists the four non-thumb fingertips, index first.
var FingerTips = [4]int{IndexTip, MiddleTip, RingTip, PinkyTip}

// ErrInvalidObservation is returned when a hand violates the detector contract
// (wrong landmark count, NaN or infinite coordinates).
var ErrInvalidObservation = errors.New("invalid observation")

// Point is one landmark: x and y normalized to [0,1] image space, z relative depth.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Hand is one hand's landmark set for one frame.
type Hand struct {
	Points     [NumLandmarks]Point `json:"points"`
	Handedness string              `json:"handedness,omitempty"` // "Left" or "Right"
	Score      float64             `json:"score,omitempty"`
}

// FromPoints builds a Hand from a variable-length point list, as decoded from
// a detector wire format. Exactly NumLandmarks points are required.
func FromPoints(points []Point, handedness string, score float64) (Hand, error) {
	if len(points) != NumLandmarks {
		return Hand{}, fmt.Errorf("%w: got %d landmarks, want %d", ErrInvalidObservation, len(points), NumLandmarks)
	}

	h := Hand{Handedness: handedness, Score: score}
	copy(h.Points[:], points)
	return h, nil
}

// Validate reports whether every coordinate is a finite number.
func (h *Hand) Validate() error {
	for i, p := range h.Points {
		if !finite(p.X) || !finite(p.Y) || !finite(p.Z) {
			return fmt.Errorf("%w: landmark %d is not finite (%v, %v, %v)", ErrInvalidObservation, i, p.X, p.Y, p.Z)
		}
	}
	return nil
}

// Translate returns a copy of the hand shifted by (dx, dy) in normalized space.
func (h Hand) Translate(dx, dy float64) Hand {
	for i := range h.Points {
		h.Points[i].X += dx
		h.Points[i].Y += dy
	}
	return h
}

// Rotate returns a copy of the hand rotated by deg degrees around the wrist,
// in image coordinates (y grows downward, so positive angles turn clockwise
// on screen).
func (h Hand) Rotate(deg float64) Hand {
	rad := deg * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	c := h.Points[Wrist]

	for i := range h.Points {
		dx := h.Points[i].X - c.X
		dy := h.Points[i].Y - c.Y
		h.Points[i].X = c.X + dx*cos - dy*sin
		h.Points[i].Y = c.Y + dx*sin + dy*cos
	}
	return h
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

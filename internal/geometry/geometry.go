// Package geometry converts normalized hand landmarks to pixel space and
// measures distances and angles relative to the hand's own size, so that
// downstream thresholds do not depend on how far the hand is from the camera.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"

	"github.com/ayusman/mudra/internal/landmark"
)

// Epsilon is the smallest hand size or ray length treated as non-degenerate.
const Epsilon = 1e-6

// Point is a landmark in pixel space. Z is carried through unscaled.
type Point struct {
	X, Y, Z float64
}

func (p Point) vec() r2.Vec {
	return r2.Vec{X: p.X, Y: p.Y}
}

// Pixels is one hand's landmark set in pixel space.
type Pixels [landmark.NumLandmarks]Point

// ToPixels scales normalized x, y by the frame width and height.
func ToPixels(h *landmark.Hand, width, height int) Pixels {
	var p Pixels
	w, hh := float64(width), float64(height)
	for i, lm := range h.Points {
		p[i] = Point{X: lm.X * w, Y: lm.Y * hh, Z: lm.Z}
	}
	return p
}

// Distance is the 2-D Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return r2.Norm(r2.Sub(a.vec(), b.vec()))
}

// HandSize is the wrist to middle-finger-base distance.
func HandSize(p *Pixels) float64 {
	return Distance(p[landmark.Wrist], p[landmark.MiddleMCP])
}

// NormalizedTipDistance is the tip to wrist distance in hand sizes.
// It returns 0 for a degenerate (collapsed or occluded) hand.
func NormalizedTipDistance(p *Pixels, tip int) float64 {
	size := HandSize(p)
	if size < Epsilon {
		return 0
	}
	return Distance(p[tip], p[landmark.Wrist]) / size
}

// AngleDegrees returns the angle at b between rays b->a and b->c, in [0, 180].
// It returns 0 when either ray is shorter than Epsilon.
func AngleDegrees(a, b, c Point) float64 {
	u := r2.Sub(a.vec(), b.vec())
	v := r2.Sub(c.vec(), b.vec())

	nu, nv := r2.Norm(u), r2.Norm(v)
	if nu < Epsilon || nv < Epsilon {
		return 0
	}

	cos := r2.Dot(u, v) / (nu * nv)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi
}

// FingertipCentroid is the mean position of the four non-thumb fingertips.
func FingertipCentroid(p *Pixels) Point {
	xs := make([]float64, len(landmark.FingerTips))
	ys := make([]float64, len(landmark.FingerTips))
	for i, tip := range landmark.FingerTips {
		xs[i] = p[tip].X
		ys[i] = p[tip].Y
	}
	return Point{X: stat.Mean(xs, nil), Y: stat.Mean(ys, nil)}
}

// Vector returns b - a scaled by 1/scale. A scale below Epsilon yields the zero vector.
func Vector(a, b Point, scale float64) (dx, dy float64) {
	if scale < Epsilon {
		return 0, 0
	}
	v := r2.Scale(1/scale, r2.Sub(b.vec(), a.vec()))
	return v.X, v.Y
}

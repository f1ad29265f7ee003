package geometry

import (
	"math"
	"testing"

	"github.com/ayusman/mudra/internal/landmark"
)

const tolerance = 1e-9

func near(a, b float64) bool {
	return math.Abs(a-b) < tolerance
}

func TestToPixels(t *testing.T) {
	h := landmark.OpenPalm()
	h.Points[landmark.Wrist] = landmark.Point{X: 0.25, Y: 0.5, Z: -0.3}

	p := ToPixels(&h, 640, 480)

	got := p[landmark.Wrist]
	if !near(got.X, 160) || !near(got.Y, 240) {
		t.Errorf("wrist = (%f, %f), want (160, 240)", got.X, got.Y)
	}
	if got.Z != -0.3 {
		t.Errorf("z = %f, want -0.3 (unscaled)", got.Z)
	}
}

func TestHandSize(t *testing.T) {
	var p Pixels
	p[landmark.Wrist] = Point{X: 10, Y: 20}
	p[landmark.MiddleMCP] = Point{X: 13, Y: 24}

	if got := HandSize(&p); !near(got, 5) {
		t.Errorf("HandSize = %f, want 5", got)
	}
}

func TestNormalizedTipDistance(t *testing.T) {
	t.Run("scale invariant", func(t *testing.T) {
		h := landmark.OpenPalm()
		small := ToPixels(&h, 500, 500)
		large := ToPixels(&h, 2000, 2000)

		for _, tip := range landmark.FingerTips {
			a := NormalizedTipDistance(&small, tip)
			b := NormalizedTipDistance(&large, tip)
			if !near(a, b) {
				t.Errorf("tip %d: %f at 500px vs %f at 2000px", tip, a, b)
			}
		}
	})

	t.Run("degenerate hand yields zero", func(t *testing.T) {
		var p Pixels
		p[landmark.IndexTip] = Point{X: 100, Y: 100}

		if got := NormalizedTipDistance(&p, landmark.IndexTip); got != 0 {
			t.Errorf("NormalizedTipDistance = %f, want 0", got)
		}
	})
}

func TestAngleDegrees(t *testing.T) {
	tests := []struct {
		name    string
		a, b, c Point
		want    float64
	}{
		{name: "straight line", a: Point{X: 0, Y: 0}, b: Point{X: 1, Y: 0}, c: Point{X: 2, Y: 0}, want: 180},
		{name: "right angle", a: Point{X: 1, Y: 0}, b: Point{X: 0, Y: 0}, c: Point{X: 0, Y: 1}, want: 90},
		{name: "same direction", a: Point{X: 1, Y: 1}, b: Point{X: 0, Y: 0}, c: Point{X: 2, Y: 2}, want: 0},
		{name: "zero-length ray", a: Point{X: 0, Y: 0}, b: Point{X: 0, Y: 0}, c: Point{X: 3, Y: 4}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AngleDegrees(tt.a, tt.b, tt.c)
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("AngleDegrees = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestFingertipCentroid(t *testing.T) {
	var p Pixels
	p[landmark.IndexTip] = Point{X: 0, Y: 0}
	p[landmark.MiddleTip] = Point{X: 4, Y: 0}
	p[landmark.RingTip] = Point{X: 4, Y: 8}
	p[landmark.PinkyTip] = Point{X: 0, Y: 8}

	c := FingertipCentroid(&p)
	if !near(c.X, 2) || !near(c.Y, 4) {
		t.Errorf("centroid = (%f, %f), want (2, 4)", c.X, c.Y)
	}
}

func TestVector(t *testing.T) {
	dx, dy := Vector(Point{X: 10, Y: 10}, Point{X: 10, Y: 40}, 15)
	if !near(dx, 0) || !near(dy, 2) {
		t.Errorf("Vector = (%f, %f), want (0, 2)", dx, dy)
	}

	dx, dy = Vector(Point{}, Point{X: 1, Y: 1}, 0)
	if dx != 0 || dy != 0 {
		t.Errorf("Vector with zero scale = (%f, %f), want (0, 0)", dx, dy)
	}
}

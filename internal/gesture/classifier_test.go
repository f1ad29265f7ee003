package gesture

import (
	"math"
	"testing"

	"github.com/ayusman/mudra/internal/geometry"
	"github.com/ayusman/mudra/internal/landmark"
)

func TestClassifier_Classify(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	tests := []struct {
		name     string
		hand     landmark.Hand
		want     Label
		wantConf float64
	}{
		{"open palm", landmark.OpenPalm(), LabelOpenPalm, 1},
		{"closed hand", landmark.ClosedHand(), LabelClosedHand, 1},
		{"thumbs up", landmark.ThumbsUp(), LabelThumbsUp, 1},
		{"thumbs up tilted", landmark.ThumbsUp().Rotate(20), LabelThumbsUp, 1},
		{"fist tilted", landmark.ClosedHand().Rotate(-30), LabelClosedHand, 1},
		{"special pose reads half open", landmark.SpecialPose(), LabelHalfOpen, 0.6},
		{"single finger", landmark.Pointing(), LabelUnknown, 0.2},
		{"open palm shifted", landmark.OpenPalm().Translate(-0.2, 0.1), LabelOpenPalm, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, conf := c.Classify(pixels(tt.hand))
			if got != tt.want {
				t.Errorf("Classify = %s, want %s", got, tt.want)
			}
			if math.Abs(conf-tt.wantConf) > 1e-9 {
				t.Errorf("confidence = %f, want %f", conf, tt.wantConf)
			}
		})
	}
}

func TestClassifier_RuleSets(t *testing.T) {
	simple := DefaultConfig()
	simple.Rules = RulesSimple
	upright := DefaultConfig()
	upright.Rules = RulesUpright

	tests := []struct {
		name     string
		cfg      Config
		hand     landmark.Hand
		want     Label
		wantConf float64
	}{
		{"simple: fist", simple, landmark.ClosedHand(), LabelClosedHand, 1},
		{"simple: thumbs up is a fist", simple, landmark.ThumbsUp(), LabelClosedHand, 1},
		{"simple: three folded is a loose fist", simple, landmark.Pointing(), LabelClosedHand, 1},
		{"simple: open palm unknown", simple, landmark.OpenPalm(), LabelUnknown, 0},
		{"simple: horns unknown", simple, landmark.SpecialPose(), LabelUnknown, 0},

		{"upright: open palm", upright, landmark.OpenPalm(), LabelOpenPalm, 1},
		{"upright: fist", upright, landmark.ClosedHand(), LabelClosedHand, 1},
		{"upright: lone thumb reads as a fist", upright, landmark.ThumbsUp(), LabelClosedHand, 0.8},
		{"upright: three digits unknown", upright, landmark.SpecialPose(), LabelUnknown, 0.6},
		{"upright: upside-down palm folds", upright, landmark.OpenPalm().Rotate(180), LabelClosedHand, 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, conf := NewClassifier(tt.cfg).Classify(pixels(tt.hand))
			if got != tt.want {
				t.Errorf("Classify = %s, want %s", got, tt.want)
			}
			if math.Abs(conf-tt.wantConf) > 1e-9 {
				t.Errorf("confidence = %f, want %f", conf, tt.wantConf)
			}
		})
	}

	// The full rules are distance based, so the same flipped palm stays open.
	if got, _ := NewClassifier(DefaultConfig()).Classify(pixels(landmark.OpenPalm().Rotate(180))); got != LabelOpenPalm {
		t.Errorf("full rules on a flipped palm = %s, want OPEN_PALM", got)
	}
}

func TestClassifier_DegenerateHand(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	var collapsed geometry.Pixels
	for i := range collapsed {
		collapsed[i] = geometry.Point{X: 320, Y: 240}
	}

	got, conf := c.Classify(&collapsed)
	if got != LabelUnknown || conf != 0 {
		t.Errorf("Classify = %s/%f, want UNKNOWN/0", got, conf)
	}
	if c.SpecialPose(&collapsed) {
		t.Error("SpecialPose on a collapsed hand should be false")
	}
}

func TestClassifier_ScaleInvariant(t *testing.T) {
	c := NewClassifier(DefaultConfig())
	h := landmark.ThumbsUp()

	for _, size := range []int{200, 640, 1920} {
		p := geometry.ToPixels(&h, size, size)
		if got, _ := c.Classify(&p); got != LabelThumbsUp {
			t.Errorf("at %dpx: Classify = %s, want THUMBS_UP", size, got)
		}
	}
}

func TestClassifier_Extended(t *testing.T) {
	c := NewClassifier(DefaultConfig())
	p := pixels(landmark.Pointing())

	want := map[int]bool{
		landmark.ThumbTip:  false,
		landmark.IndexTip:  true,
		landmark.MiddleTip: false,
		landmark.RingTip:   false,
		landmark.PinkyTip:  false,
	}
	for tip, ext := range want {
		if got := c.Extended(p, tip); got != ext {
			t.Errorf("Extended(%d) = %v, want %v", tip, got, ext)
		}
	}
	if !c.Folded(p, landmark.MiddleTip) {
		t.Error("middle finger should be folded")
	}
}

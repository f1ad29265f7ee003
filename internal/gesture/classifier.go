package gesture

import (
	"gonum.org/v1/gonum/stat"

	"github.com/ayusman/mudra/internal/geometry"
	"github.com/ayusman/mudra/internal/landmark"
)

// Classifier turns one hand's pixel landmarks into a static pose label and
// answers the finger-extension questions the other detectors need.
// It holds no per-hand state and is safe to share between lanes.
type Classifier struct {
	cfg Config
}

// NewClassifier creates a Classifier with the given thresholds.
func NewClassifier(cfg Config) *Classifier {
	return &Classifier{cfg: cfg}
}

// Extended reports whether the fingertip is further from the wrist than the
// extension threshold. The thumb uses its own, shorter threshold.
func (c *Classifier) Extended(p *geometry.Pixels, tip int) bool {
	d := geometry.NormalizedTipDistance(p, tip)
	if tip == landmark.ThumbTip {
		return d > c.cfg.ThumbExtendedRatio
	}
	return d > c.cfg.FingerExtendedRatio
}

// Folded reports whether the fingertip is closer to the wrist than the fold threshold.
func (c *Classifier) Folded(p *geometry.Pixels, tip int) bool {
	return geometry.NormalizedTipDistance(p, tip) < c.cfg.FingerFoldedRatio
}

// Classify returns the static pose and a confidence in [0, 1] using the
// configured rule set.
func (c *Classifier) Classify(p *geometry.Pixels) (Label, float64) {
	if geometry.HandSize(p) < geometry.Epsilon {
		return LabelUnknown, 0
	}
	switch c.cfg.Rules {
	case RulesSimple:
		return c.classifySimple(p)
	case RulesUpright:
		return c.classifyUpright(p)
	default:
		return c.classifyFull(p)
	}
}

// classifyFull applies the first matching rule:
//
//	four fingers out, open enough, thumb out       -> OPEN_PALM
//	no finger out, closed enough, thumb straight up -> THUMBS_UP
//	no finger out, closed enough                    -> CLOSED_HAND
//	at least two of five digits out                 -> HALF_OPEN
//	otherwise                                       -> UNKNOWN
func (c *Classifier) classifyFull(p *geometry.Pixels) (Label, float64) {
	dists, openness := c.tipDistances(p)
	fingers := 0
	for _, d := range dists {
		if d > c.cfg.FingerExtendedRatio {
			fingers++
		}
	}

	thumb := c.Extended(p, landmark.ThumbTip)
	digits := fingers
	if thumb {
		digits++
	}
	ratio := float64(digits) / 5

	switch {
	case fingers == 4 && openness >= c.cfg.OpenScore && thumb:
		return LabelOpenPalm, ratio
	case fingers == 0 && openness <= c.cfg.ClosedScore:
		if c.thumbUp(p) {
			return LabelThumbsUp, 1
		}
		return LabelClosedHand, 1
	case digits >= 2:
		return LabelHalfOpen, ratio
	default:
		return LabelUnknown, ratio
	}
}

// classifySimple only recognizes a loose fist: three of four fingers folded
// and the hand closed enough overall.
func (c *Classifier) classifySimple(p *geometry.Pixels) (Label, float64) {
	dists, openness := c.tipDistances(p)
	folded := 0
	for _, d := range dists {
		if d < c.cfg.FingerFoldedRatio {
			folded++
		}
	}
	if folded >= 3 && openness <= c.cfg.ClosedScore {
		return LabelClosedHand, 1
	}
	return LabelUnknown, 0
}

// classifyUpright counts a finger as extended when its tip is above its PIP
// joint and the thumb when its tip is far enough from the index knuckle.
// One digit or fewer is a fist, four or more an open palm. A lone thumb
// already reads as a fist, so this rule set never reports THUMBS_UP.
func (c *Classifier) classifyUpright(p *geometry.Pixels) (Label, float64) {
	digits := 0
	for _, tip := range landmark.FingerTips {
		if p[tip].Y < p[tip-2].Y {
			digits++
		}
	}
	size := geometry.HandSize(p)
	if geometry.Distance(p[landmark.ThumbTip], p[landmark.IndexMCP]) > c.cfg.ThumbIndexRatio*size {
		digits++
	}

	switch {
	case digits <= 1:
		return LabelClosedHand, float64(5-digits) / 5
	case digits >= 4:
		return LabelOpenPalm, float64(digits) / 5
	default:
		return LabelUnknown, float64(digits) / 5
	}
}

// tipDistances returns the four fingertip distances and their mean.
func (c *Classifier) tipDistances(p *geometry.Pixels) ([]float64, float64) {
	dists := make([]float64, len(landmark.FingerTips))
	for i, tip := range landmark.FingerTips {
		dists[i] = geometry.NormalizedTipDistance(p, tip)
	}
	return dists, stat.Mean(dists, nil)
}

// thumbUp is the strict thumb test: extended, straight through the IP joint
// and spread away from the palm. The angles make it tolerant of in-plane rotation.
func (c *Classifier) thumbUp(p *geometry.Pixels) bool {
	if !c.Extended(p, landmark.ThumbTip) {
		return false
	}
	inline := geometry.AngleDegrees(p[landmark.ThumbMCP], p[landmark.ThumbIP], p[landmark.ThumbTip])
	if inline < c.cfg.ThumbInlineAngle {
		return false
	}
	spread := geometry.AngleDegrees(p[landmark.IndexMCP], p[landmark.ThumbMCP], p[landmark.ThumbTip])
	return spread >= c.cfg.ThumbSpreadAngle
}

package gesture

import (
	"github.com/ayusman/mudra/internal/geometry"
	"github.com/ayusman/mudra/internal/landmark"
)

// SpecialPose reports whether the hand shows the configured special pattern.
// The horns pattern is thumb, index and pinky extended with the middle and
// ring fingers folded. The pattern is tested independently of Classify so it
// can pre-empt every other label once it is stable.
func (c *Classifier) SpecialPose(p *geometry.Pixels) bool {
	if c.cfg.Special == SpecialOff || geometry.HandSize(p) < geometry.Epsilon {
		return false
	}
	if c.cfg.Special == SpecialDigits {
		n := 0
		for _, tip := range [5]int{landmark.ThumbTip, landmark.IndexTip, landmark.MiddleTip, landmark.RingTip, landmark.PinkyTip} {
			if c.Extended(p, tip) {
				n++
			}
		}
		return n >= c.cfg.SpecialMinDigits
	}
	return geometry.NormalizedTipDistance(p, landmark.ThumbTip) > c.cfg.SpecialThumbRatio &&
		c.Extended(p, landmark.IndexTip) &&
		c.Extended(p, landmark.PinkyTip) &&
		c.Folded(p, landmark.MiddleTip) &&
		c.Folded(p, landmark.RingTip)
}

// specialVotes tracks the special pose over a short window and derives the
// two thresholds the tracker acts on.
type specialVotes struct {
	history  *window[bool]
	forming  float64
	majority float64
}

func newSpecialVotes(cfg Config) *specialVotes {
	return &specialVotes{
		history:  newWindow[bool](cfg.SpecialWindow),
		forming:  cfg.SpecialPreblockFrac * float64(cfg.SpecialWindow),
		majority: cfg.SpecialMajorityFrac * float64(cfg.SpecialWindow),
	}
}

// push records this frame's flag and returns the vote count, whether the pose
// is forming (blocks directional detection) and whether it holds a majority.
func (s *specialVotes) push(ok bool) (votes int, forming, majority bool) {
	s.history.push(ok)
	votes = s.history.count(func(v bool) bool { return v })
	return votes, float64(votes) >= s.forming, float64(votes) >= s.majority
}

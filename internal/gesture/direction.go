package gesture

import (
	"math"
	"time"

	"github.com/ayusman/mudra/internal/geometry"
	"github.com/ayusman/mudra/internal/landmark"
)

// Direction is a directional detector's verdict for one frame. Ratio is the
// displacement (swipe) or vector length (pointing) in hand sizes.
type Direction struct {
	Label Label
	Ratio float64
}

// directionDetector is one lane's directional gesture source. The tracker
// skips detect while a special pose is forming.
type directionDetector interface {
	detect(p *geometry.Pixels, now time.Time) Direction
	// confirmed is called after a directional event fired for this lane.
	confirmed(l Label, now time.Time)
	reset()
}

func newDirectionDetector(cfg Config, c *Classifier) directionDetector {
	switch cfg.Direction {
	case DirectionPointing:
		return &pointing{cfg: cfg, classifier: c}
	case DirectionSwipe:
		return &swipe{cfg: cfg, trajectory: newWindow[trackPoint](cfg.SwipeWindow)}
	default:
		return noDirection{}
	}
}

type noDirection struct{}

func (noDirection) detect(*geometry.Pixels, time.Time) Direction { return Direction{} }
func (noDirection) confirmed(Label, time.Time)                   {}
func (noDirection) reset()                                       {}

// pointing classifies the index PIP to tip vector.
type pointing struct {
	cfg        Config
	classifier *Classifier
}

func (d *pointing) detect(p *geometry.Pixels, _ time.Time) Direction {
	if !d.classifier.Extended(p, landmark.IndexTip) {
		return Direction{}
	}

	size := geometry.HandSize(p)
	if size < geometry.Epsilon {
		return Direction{}
	}

	vx, vy := geometry.Vector(p[landmark.IndexPIP], p[landmark.IndexTip], size)
	length := math.Hypot(vx, vy)
	if length < d.cfg.PointMinLength {
		return Direction{}
	}
	ax, ay := math.Abs(vx), math.Abs(vy)

	// A knuckles-up hand pointing down often reads middle and ring as
	// extended, so a steep downward vector wins before the fold check.
	if vy > 0 && ay > ax*d.cfg.PointDownAxisRatio && length > d.cfg.PointDownMinLength {
		return Direction{Label: LabelSwipeDown, Ratio: length}
	}

	if d.classifier.Extended(p, landmark.MiddleTip) || d.classifier.Extended(p, landmark.RingTip) {
		return Direction{}
	}

	switch {
	case ay > ax*d.cfg.PointAxisRatio:
		if vy > 0 {
			return Direction{Label: LabelSwipeDown, Ratio: length}
		}
		return Direction{Label: LabelSwipeUp, Ratio: length}
	case ax > ay*d.cfg.PointAxisRatio:
		if vx > 0 {
			return Direction{Label: LabelSwipeRight, Ratio: length}
		}
		return Direction{Label: LabelSwipeLeft, Ratio: length}
	}
	return Direction{}
}

func (d *pointing) confirmed(Label, time.Time) {}
func (d *pointing) reset()                     {}

// trackPoint is one fingertip centroid sample.
type trackPoint struct {
	at  time.Time
	pos geometry.Point
}

// swipe classifies the displacement of the fingertip centroid across the
// last SwipeWindow frames. Vertical motion is checked first with a looser
// axis ratio and a smaller minimum. Samples older than SwipeMaxAge are
// dropped, so a hand that left the frame or was skipped while a special
// pose formed starts a fresh trajectory.
type swipe struct {
	cfg        Config
	trajectory *window[trackPoint]

	last   Label
	lastAt time.Time
}

func (d *swipe) detect(p *geometry.Pixels, now time.Time) Direction {
	d.trajectory.push(trackPoint{at: now, pos: geometry.FingertipCentroid(p)})
	if d.cfg.SwipeMaxAge > 0 {
		for now.Sub(d.trajectory.oldest().at) > d.cfg.SwipeMaxAge {
			d.trajectory.dropOldest()
		}
	}
	if !d.trajectory.full() {
		return Direction{}
	}

	size := geometry.HandSize(p)
	if size < geometry.Epsilon {
		return Direction{}
	}

	from, to := d.trajectory.oldest().pos, d.trajectory.newest().pos
	dx, dy := to.X-from.X, to.Y-from.Y
	ax, ay := math.Abs(dx), math.Abs(dy)

	var dir Direction
	switch {
	case ay > ax*d.cfg.SwipeVerticalRatio && ay >= d.cfg.SwipeVerticalMin*size:
		dir = Direction{Label: LabelSwipeUp, Ratio: ay / size}
		if dy > 0 {
			dir.Label = LabelSwipeDown
		}
	case ax > ay*d.cfg.SwipeHorizontalRatio && ax >= d.cfg.SwipeHorizontalMin*size:
		dir = Direction{Label: LabelSwipeLeft, Ratio: ax / size}
		if dx > 0 {
			dir.Label = LabelSwipeRight
		}
	default:
		return Direction{}
	}

	// The return stroke of a swipe is not a new gesture.
	if dir.Label == d.last.Opposite() && !d.lastAt.IsZero() && now.Sub(d.lastAt) < d.cfg.OppositeLag {
		return Direction{}
	}
	return dir
}

func (d *swipe) confirmed(l Label, now time.Time) {
	d.last, d.lastAt = l, now
	d.trajectory.reset()
}

func (d *swipe) reset() {
	d.trajectory.reset()
	d.last, d.lastAt = LabelUnknown, time.Time{}
}

package gesture

import (
	"math"
	"time"

	"github.com/ayusman/mudra/internal/geometry"
	"github.com/ayusman/mudra/internal/landmark"
)

// Tracker is the temporal state machine for a single hand. It smooths the
// per-frame labels, resolves the frame's state by priority and decides
// whether that state becomes an event.
//
// A Tracker is not safe for concurrent use.
type Tracker struct {
	cfg        Config
	classifier *Classifier

	labels    *window[Label]
	special   *specialVotes
	direction directionDetector

	lastConfirmed  Label
	candidate      Label
	candidateSince time.Time
	lastEvent      time.Time
	lastSpecial    time.Time

	state LaneState
}

// NewTracker creates a tracker. The classifier may be shared between trackers.
func NewTracker(cfg Config, classifier *Classifier) *Tracker {
	if classifier == nil {
		classifier = NewClassifier(cfg)
	}
	return &Tracker{
		cfg:        cfg,
		classifier: classifier,
		labels:     newWindow[Label](cfg.SmoothFrames),
		special:    newSpecialVotes(cfg),
		direction:  newDirectionDetector(cfg, classifier),
	}
}

// Update feeds one frame of this hand and returns the event it produced, if any.
func (t *Tracker) Update(p *geometry.Pixels, now time.Time) (Event, bool) {
	base, _ := t.classifier.Classify(p)
	t.labels.push(base)
	stable, votes := majority(t.labels)
	if votes < t.cfg.Quorum() {
		stable = LabelUnknown
	}

	spVotes, forming, spMajority := t.special.push(t.classifier.SpecialPose(p))

	var dir Direction
	if !forming {
		dir = t.direction.detect(p, now)
		if dir.Label == LabelSwipeUp && t.classifier.Extended(p, landmark.PinkyTip) {
			dir = Direction{}
		}
	}

	final := resolve(spMajority, dir, stable)

	t.state.Final = final
	t.state.Majority = stable
	t.state.Votes = votes
	t.state.SpecialVotes = spVotes
	t.state.Ratio = dir.Ratio
	t.state.LastSeen = now

	ev, ok := t.gate(final, now)
	if ok {
		switch final.Kind() {
		case KindBase:
			ev.Confidence = float64(votes) / float64(t.labels.len())
		case KindDirectional:
			ev.Confidence = math.Min(1, dir.Ratio)
			t.direction.confirmed(final, now)
		case KindSpecial:
			ev.Confidence = 1
		}
	}
	t.state.LastConfirmed = t.lastConfirmed
	return ev, ok
}

func (t *Tracker) gate(final Label, now time.Time) (Event, bool) {
	if final.IsNeutral() {
		t.lastConfirmed = LabelUnknown
		t.candidate, t.candidateSince = LabelUnknown, time.Time{}
		return Event{}, false
	}

	if final != t.candidate {
		t.candidate, t.candidateSince = final, now
	}
	if final == t.lastConfirmed && (t.cfg.Retrigger == 0 || now.Sub(t.lastEvent) <= t.cfg.Retrigger) {
		return Event{}, false
	}
	if t.cfg.Gating == GatingDuration && now.Sub(t.candidateSince) < t.cfg.DebounceDuration {
		return Event{}, false
	}
	if !t.lastEvent.IsZero() && now.Sub(t.lastEvent) < t.cfg.ActionCooldown {
		return Event{}, false
	}
	if final == LabelSpecialPose && !t.lastSpecial.IsZero() && now.Sub(t.lastSpecial) <= t.cfg.SpecialCooldown {
		return Event{}, false
	}

	t.lastConfirmed = final
	t.lastEvent = now
	if final == LabelSpecialPose {
		t.lastSpecial = now
	}
	return Event{Label: final, Time: now}, true
}

// State returns a snapshot of the tracker after the last Update.
func (t *Tracker) State() LaneState {
	return t.state
}

// Reset clears every window and timer.
func (t *Tracker) Reset() {
	t.labels.reset()
	t.special.history.reset()
	t.direction.reset()
	t.lastConfirmed, t.candidate = LabelUnknown, LabelUnknown
	t.candidateSince, t.lastEvent, t.lastSpecial = time.Time{}, time.Time{}, time.Time{}
	t.state = LaneState{Lane: t.state.Lane}
}

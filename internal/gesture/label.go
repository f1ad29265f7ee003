package gesture

import (
	"fmt"
	"strings"
)

// Label is the closed vocabulary of per-frame hand states and emitted gestures.
type Label uint8

const (
	LabelUnknown Label = iota

	// Static poses produced by the classifier.
	LabelOpenPalm
	LabelClosedHand
	LabelHalfOpen
	LabelThumbsUp

	// Directional gestures produced by the direction detector.
	LabelSwipeUp
	LabelSwipeDown
	LabelSwipeLeft
	LabelSwipeRight

	// The configured special pose; highest priority.
	LabelSpecialPose

	numLabels
)

// Kind groups labels by the detector that produces them.
type Kind uint8

const (
	KindNeutral Kind = iota
	KindBase
	KindDirectional
	KindSpecial
)

var labelNames = [numLabels]string{
	LabelUnknown:     "UNKNOWN",
	LabelOpenPalm:    "OPEN_PALM",
	LabelClosedHand:  "CLOSED_HAND",
	LabelHalfOpen:    "HALF_OPEN",
	LabelThumbsUp:    "THUMBS_UP",
	LabelSwipeUp:     "SWIPE_UP",
	LabelSwipeDown:   "SWIPE_DOWN",
	LabelSwipeLeft:   "SWIPE_LEFT",
	LabelSwipeRight:  "SWIPE_RIGHT",
	LabelSpecialPose: "SPECIAL_POSE",
}

// Labels returns every non-neutral label in priority order, lowest first.
func Labels() []Label {
	out := make([]Label, 0, numLabels-1)
	for l := LabelOpenPalm; l < numLabels; l++ {
		out = append(out, l)
	}
	return out
}

// String returns the upper-case wire name, e.g. "SWIPE_LEFT".
func (l Label) String() string {
	if l >= numLabels {
		return fmt.Sprintf("Label(%d)", uint8(l))
	}
	return labelNames[l]
}

// Action returns the lower-case action name sent to event consumers,
// e.g. "swipe_left".
func (l Label) Action() string {
	return strings.ToLower(l.String())
}

// Kind reports which detector family produces l.
func (l Label) Kind() Kind {
	switch {
	case l == LabelUnknown || l >= numLabels:
		return KindNeutral
	case l <= LabelThumbsUp:
		return KindBase
	case l <= LabelSwipeRight:
		return KindDirectional
	default:
		return KindSpecial
	}
}

// IsNeutral is true for UNKNOWN, which never produces an event.
func (l Label) IsNeutral() bool {
	return l.Kind() == KindNeutral
}

// Opposite returns the reverse direction of a directional label, or
// LabelUnknown for any other label.
func (l Label) Opposite() Label {
	switch l {
	case LabelSwipeUp:
		return LabelSwipeDown
	case LabelSwipeDown:
		return LabelSwipeUp
	case LabelSwipeLeft:
		return LabelSwipeRight
	case LabelSwipeRight:
		return LabelSwipeLeft
	}
	return LabelUnknown
}

// ParseLabel accepts either the wire name ("OPEN_PALM") or the action name ("open_palm").
func ParseLabel(s string) (Label, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for l, name := range labelNames {
		if name == upper {
			return Label(l), nil
		}
	}
	return LabelUnknown, fmt.Errorf("unknown gesture label %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (l Label) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Label) UnmarshalText(b []byte) error {
	parsed, err := ParseLabel(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// resolve picks the single state for a frame by strict priority:
// special pose, then direction, then the smoothed base label.
func resolve(specialMajority bool, direction Direction, base Label) Label {
	switch {
	case specialMajority:
		return LabelSpecialPose
	case !direction.Label.IsNeutral():
		return direction.Label
	default:
		return base
	}
}

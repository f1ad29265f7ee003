// Package gesture turns per-frame hand landmarks into debounced gesture
// events. A Session owns one Tracker per hand lane; each Tracker smooths the
// classifier's labels over a short window, layers the special pose and the
// directional detector on top by priority and gates emission with cooldowns.
//
// The package does no I/O and keeps no goroutines. Process must be called
// from a single goroutine, once per frame.
package gesture

import (
	"fmt"
	"sort"
	"time"

	"github.com/ayusman/mudra/internal/geometry"
	"github.com/ayusman/mudra/internal/landmark"
)

// Frame is one detector output: every hand seen in the frame plus the frame
// size used to scale the normalized landmarks.
type Frame struct {
	Hands  []landmark.Hand
	Width  int
	Height int
	Time   time.Time
}

// Session is the multi-hand engine.
type Session struct {
	cfg        Config
	classifier *Classifier
	lanes      *laneSet
}

// NewSession validates cfg and creates an empty session.
func NewSession(cfg Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid gesture config: %w", err)
	}
	c := NewClassifier(cfg)
	return &Session{cfg: cfg, classifier: c, lanes: newLaneSet(cfg, c)}, nil
}

// Config returns the thresholds the session was built with.
func (s *Session) Config() Config {
	return s.cfg
}

// Process runs every hand in the frame through its lane's tracker and
// returns the events fired, ordered by lane. Lanes missing from the frame
// are left untouched. If any hand is malformed, Process returns an error
// wrapping landmark.ErrInvalidObservation and no state changes.
func (s *Session) Process(f Frame) ([]Event, error) {
	if len(f.Hands) > 0 && (f.Width <= 0 || f.Height <= 0) {
		return nil, fmt.Errorf("frame size %dx%d: %w", f.Width, f.Height, landmark.ErrInvalidObservation)
	}

	pixels := make([]geometry.Pixels, len(f.Hands))
	for i := range f.Hands {
		if err := f.Hands[i].Validate(); err != nil {
			return nil, fmt.Errorf("hand %d: %w", i, err)
		}
		pixels[i] = geometry.ToPixels(&f.Hands[i], f.Width, f.Height)
	}

	var events []Event
	for i, l := range s.lanes.assign(pixels, f.Time) {
		if ev, ok := l.tracker.Update(&pixels[i], f.Time); ok {
			ev.Lane = l.id
			events = append(events, ev)
		}
	}
	s.lanes.expire(f.Time)

	sort.SliceStable(events, func(i, j int) bool { return events[i].Lane < events[j].Lane })
	return events, nil
}

// States returns a snapshot of every live lane, ordered by lane.
func (s *Session) States() []LaneState {
	lanes := s.lanes.sorted()
	out := make([]LaneState, len(lanes))
	for i, l := range lanes {
		out[i] = l.tracker.State()
	}
	return out
}

// Len is the number of live lanes.
func (s *Session) Len() int {
	return len(s.lanes.byID)
}

// Reset drops every lane.
func (s *Session) Reset() {
	s.lanes = newLaneSet(s.cfg, s.classifier)
}

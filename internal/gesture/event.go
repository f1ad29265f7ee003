package gesture

import "time"

// Event is one emitted gesture. Events are immutable once returned and may be
// handed to other goroutines freely.
type Event struct {
	Lane       int       `json:"lane"`
	Label      Label     `json:"label"`
	Confidence float64   `json:"confidence"`
	Time       time.Time `json:"time"`
}

// LaneState is a snapshot of one lane's tracker, for overlays and debugging.
// Ratio is the last frame's uncapped directional ratio in hand sizes, zero
// when no direction was detected.
type LaneState struct {
	Lane          int       `json:"lane"`
	Final         Label     `json:"final"`
	Majority      Label     `json:"majority"`
	Votes         int       `json:"votes"`
	SpecialVotes  int       `json:"special_votes"`
	Ratio         float64   `json:"ratio"`
	LastConfirmed Label     `json:"last_confirmed"`
	LastSeen      time.Time `json:"last_seen"`
}

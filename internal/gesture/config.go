package gesture

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrUnknownProfile is returned by Profile for a name with no registered thresholds.
var ErrUnknownProfile = errors.New("unknown gesture profile")

// GatingPolicy selects how a stable state becomes an event.
type GatingPolicy string

const (
	// GatingEdge fires once whenever the resolved state changes.
	GatingEdge GatingPolicy = "edge"
	// GatingDuration fires once the resolved state has held for DebounceDuration.
	GatingDuration GatingPolicy = "duration"
)

// DirectionStrategy selects the directional detector.
type DirectionStrategy string

const (
	// DirectionSwipe classifies the displacement of the fingertip centroid.
	DirectionSwipe DirectionStrategy = "swipe"
	// DirectionPointing classifies where the extended index finger points.
	DirectionPointing DirectionStrategy = "pointing"
	// DirectionOff disables directional gestures.
	DirectionOff DirectionStrategy = "off"
)

// Rules selects the base classifier's rule set.
type Rules string

const (
	// RulesFull scores openness by fingertip distance and tells OPEN_PALM,
	// THUMBS_UP, CLOSED_HAND and HALF_OPEN apart.
	RulesFull Rules = "full"
	// RulesSimple only recognizes a loose fist: CLOSED_HAND or UNKNOWN.
	RulesSimple Rules = "simple"
	// RulesUpright counts a finger as extended when its tip is above its PIP
	// joint and the thumb when it is away from the index knuckle. It assumes
	// an upright hand.
	RulesUpright Rules = "upright"
)

// SpecialPattern selects which hand shape counts as the special pose.
type SpecialPattern string

const (
	// SpecialHorns is thumb, index and pinky out with middle and ring folded.
	SpecialHorns SpecialPattern = "horns"
	// SpecialDigits is any SpecialMinDigits of the five digits extended.
	SpecialDigits SpecialPattern = "digits"
	// SpecialOff disables the special pose.
	SpecialOff SpecialPattern = "off"
)

// LaneStrategy selects how detector hands are mapped to per-hand state.
type LaneStrategy string

const (
	// LanesByIndex uses the detector's per-frame hand index as the lane.
	LanesByIndex LaneStrategy = "index"
	// LanesNearest re-identifies hands by nearest fingertip centroid.
	LanesNearest LaneStrategy = "nearest"
)

// Config holds every tunable threshold of the engine. Distances are in hand
// sizes (wrist to middle MCP), angles in degrees.
type Config struct {
	// Base label smoothing.
	SmoothFrames   int `yaml:"smooth_frames" json:"smooth_frames"`
	MajorityQuorum int `yaml:"majority_quorum" json:"majority_quorum"` // 0 means a strict majority of SmoothFrames

	// Finger extension tests.
	Rules               Rules   `yaml:"rules" json:"rules"`
	FingerExtendedRatio float64 `yaml:"finger_extended_ratio" json:"finger_extended_ratio"`
	FingerFoldedRatio   float64 `yaml:"finger_folded_ratio" json:"finger_folded_ratio"`
	ThumbExtendedRatio  float64 `yaml:"thumb_extended_ratio" json:"thumb_extended_ratio"`
	OpenScore           float64 `yaml:"open_score" json:"open_score"`
	ClosedScore         float64 `yaml:"closed_score" json:"closed_score"`
	ThumbInlineAngle    float64 `yaml:"thumb_inline_angle" json:"thumb_inline_angle"`
	ThumbSpreadAngle    float64 `yaml:"thumb_spread_angle" json:"thumb_spread_angle"`
	ThumbIndexRatio     float64 `yaml:"thumb_index_ratio" json:"thumb_index_ratio"` // upright rules only

	// Special pose.
	Special             SpecialPattern `yaml:"special" json:"special"`
	SpecialMinDigits    int            `yaml:"special_min_digits" json:"special_min_digits"`
	SpecialThumbRatio   float64        `yaml:"special_thumb_ratio" json:"special_thumb_ratio"`
	SpecialWindow       int            `yaml:"special_window" json:"special_window"`
	SpecialMajorityFrac float64        `yaml:"special_majority_frac" json:"special_majority_frac"`
	SpecialPreblockFrac float64        `yaml:"special_preblock_frac" json:"special_preblock_frac"`
	SpecialCooldown     time.Duration  `yaml:"special_cooldown" json:"special_cooldown"`

	// Event gating. Retrigger re-fires a held state once this long has
	// passed since its last event; zero fires each state once.
	ActionCooldown   time.Duration `yaml:"action_cooldown" json:"action_cooldown"`
	Gating           GatingPolicy  `yaml:"gating" json:"gating"`
	DebounceDuration time.Duration `yaml:"debounce_duration" json:"debounce_duration"`
	Retrigger        time.Duration `yaml:"retrigger" json:"retrigger"`

	// Directional gestures.
	Direction          DirectionStrategy `yaml:"direction" json:"direction"`
	PointAxisRatio     float64           `yaml:"point_axis_ratio" json:"point_axis_ratio"`
	PointMinLength     float64           `yaml:"point_min_length" json:"point_min_length"`
	PointDownAxisRatio float64           `yaml:"point_down_axis_ratio" json:"point_down_axis_ratio"`
	PointDownMinLength float64           `yaml:"point_down_min_length" json:"point_down_min_length"`

	SwipeWindow          int           `yaml:"swipe_window" json:"swipe_window"`
	SwipeVerticalRatio   float64       `yaml:"swipe_vertical_ratio" json:"swipe_vertical_ratio"`
	SwipeVerticalMin     float64       `yaml:"swipe_vertical_min" json:"swipe_vertical_min"`
	SwipeHorizontalRatio float64       `yaml:"swipe_horizontal_ratio" json:"swipe_horizontal_ratio"`
	SwipeHorizontalMin   float64       `yaml:"swipe_horizontal_min" json:"swipe_horizontal_min"`
	SwipeMaxAge          time.Duration `yaml:"swipe_max_age" json:"swipe_max_age"` // trajectory points older than this are dropped
	OppositeLag          time.Duration `yaml:"opposite_lag" json:"opposite_lag"`

	// Lane lifecycle.
	Lanes        LaneStrategy  `yaml:"lanes" json:"lanes"`
	ReidDistance float64       `yaml:"reid_distance" json:"reid_distance"`
	LaneTTL      time.Duration `yaml:"lane_ttl" json:"lane_ttl"`
}

// DefaultConfig returns the full classifier with swipe detection and
// edge-triggered gating.
func DefaultConfig() Config {
	return Config{
		SmoothFrames: 8,

		Rules:               RulesFull,
		FingerExtendedRatio: 1.65,
		FingerFoldedRatio:   1.32,
		ThumbExtendedRatio:  1.10,
		OpenScore:           1.65,
		ClosedScore:         1.20,
		ThumbInlineAngle:    150,
		ThumbSpreadAngle:    35,
		ThumbIndexRatio:     0.5,

		Special:             SpecialHorns,
		SpecialMinDigits:    4,
		SpecialThumbRatio:   1.10,
		SpecialWindow:       6,
		SpecialMajorityFrac: 0.7,
		SpecialPreblockFrac: 0.34,
		SpecialCooldown:     1500 * time.Millisecond,

		ActionCooldown:   500 * time.Millisecond,
		Gating:           GatingEdge,
		DebounceDuration: 250 * time.Millisecond,

		Direction:          DirectionSwipe,
		PointAxisRatio:     1.3,
		PointMinLength:     0.35,
		PointDownAxisRatio: 1.1,
		PointDownMinLength: 0.20,

		SwipeWindow:          6,
		SwipeVerticalRatio:   1.2,
		SwipeVerticalMin:     0.6,
		SwipeHorizontalRatio: 1.6,
		SwipeHorizontalMin:   0.9,
		SwipeMaxAge:          500 * time.Millisecond,
		OppositeLag:          600 * time.Millisecond,

		Lanes:        LanesByIndex,
		ReidDistance: 1.5,
	}
}

var profiles = map[string]func() Config{
	"default": DefaultConfig,

	// Single-hand pointing engine: a fist-only classifier, index-finger
	// direction and any four digits out as the special pose.
	"engine": func() Config {
		c := DefaultConfig()
		c.Rules = RulesSimple
		c.Special = SpecialDigits
		c.SpecialMinDigits = 4
		c.Direction = DirectionPointing
		return c
	},

	// Two-hand static pose recognizer: upright finger tests, a shorter
	// window, duration debounce and a held pose repeating every second.
	"classic": func() Config {
		c := DefaultConfig()
		c.Rules = RulesUpright
		c.ThumbIndexRatio = 0.5
		c.SmoothFrames = 6
		c.Gating = GatingDuration
		c.DebounceDuration = 250 * time.Millisecond
		c.ActionCooldown = 0
		c.Retrigger = time.Second
		c.Special = SpecialOff
		c.Direction = DirectionOff
		return c
	},
}

// Profile returns the named threshold set.
func Profile(name string) (Config, error) {
	if name == "" {
		name = "default"
	}
	fn, ok := profiles[name]
	if !ok {
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
	return fn(), nil
}

// ProfileNames lists the registered profiles in sorted order.
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Quorum is the vote count the base majority label needs to be considered stable.
func (c Config) Quorum() int {
	if c.MajorityQuorum > 0 {
		return c.MajorityQuorum
	}
	return c.SmoothFrames/2 + 1
}

// Validate reports the first threshold that cannot work.
func (c Config) Validate() error {
	switch {
	case c.SmoothFrames <= 0:
		return fmt.Errorf("smooth_frames must be positive, got %d", c.SmoothFrames)
	case c.MajorityQuorum < 0 || c.MajorityQuorum > c.SmoothFrames:
		return fmt.Errorf("majority_quorum must be within [0, %d], got %d", c.SmoothFrames, c.MajorityQuorum)
	case c.SpecialWindow <= 0:
		return fmt.Errorf("special_window must be positive, got %d", c.SpecialWindow)
	case c.SpecialMajorityFrac <= 0 || c.SpecialMajorityFrac > 1:
		return fmt.Errorf("special_majority_frac must be within (0, 1], got %v", c.SpecialMajorityFrac)
	case c.SpecialPreblockFrac <= 0 || c.SpecialPreblockFrac > c.SpecialMajorityFrac:
		return fmt.Errorf("special_preblock_frac must be within (0, special_majority_frac], got %v", c.SpecialPreblockFrac)
	case c.SpecialCooldown < 0 || c.ActionCooldown < 0 || c.DebounceDuration < 0 || c.OppositeLag < 0 || c.LaneTTL < 0 ||
		c.Retrigger < 0 || c.SwipeMaxAge < 0:
		return errors.New("durations must not be negative")
	case c.FingerFoldedRatio > c.FingerExtendedRatio:
		return fmt.Errorf("finger_folded_ratio %v exceeds finger_extended_ratio %v", c.FingerFoldedRatio, c.FingerExtendedRatio)
	}

	switch c.Rules {
	case RulesFull, RulesSimple:
	case RulesUpright:
		if c.ThumbIndexRatio <= 0 {
			return fmt.Errorf("thumb_index_ratio must be positive, got %v", c.ThumbIndexRatio)
		}
	default:
		return fmt.Errorf("unknown classifier rules %q", c.Rules)
	}

	switch c.Special {
	case SpecialHorns, SpecialOff:
	case SpecialDigits:
		if c.SpecialMinDigits < 1 || c.SpecialMinDigits > 5 {
			return fmt.Errorf("special_min_digits must be within [1, 5], got %d", c.SpecialMinDigits)
		}
	default:
		return fmt.Errorf("unknown special pattern %q", c.Special)
	}

	switch c.Gating {
	case GatingEdge, GatingDuration:
	default:
		return fmt.Errorf("unknown gating policy %q", c.Gating)
	}

	switch c.Direction {
	case DirectionSwipe:
		if c.SwipeWindow < 2 {
			return fmt.Errorf("swipe_window must be at least 2, got %d", c.SwipeWindow)
		}
	case DirectionPointing, DirectionOff:
	default:
		return fmt.Errorf("unknown direction strategy %q", c.Direction)
	}

	switch c.Lanes {
	case LanesByIndex:
	case LanesNearest:
		if c.ReidDistance <= 0 {
			return fmt.Errorf("reid_distance must be positive, got %v", c.ReidDistance)
		}
	default:
		return fmt.Errorf("unknown lane strategy %q", c.Lanes)
	}

	return nil
}

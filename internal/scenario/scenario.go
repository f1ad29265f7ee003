// Package scenario describes scripted hand sequences in YAML and replays
// them through the gesture engine. Scenarios stand in for recorded camera
// footage when testing recognition end to end.
package scenario

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/landmark"
)

//go:embed scenarios/*.yaml
var builtin embed.FS

// ErrUnknownPose is returned for a hand whose pose has no preset.
var ErrUnknownPose = errors.New("unknown pose")

// Epoch is the timestamp of the first frame of every replay.
var Epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

const (
	defaultInterval = 50 * time.Millisecond
	defaultSize     = 1000
)

var poses = map[string]func() landmark.Hand{
	"open_palm":    landmark.OpenPalm,
	"closed_hand":  landmark.ClosedHand,
	"thumbs_up":    landmark.ThumbsUp,
	"special_pose": landmark.SpecialPose,
	"pointing":     landmark.Pointing,
}

// Pose returns the preset hand registered under name.
func Pose(name string) (landmark.Hand, error) {
	fn, ok := poses[name]
	if !ok {
		return landmark.Hand{}, fmt.Errorf("%w: %q", ErrUnknownPose, name)
	}
	return fn(), nil
}

// Scenario is a scripted sequence of frames and the events it should produce.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// Profile and Overrides select the engine thresholds, as in the
	// gesture section of the config file.
	Profile   string    `yaml:"profile"`
	Overrides yaml.Node `yaml:"overrides"`

	FrameInterval time.Duration `yaml:"frame_interval"`
	Size          int           `yaml:"size"`

	Steps  []Step        `yaml:"steps"`
	Expect []Expectation `yaml:"expect"`
}

// Step repeats the same hands for Frames frames. An empty Hands list is a
// frame with nobody in view.
type Step struct {
	Frames int        `yaml:"frames"`
	Hands  []HandSpec `yaml:"hands"`
}

// HandSpec places a preset pose. X and Y shift the hand in normalized
// image units, VX and VY add a further shift per frame within the step.
type HandSpec struct {
	Pose   string  `yaml:"pose"`
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	VX     float64 `yaml:"vx"`
	VY     float64 `yaml:"vy"`
	Rotate float64 `yaml:"rotate"`
}

// Expectation is one event the scenario should emit.
type Expectation struct {
	Frame int    `yaml:"frame" json:"frame"`
	Lane  int    `yaml:"lane" json:"lane"`
	Label string `yaml:"label" json:"label"`
}

// Parse decodes and checks a scenario document.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("scenario %q: %w", s.Name, err)
	}
	return &s, nil
}

// ParseFile reads a scenario from disk.
func ParseFile(p string) (*Scenario, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(data)
}

// Load returns a built-in scenario by name.
func Load(name string) (*Scenario, error) {
	data, err := builtin.ReadFile(path.Join("scenarios", name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("load scenario %s: %w", name, err)
	}
	return Parse(data)
}

// Names lists the built-in scenarios in sorted order.
func Names() []string {
	entries, _ := builtin.ReadDir("scenarios")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

func (s *Scenario) validate() error {
	if len(s.Steps) == 0 {
		return errors.New("no steps")
	}
	for i, st := range s.Steps {
		if st.Frames <= 0 {
			return fmt.Errorf("step %d: frames must be positive", i)
		}
		for _, h := range st.Hands {
			if _, ok := poses[h.Pose]; !ok {
				return fmt.Errorf("step %d: %w: %q", i, ErrUnknownPose, h.Pose)
			}
		}
	}
	for _, e := range s.Expect {
		if _, err := gesture.ParseLabel(e.Label); err != nil {
			return fmt.Errorf("expect frame %d: %w", e.Frame, err)
		}
	}
	if s.FrameInterval < 0 || s.Size < 0 {
		return errors.New("frame_interval and size must not be negative")
	}
	return nil
}

// Config resolves the engine thresholds for the scenario.
func (s *Scenario) Config() (gesture.Config, error) {
	cfg, err := gesture.Profile(s.Profile)
	if err != nil {
		return gesture.Config{}, err
	}
	if !s.Overrides.IsZero() {
		if err := s.Overrides.Decode(&cfg); err != nil {
			return gesture.Config{}, fmt.Errorf("scenario overrides: %w", err)
		}
	}
	return cfg, nil
}

// Frames expands the steps into engine frames starting at Epoch.
func (s *Scenario) Frames() []gesture.Frame {
	interval := s.FrameInterval
	if interval == 0 {
		interval = defaultInterval
	}
	size := s.Size
	if size == 0 {
		size = defaultSize
	}

	var frames []gesture.Frame
	for _, st := range s.Steps {
		for i := 0; i < st.Frames; i++ {
			hands := make([]landmark.Hand, len(st.Hands))
			for j, spec := range st.Hands {
				h := poses[spec.Pose]()
				if spec.Rotate != 0 {
					h = h.Rotate(spec.Rotate)
				}
				hands[j] = h.Translate(spec.X+float64(i)*spec.VX, spec.Y+float64(i)*spec.VY)
			}
			frames = append(frames, gesture.Frame{
				Hands:  hands,
				Width:  size,
				Height: size,
				Time:   Epoch.Add(time.Duration(len(frames)) * interval),
			})
		}
	}
	return frames
}

// Processor consumes one frame; gesture.Session and the app both fit.
type Processor func(gesture.Frame) ([]gesture.Event, error)

// Replay feeds every frame to process and returns what fired, in the same
// shape as Expect.
func (s *Scenario) Replay(process Processor) ([]Expectation, error) {
	var got []Expectation
	for i, f := range s.Frames() {
		events, err := process(f)
		if err != nil {
			return got, fmt.Errorf("frame %d: %w", i, err)
		}
		for _, e := range events {
			got = append(got, Expectation{Frame: i, Lane: e.Lane, Label: e.Label.String()})
		}
	}
	return got, nil
}

// Run replays the scenario through a fresh session built from its config.
func (s *Scenario) Run() ([]Expectation, error) {
	cfg, err := s.Config()
	if err != nil {
		return nil, err
	}
	session, err := gesture.NewSession(cfg)
	if err != nil {
		return nil, err
	}
	return s.Replay(session.Process)
}

package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ayusman/mudra/internal/gesture"
)

func TestBuiltin(t *testing.T) {
	names := Names()
	if len(names) == 0 {
		t.Fatal("no built-in scenarios")
	}

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			s, err := Load(name)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if s.Name != name {
				t.Errorf("Name = %q, file is %q", s.Name, name)
			}

			got, err := s.Run()
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if diff := cmp.Diff(s.Expect, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("events mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoad_Unknown(t *testing.T) {
	if _, err := Load("no-such-scenario"); err == nil {
		t.Fatal("expected error for unknown scenario")
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"bad yaml", "steps: ["},
		{"no steps", "name: empty\n"},
		{"zero frames", "steps:\n  - frames: 0\n"},
		{"unknown pose", "steps:\n  - frames: 1\n    hands:\n      - pose: jazz_hands\n"},
		{"unknown label", "steps:\n  - frames: 1\nexpect:\n  - {frame: 0, label: WAVE}\n"},
		{"negative interval", "frame_interval: -1s\nsteps:\n  - frames: 1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.doc)); err == nil {
				t.Error("expected error")
			}
		})
	}

	_, err := Parse([]byte("steps:\n  - frames: 1\n    hands:\n      - pose: jazz_hands\n"))
	if !errors.Is(err, ErrUnknownPose) {
		t.Errorf("error = %v, want ErrUnknownPose", err)
	}
}

func TestFrames(t *testing.T) {
	s, err := Parse([]byte(`
frame_interval: 100ms
size: 640
steps:
  - frames: 2
    hands:
      - pose: open_palm
        x: 0.1
        vx: 0.05
  - frames: 1
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	frames := s.Frames()
	if len(frames) != 3 {
		t.Fatalf("got %d frames, want 3", len(frames))
	}
	if !frames[2].Time.Equal(Epoch.Add(200 * time.Millisecond)) {
		t.Errorf("frame 2 time = %v", frames[2].Time.Sub(Epoch))
	}
	if frames[0].Width != 640 || frames[0].Height != 640 {
		t.Errorf("size = %dx%d", frames[0].Width, frames[0].Height)
	}
	if len(frames[2].Hands) != 0 {
		t.Errorf("empty step produced %d hands", len(frames[2].Hands))
	}

	palm, _ := Pose("open_palm")
	dx := frames[1].Hands[0].Points[0].X - palm.Points[0].X
	if diff := dx - 0.15; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("second frame shifted by %v, want 0.15", dx)
	}
}

func TestConfig_Overrides(t *testing.T) {
	s, err := Parse([]byte("profile: engine\noverrides:\n  smooth_frames: 4\nsteps:\n  - frames: 1\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	cfg, err := s.Config()
	if err != nil {
		t.Fatalf("Config() error = %v", err)
	}
	base, _ := gesture.Profile("engine")
	if cfg.SmoothFrames != 4 || cfg.Direction != base.Direction {
		t.Errorf("SmoothFrames = %d, Direction = %q", cfg.SmoothFrames, cfg.Direction)
	}

	s.Profile = "nope"
	if _, err := s.Config(); !errors.Is(err, gesture.ErrUnknownProfile) {
		t.Errorf("error = %v, want ErrUnknownProfile", err)
	}
}

func TestParseFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "s.yaml")
	os.WriteFile(p, []byte("name: file\nsteps:\n  - frames: 3\n"), 0o644)

	s, err := ParseFile(p)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	got, err := s.Run()
	if err != nil || len(got) != 0 {
		t.Errorf("Run() = %v, %v; want no events", got, err)
	}

	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

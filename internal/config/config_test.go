package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/gesture"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mudra.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault_Validates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	g, err := cfg.Gesture.Resolve()
	if err != nil {
		t.Fatal(err)
	}
	if g != gesture.DefaultConfig() {
		t.Errorf("default gesture config = %+v, want gesture.DefaultConfig()", g)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
camera:
  device: 1
  mirror: false
transport:
  url: http://localhost:5005/
  offline: false
  timeout: 2s
gesture:
  profile: engine
  overrides:
    smooth_frames: 10
    action_cooldown: 750ms
    lanes: nearest
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Addr != ":9090" {
		t.Errorf("server.addr = %q", cfg.Server.Addr)
	}
	if cfg.Camera.Device != 1 || cfg.Camera.Mirror {
		t.Errorf("camera = %+v", cfg.Camera)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Camera.Width != 640 || cfg.Camera.FPS != 30 {
		t.Errorf("camera defaults lost: %+v", cfg.Camera)
	}
	if cfg.Transport.Offline || cfg.Transport.Timeout != 2*time.Second {
		t.Errorf("transport = %+v", cfg.Transport)
	}

	g, err := cfg.Gesture.Resolve()
	if err != nil {
		t.Fatal(err)
	}
	if g.Direction != gesture.DirectionPointing {
		t.Errorf("direction = %q, want pointing from the engine profile", g.Direction)
	}
	if g.SmoothFrames != 10 || g.ActionCooldown != 750*time.Millisecond || g.Lanes != gesture.LanesNearest {
		t.Errorf("overrides not applied: %+v", g)
	}
	if g.SpecialCooldown != 1500*time.Millisecond {
		t.Errorf("special_cooldown = %v, want profile value", g.SpecialCooldown)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"bad yaml", "server: [", "parse config"},
		{"unknown profile", "gesture:\n  profile: turbo\n", "unknown gesture profile"},
		{"invalid override", "gesture:\n  overrides:\n    smooth_frames: 0\n", "smooth_frames"},
		{"bad duration", "gesture:\n  overrides:\n    action_cooldown: soon\n", "gesture overrides"},
		{"online without url", "transport:\n  url: \"\"\n  offline: false\n", "url is required"},
		{"bad camera", "camera:\n  fps: 0\n", "fps must be positive"},
		{"bad motion threshold", "camera:\n  motion_threshold: 150\n", "motion_threshold"},
		{"motion without idle fps", "camera:\n  idle_fps: 0\n", "idle_fps"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_UnknownProfileIs(t *testing.T) {
	cfg := Default()
	cfg.Gesture.Profile = "turbo"
	if err := cfg.Validate(); !errors.Is(err, gesture.ErrUnknownProfile) {
		t.Errorf("Validate error = %v, want ErrUnknownProfile", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load error = %v, want os.ErrNotExist", err)
	}
}

func TestLoad_MotionGateOff(t *testing.T) {
	cfg, err := Load(writeConfig(t, "camera:\n  motion_threshold: 0\n  idle_fps: 0\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Camera.MotionThreshold != 0 {
		t.Errorf("motion_threshold = %v, want 0", cfg.Camera.MotionThreshold)
	}
}

func TestSectionConversions(t *testing.T) {
	cfg := Default()
	cfg.Camera.Device = 2
	cfg.Detector.Script = "/opt/hands.py"
	cfg.Transport.Offline = false

	c := cfg.Camera.Capture()
	if c.Device != 2 || c.Width != 640 || c.Height != 480 || c.FPS != 30 || !c.Mirror {
		t.Errorf("Capture() = %+v", c)
	}

	d := cfg.Detector.Config()
	if d.MaxHands != 2 || d.Script != "/opt/hands.py" || d.IdleTimeout != 30*time.Second {
		t.Errorf("Detector Config() = %+v", d)
	}

	tr := cfg.Transport.Config()
	if tr.Offline || tr.URL != "http://localhost:5005/" || tr.Timeout != time.Second || tr.QueueSize != 64 {
		t.Errorf("Transport Config() = %+v", tr)
	}
}

func TestLoad_ExampleFile(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "mudra.example.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	g, err := cfg.Gesture.Resolve()
	if err != nil {
		t.Fatal(err)
	}
	if g.Lanes != gesture.LanesNearest {
		t.Errorf("Lanes = %q, want nearest", g.Lanes)
	}
	if g.ActionCooldown != 750*time.Millisecond {
		t.Errorf("ActionCooldown = %v, want 750ms", g.ActionCooldown)
	}
	if strings.HasPrefix(cfg.Storage.Path, "~") {
		t.Errorf("storage path %q was not expanded", cfg.Storage.Path)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		in, want string
	}{
		{"~/.mudra/mudra.db", filepath.Join(home, ".mudra/mudra.db")},
		{"~", home},
		{"/var/lib/mudra.db", "/var/lib/mudra.db"},
		{"~other/x", "~other/x"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := expandHome(tt.in); got != tt.want {
			t.Errorf("expandHome(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// Package config loads the mudra YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/transport"
)

// Config is the top-level configuration file.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Camera    CameraConfig    `yaml:"camera"`
	Detector  DetectorConfig  `yaml:"detector"`
	Storage   StorageConfig   `yaml:"storage"`
	Transport TransportConfig `yaml:"transport"`
	Plugins   PluginsConfig   `yaml:"plugins"`
	Log       LogConfig       `yaml:"log"`
	Gesture   GestureConfig   `yaml:"gesture"`
}

type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
	// Preview serves an annotated MJPEG stream at /api/stream.
	Preview bool `yaml:"preview"`
}

type CameraConfig struct {
	Device int  `yaml:"device"`
	Width  int  `yaml:"width"`
	Height int  `yaml:"height"`
	FPS    int  `yaml:"fps"`
	Mirror bool `yaml:"mirror"`

	// MotionThreshold is the percent of changed pixels that wakes the
	// pipeline from idle. Zero keeps it always active.
	MotionThreshold float64       `yaml:"motion_threshold"`
	IdleFPS         int           `yaml:"idle_fps"`
	IdleAfter       time.Duration `yaml:"idle_after"`
}

// Capture converts the section to a capture.Config.
func (c CameraConfig) Capture() capture.Config {
	return capture.Config{Device: c.Device, Width: c.Width, Height: c.Height, FPS: c.FPS, Mirror: c.Mirror}
}

type DetectorConfig struct {
	MaxHands        int           `yaml:"max_hands"`
	MinConfidence   float64       `yaml:"min_confidence"`
	MinTrackingConf float64       `yaml:"min_tracking_confidence"`
	Script          string        `yaml:"script"`
	Python          string        `yaml:"python"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
}

// Config converts the section to a detector.Config.
func (d DetectorConfig) Config() detector.Config {
	return detector.Config{
		MaxHands:        d.MaxHands,
		MinConfidence:   d.MinConfidence,
		MinTrackingConf: d.MinTrackingConf,
		Script:          d.Script,
		Python:          d.Python,
		IdleTimeout:     d.IdleTimeout,
	}
}

type StorageConfig struct {
	// Path of the SQLite database. Empty disables the event journal.
	Path string `yaml:"path"`
}

// TransportConfig controls delivery of events to an external HTTP endpoint.
type TransportConfig struct {
	URL       string        `yaml:"url"`
	Offline   bool          `yaml:"offline"`
	Timeout   time.Duration `yaml:"timeout"`
	QueueSize int           `yaml:"queue_size"`
}

// Config converts the section to a transport.Config.
func (t TransportConfig) Config() transport.Config {
	return transport.Config{URL: t.URL, Offline: t.Offline, Timeout: t.Timeout, QueueSize: t.QueueSize}
}

type PluginsConfig struct {
	Dir     string        `yaml:"dir"`
	Timeout time.Duration `yaml:"timeout"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// GestureConfig selects a threshold profile and optionally overrides
// individual thresholds using the gesture.Config field names, e.g.
//
//	gesture:
//	  profile: engine
//	  overrides:
//	    smooth_frames: 10
//	    action_cooldown: 750ms
type GestureConfig struct {
	Profile   string    `yaml:"profile"`
	Overrides yaml.Node `yaml:"overrides"`
}

// Resolve returns the profile's thresholds with the overrides applied.
func (g *GestureConfig) Resolve() (gesture.Config, error) {
	cfg, err := gesture.Profile(g.Profile)
	if err != nil {
		return gesture.Config{}, err
	}
	if !g.Overrides.IsZero() {
		if err := g.Overrides.Decode(&cfg); err != nil {
			return gesture.Config{}, fmt.Errorf("gesture overrides: %w", err)
		}
	}
	return cfg, nil
}

// DataDir is where mudra keeps its database and plugins by default.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mudra"
	}
	return filepath.Join(home, ".mudra")
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	dir := DataDir()
	return &Config{
		Server: ServerConfig{Addr: ":8080", Preview: true},
		Camera: CameraConfig{
			Width:           640,
			Height:          480,
			FPS:             30,
			Mirror:          true,
			MotionThreshold: 1,
			IdleFPS:         5,
			IdleAfter:       2 * time.Second,
		},
		Detector: DetectorConfig{
			MaxHands:        2,
			MinConfidence:   0.5,
			MinTrackingConf: 0.5,
			IdleTimeout:     30 * time.Second,
		},
		Storage: StorageConfig{Path: filepath.Join(dir, "mudra.db")},
		Transport: TransportConfig{
			URL:       "http://localhost:5005/",
			Offline:   true,
			Timeout:   time.Second,
			QueueSize: 64,
		},
		Plugins: PluginsConfig{
			Dir:     filepath.Join(dir, "plugins"),
			Timeout: 5 * time.Second,
		},
		Log:     LogConfig{Level: "info"},
		Gesture: GestureConfig{Profile: "default"},
	}
}

// Load reads path on top of the defaults. Keys missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	for _, p := range []*string{&cfg.Storage.Path, &cfg.Plugins.Dir, &cfg.Server.StaticDir} {
		*p = expandHome(*p)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every section, including the resolved gesture thresholds.
func (c *Config) Validate() error {
	var errs []error

	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		errs = append(errs, fmt.Errorf("camera: frame size %dx%d must be positive", c.Camera.Width, c.Camera.Height))
	}
	if c.Camera.FPS <= 0 {
		errs = append(errs, fmt.Errorf("camera: fps must be positive, got %d", c.Camera.FPS))
	}
	if c.Camera.MotionThreshold < 0 || c.Camera.MotionThreshold > 100 {
		errs = append(errs, fmt.Errorf("camera: motion_threshold must be within [0, 100], got %v", c.Camera.MotionThreshold))
	}
	if c.Camera.MotionThreshold > 0 && (c.Camera.IdleFPS <= 0 || c.Camera.IdleAfter <= 0) {
		errs = append(errs, errors.New("camera: idle_fps and idle_after must be positive when motion_threshold is set"))
	}
	if c.Detector.MaxHands <= 0 {
		errs = append(errs, fmt.Errorf("detector: max_hands must be positive, got %d", c.Detector.MaxHands))
	}
	if c.Detector.MinConfidence < 0 || c.Detector.MinConfidence > 1 {
		errs = append(errs, fmt.Errorf("detector: min_confidence must be within [0, 1], got %v", c.Detector.MinConfidence))
	}
	if !c.Transport.Offline && c.Transport.URL == "" {
		errs = append(errs, errors.New("transport: url is required unless offline"))
	}
	if c.Transport.QueueSize <= 0 {
		errs = append(errs, fmt.Errorf("transport: queue_size must be positive, got %d", c.Transport.QueueSize))
	}
	if c.Transport.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("transport: timeout must be positive, got %v", c.Transport.Timeout))
	}

	g, err := c.Gesture.Resolve()
	if err == nil {
		err = g.Validate()
	}
	if err != nil {
		errs = append(errs, fmt.Errorf("gesture: %w", err))
	}

	return errors.Join(errs...)
}

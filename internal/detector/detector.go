// Package detector finds hands in camera frames and reports their landmarks.
package detector

import (
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/landmark"
)

// Detector defines the interface for hand detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns one entry per visible hand,
	// in the detector's own order. No hands yields an empty slice.
	Detect(frame *gocv.Mat) ([]landmark.Hand, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands caps the number of hands returned per frame (default: 2).
	MaxHands int

	// MinConfidence drops hands whose handedness score is below it (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is passed to the landmark service (0.0-1.0).
	MinTrackingConf float64

	// Script and Python override the landmark service location. Empty means
	// search the usual install paths.
	Script string
	Python string

	// IdleTimeout stops the service after this long without frames.
	IdleTimeout time.Duration
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        2,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
		IdleTimeout:     30 * time.Second,
	}
}

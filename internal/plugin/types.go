// Package plugin discovers external action plugins and runs them when a
// bound gesture fires.
//
// A plugin is a directory holding a plugin.json manifest and an executable.
// The executable receives one Request as JSON on stdin and answers with one
// Response on stdout.
package plugin

import (
	"encoding/json"
	"slices"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/transport"
)

// Manifest describes a plugin's metadata and capabilities.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Actions      []string        `json:"actions"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// Supports reports whether the manifest declares action. A manifest with
// no declared actions accepts any.
func (m Manifest) Supports(action string) bool {
	return len(m.Actions) == 0 || slices.Contains(m.Actions, action)
}

// Request is the message written to a plugin's stdin.
type Request struct {
	Action     string          `json:"action"`
	Gesture    string          `json:"gesture"`
	Hand       int             `json:"hand"`
	Confidence float64         `json:"confidence"`
	Timestamp  int64           `json:"timestamp"`
	Config     json.RawMessage `json:"config,omitempty"`
}

// NewRequest builds the request for running action in response to e.
func NewRequest(action string, e gesture.Event, config json.RawMessage) *Request {
	p := transport.NewPayload(e)
	return &Request{
		Action:     action,
		Gesture:    p.Action,
		Hand:       p.Hand,
		Confidence: p.Confidence,
		Timestamp:  p.Timestamp,
		Config:     config,
	}
}

// Response represents the response from a plugin execution.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

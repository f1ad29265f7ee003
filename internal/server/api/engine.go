package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/mudra/internal/gesture"
)

// Engine is the running recognizer as seen by the HTTP API.
type Engine interface {
	LaneStates() []gesture.LaneState
	Enabled() bool
	SetEnabled(enabled bool) error
}

// LanesHandler serves GET /api/lanes.
type LanesHandler struct {
	engine Engine
}

// NewLanesHandler creates a LanesHandler.
func NewLanesHandler(e Engine) *LanesHandler {
	return &LanesHandler{engine: e}
}

type lanesResponse struct {
	Enabled bool                `json:"enabled"`
	Lanes   []gesture.LaneState `json:"lanes"`
}

func (h *LanesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	lanes := h.engine.LaneStates()
	if lanes == nil {
		lanes = []gesture.LaneState{}
	}
	writeJSON(w, http.StatusOK, lanesResponse{Enabled: h.engine.Enabled(), Lanes: lanes})
}

// ControlHandler serves GET and PUT /api/control.
type ControlHandler struct {
	engine Engine
}

// NewControlHandler creates a ControlHandler.
func NewControlHandler(e Engine) *ControlHandler {
	return &ControlHandler{engine: e}
}

type controlState struct {
	Enabled *bool `json:"enabled"`
}

func (h *ControlHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var req controlState
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
			writeError(w, http.StatusBadRequest, "body must be {\"enabled\": bool}")
			return
		}
		if err := h.engine.SetEnabled(*req.Enabled); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to update state")
			return
		}
	default:
		methodNotAllowed(w)
		return
	}
	enabled := h.engine.Enabled()
	writeJSON(w, http.StatusOK, controlState{Enabled: &enabled})
}

type labelInfo struct {
	Label  gesture.Label `json:"label"`
	Action string        `json:"action"`
	Kind   string        `json:"kind"`
}

var kindNames = map[gesture.Kind]string{
	gesture.KindBase:        "base",
	gesture.KindDirectional: "directional",
	gesture.KindSpecial:     "special",
}

// Labels serves GET /api/labels: every label an event can carry.
func Labels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	var out []labelInfo
	for _, l := range gesture.Labels() {
		out = append(out, labelInfo{Label: l, Action: l.Action(), Kind: kindNames[l.Kind()]})
	}
	writeJSON(w, http.StatusOK, map[string][]labelInfo{"labels": out})
}

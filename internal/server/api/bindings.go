package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/store"
)

// PluginLookup resolves plugins by name for binding validation.
type PluginLookup interface {
	Get(name string) (*plugin.Plugin, error)
}

// BindingHandler serves /api/bindings and /api/bindings/{id}.
type BindingHandler struct {
	store   *store.Store
	plugins PluginLookup
}

// NewBindingHandler creates a BindingHandler. plugins may be nil, in which
// case plugin and action names are not checked.
func NewBindingHandler(s *store.Store, plugins PluginLookup) *BindingHandler {
	return &BindingHandler{store: s, plugins: plugins}
}

// ServeHTTP routes collection and item requests.
func (h *BindingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/bindings"), "/")

	if id == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w)
		case http.MethodPost:
			h.create(w, r)
		default:
			methodNotAllowed(w)
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, id)
	default:
		methodNotAllowed(w)
	}
}

type createBindingRequest struct {
	Label      string          `json:"label"`
	PluginName string          `json:"plugin_name"`
	ActionName string          `json:"action_name"`
	Config     json.RawMessage `json:"config"`
	Enabled    *bool           `json:"enabled"`
}

type updateBindingRequest struct {
	Label      string          `json:"label"`
	PluginName string          `json:"plugin_name"`
	ActionName string          `json:"action_name"`
	Config     json.RawMessage `json:"config"`
	Enabled    *bool           `json:"enabled"`
}

type bindingResponse struct {
	ID         string          `json:"id"`
	Label      string          `json:"label"`
	PluginName string          `json:"plugin_name"`
	ActionName string          `json:"action_name"`
	Config     json.RawMessage `json:"config"`
	Enabled    bool            `json:"enabled"`
	CreatedAt  string          `json:"created_at"`
}

type listBindingsResponse struct {
	Bindings []bindingResponse `json:"bindings"`
}

func toBindingResponse(b *store.Binding) bindingResponse {
	config := b.Config
	if len(config) == 0 {
		config = json.RawMessage("{}")
	}
	return bindingResponse{
		ID:         b.ID,
		Label:      b.Label,
		PluginName: b.PluginName,
		ActionName: b.ActionName,
		Config:     config,
		Enabled:    b.Enabled,
		CreatedAt:  b.CreatedAt.Format(time.RFC3339),
	}
}

// canonicalLabel normalises s to the wire name of an event-producing label.
func canonicalLabel(s string) (string, error) {
	l, err := gesture.ParseLabel(s)
	if err != nil {
		return "", err
	}
	if l.IsNeutral() {
		return "", errors.New("UNKNOWN never fires and cannot be bound")
	}
	return l.String(), nil
}

// checkPlugin verifies the plugin exists and declares the action.
func (h *BindingHandler) checkPlugin(pluginName, actionName string) string {
	if h.plugins == nil {
		return ""
	}
	p, err := h.plugins.Get(pluginName)
	if err != nil {
		return "Plugin not found"
	}
	if !p.Manifest.Supports(actionName) {
		return "Action not supported by plugin"
	}
	return ""
}

func (h *BindingHandler) list(w http.ResponseWriter) {
	bindings, err := h.store.Bindings().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list bindings")
		return
	}

	response := listBindingsResponse{Bindings: make([]bindingResponse, 0, len(bindings))}
	for _, b := range bindings {
		response.Bindings = append(response.Bindings, toBindingResponse(b))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *BindingHandler) get(w http.ResponseWriter, id string) {
	b, err := h.store.Bindings().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Binding not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get binding")
		return
	}
	writeJSON(w, http.StatusOK, toBindingResponse(b))
}

func (h *BindingHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createBindingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	label, err := canonicalLabel(req.Label)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid label: "+err.Error())
		return
	}
	if req.PluginName == "" {
		writeError(w, http.StatusBadRequest, "plugin_name is required")
		return
	}
	if req.ActionName == "" {
		writeError(w, http.StatusBadRequest, "action_name is required")
		return
	}
	if msg := h.checkPlugin(req.PluginName, req.ActionName); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	existing, err := h.store.Bindings().GetByLabel(label)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to check existing binding")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "Label already bound")
		return
	}

	b := &store.Binding{
		Label:      label,
		PluginName: req.PluginName,
		ActionName: req.ActionName,
		Config:     req.Config,
		Enabled:    req.Enabled == nil || *req.Enabled,
	}
	if err := h.store.Bindings().Create(b); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create binding")
		return
	}
	writeJSON(w, http.StatusCreated, toBindingResponse(b))
}

func (h *BindingHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	b, err := h.store.Bindings().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Binding not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get binding")
		return
	}

	var req updateBindingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Label != "" {
		label, err := canonicalLabel(req.Label)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid label: "+err.Error())
			return
		}
		if label != b.Label {
			other, err := h.store.Bindings().GetByLabel(label)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "Failed to check existing binding")
				return
			}
			if other != nil {
				writeError(w, http.StatusConflict, "Label already bound")
				return
			}
		}
		b.Label = label
	}
	if req.PluginName != "" {
		b.PluginName = req.PluginName
	}
	if req.ActionName != "" {
		b.ActionName = req.ActionName
	}
	if req.Config != nil {
		b.Config = req.Config
	}
	if req.Enabled != nil {
		b.Enabled = *req.Enabled
	}
	if msg := h.checkPlugin(b.PluginName, b.ActionName); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.store.Bindings().Update(b); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update binding")
		return
	}
	writeJSON(w, http.StatusOK, toBindingResponse(b))
}

func (h *BindingHandler) delete(w http.ResponseWriter, id string) {
	if err := h.store.Bindings().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Binding not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete binding")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

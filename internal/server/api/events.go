package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ayusman/mudra/internal/store"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 1000
)

// EventHandler serves the event journal under /api/events.
type EventHandler struct {
	store *store.Store
}

// NewEventHandler creates an EventHandler.
func NewEventHandler(s *store.Store) *EventHandler {
	return &EventHandler{store: s}
}

type listEventsResponse struct {
	Events []*store.Event `json:"events"`
}

type statsResponse struct {
	Total   int            `json:"total"`
	ByLabel map[string]int `json:"by_label"`
}

type purgeResponse struct {
	Deleted int64 `json:"deleted"`
}

// ServeHTTP handles GET and DELETE /api/events and GET /api/events/stats.
func (h *EventHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sub := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/events"), "/")

	switch {
	case sub == "" && r.Method == http.MethodGet:
		h.list(w, r)
	case sub == "" && r.Method == http.MethodDelete:
		h.purge(w, r)
	case sub == "stats" && r.Method == http.MethodGet:
		h.stats(w)
	case sub == "" || sub == "stats":
		methodNotAllowed(w)
	default:
		http.NotFound(w, r)
	}
}

// list returns the newest events; ?limit=N bounds the count.
func (h *EventHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxEventLimit)
	}

	events, err := h.store.Events().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list events")
		return
	}
	if events == nil {
		events = []*store.Event{}
	}
	writeJSON(w, http.StatusOK, listEventsResponse{Events: events})
}

func (h *EventHandler) stats(w http.ResponseWriter) {
	counts, err := h.store.Events().CountByLabel()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count events")
		return
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	writeJSON(w, http.StatusOK, statsResponse{Total: total, ByLabel: counts})
}

// purge deletes events older than ?before=<RFC3339>.
func (h *EventHandler) purge(w http.ResponseWriter, r *http.Request) {
	before, err := time.Parse(time.RFC3339, r.URL.Query().Get("before"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "before must be an RFC3339 timestamp")
		return
	}
	n, err := h.store.Events().DeleteBefore(before)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete events")
		return
	}
	writeJSON(w, http.StatusOK, purgeResponse{Deleted: n})
}

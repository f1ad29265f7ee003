// Package server provides the HTTP server for mudra: the JSON API, the
// live websocket feed and the MJPEG preview.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/log"
	"github.com/ayusman/mudra/internal/server/api"
	"github.com/ayusman/mudra/internal/store"
)

// Config holds the server configuration. Nil components leave their
// routes unregistered.
type Config struct {
	StaticDir string
	Store     *store.Store
	Engine    api.Engine
	Plugins   api.PluginLookup
	Frames    FrameSource
}

// Server is the mudra HTTP server.
type Server struct {
	config Config
	mux    *http.ServeMux
	hub    *Hub
	start  time.Time

	mu   sync.Mutex
	http *http.Server
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		hub:    NewHub(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/labels", api.Labels)
	s.mux.Handle("/api/ws", s.hub)

	if s.config.Store != nil {
		bindings := api.NewBindingHandler(s.config.Store, s.config.Plugins)
		s.mux.Handle("/api/bindings", bindings)
		s.mux.Handle("/api/bindings/", bindings)

		events := api.NewEventHandler(s.config.Store)
		s.mux.Handle("/api/events", events)
		s.mux.Handle("/api/events/", events)
	}

	if s.config.Engine != nil {
		s.mux.Handle("/api/lanes", api.NewLanesHandler(s.config.Engine))
		s.mux.Handle("/api/control", api.NewControlHandler(s.config.Engine))
	}

	if s.config.Frames != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Frames))
	}

	if s.config.StaticDir != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// Hub returns the websocket hub events should be broadcast on.
func (s *Server) Hub() *Hub {
	return s.hub
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status":  "ok",
		"uptime":  time.Since(s.start).Round(time.Second).String(),
		"clients": s.hub.Len(),
	}
	if s.config.Engine != nil {
		response["enabled"] = s.config.Engine.Enabled()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// ListenAndServe serves on addr until Shutdown. It returns nil after a
// clean shutdown.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.http = srv
	s.mu.Unlock()

	log.Info("http server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown disconnects websocket clients and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()

	s.mu.Lock()
	srv := s.http
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

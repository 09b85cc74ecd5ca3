// Package server provides the HTTP server for editing and watching the piano.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ayusman/tecla/internal/editor"
	"github.com/ayusman/tecla/internal/metrics"
	"github.com/ayusman/tecla/internal/piano"
	"github.com/ayusman/tecla/internal/server/api"
	"github.com/ayusman/tecla/internal/store"
)

const shutdownTimeout = 5 * time.Second

// Config holds the server configuration. Routes whose dependency is nil
// are not registered.
type Config struct {
	StaticDir  string
	LayoutPath string
	Board      *piano.Board
	Editor     *editor.Session
	Store      *store.Store
	Frames     *FrameBuffer
	Hub        *Hub
	Metrics    *metrics.Metrics
	Volume     api.VolumeControl
}

// Server represents the HTTP server for the piano.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Board != nil {
		keys := api.NewKeysHandler(s.config.Board, s.config.Editor)
		s.mux.Handle("/api/keys", keys)
		s.mux.Handle("/api/keys/", keys)

		s.mux.Handle("/api/colors", api.NewColorsHandler(s.config.Board, s.config.Editor))

		layout := api.NewLayoutHandler(s.config.Board, s.config.Editor, s.config.LayoutPath)
		s.mux.Handle("/api/layout", layout)
		s.mux.Handle("/api/layout/", layout)
	}

	if s.config.Editor != nil {
		s.mux.Handle("/api/editor", api.NewEditorHandler(s.config.Editor))
	}

	if s.config.Volume != nil {
		s.mux.Handle("/api/volume", api.NewVolumeHandler(s.config.Volume))
	}

	if s.config.Store != nil {
		history := api.NewHistoryHandler(s.config.Store)
		s.mux.Handle("/api/history", history)
		s.mux.Handle("/api/history/", history)
	}

	if s.config.Frames != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Frames))
	}

	if s.config.Hub != nil {
		s.mux.Handle("/api/live", s.config.Hub)
	}

	if s.config.Metrics != nil {
		s.mux.Handle("/metrics", s.config.Metrics.Handler())
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Board != nil {
		response["keys"] = s.config.Board.Keys().Len()
	}
	if s.config.Editor != nil {
		response["editor_open"] = s.config.Editor.IsOpen()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		// Long-lived streams end with ctx instead of holding up Shutdown.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

// Server exposes the map session over HTTP plus health, readiness, and
// metrics endpoints.
type Server struct {
	httpServer *http.Server
	session    MapSession
	maxUpload  int64
	logger     *slog.Logger
}

// NewServer creates an HTTP server. Uploads larger than maxUpload bytes are
// refused.
func NewServer(addr string, session MapSession, ready sharedobs.ReadinessChecker, maxUpload int64, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		session:   session,
		maxUpload: maxUpload,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("GET /scene", s.handleScene)
	mux.HandleFunc("GET /scene.geojson", s.handleGeoJSON)
	mux.HandleFunc("GET /years", s.handleYears)
	mux.HandleFunc("POST /filter", s.handleFilter)
	mux.HandleFunc("POST /zoom", s.handleZoom)
	mux.HandleFunc("POST /markers/close", s.handleCloseMarker)
	mux.HandleFunc("POST /markers/{code}/open", s.handleOpenMarker)
	mux.HandleFunc("POST /markers/{code}/hover", s.handleHover)
	mux.HandleFunc("GET /playback", s.handlePlaybackStatus)
	mux.HandleFunc("POST /playback/start", s.handlePlaybackStart)
	mux.HandleFunc("POST /playback/stop", s.handlePlaybackStop)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may be gone
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

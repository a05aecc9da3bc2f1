package inspect

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes a registry of stores over HTTP:
//
//	GET /healthz        liveness probe
//	GET /stores         all store names and snapshots
//	GET /stores/{name}  one store snapshot
//	GET /metrics        Prometheus metrics
//	GET /ws             websocket stream of change events
type Server struct {
	registry *Registry
	hub      *Hub
	logger   *slog.Logger

	metricsHandler http.Handler
	httpServer     *http.Server
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the server logger (default: slog.Default()).
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithHub mounts an existing hub on /ws. Without this option the server
// creates its own; pass the shared hub when stores broadcast through one.
func WithHub(hub *Hub) ServerOption {
	return func(s *Server) {
		s.hub = hub
	}
}

// WithMetricsHandler overrides the /metrics handler, e.g. to serve a
// non-default Prometheus registry via promhttp.HandlerFor.
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(s *Server) {
		s.metricsHandler = h
	}
}

// NewServer creates an inspection server over the given registry.
func NewServer(registry *Registry, opts ...ServerOption) *Server {
	s := &Server{
		registry: registry,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.hub == nil {
		s.hub = NewHub(s.logger)
	}
	if s.metricsHandler == nil {
		s.metricsHandler = promhttp.Handler()
	}
	return s
}

// Hub returns the hub mounted on /ws.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the HTTP handler for the inspection surface.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/stores", s.handleListStores)
	r.Get("/stores/{name}", s.handleGetStore)
	r.Method(http.MethodGet, "/metrics", s.metricsHandler)
	r.Get("/ws", s.hub.ServeHTTP)

	return r
}

// ListenAndServe serves the inspection surface on addr until Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.logger.Info("inspect server listening", "addr", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server and detaches all hub clients.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListStores(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"stores": s.registry.Snapshots(),
	})
}

func (s *Server) handleGetStore(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	store, ok := s.registry.Get(name)
	if !ok {
		s.writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "no such store: " + name,
		})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"store": name,
		"state": store.Snapshot(),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/facet/internal/logging"
	"github.com/aretw0/facet/pkg/session"
)

// Server exposes the records of one model over HTTP.
type Server struct {
	Manager *session.Manager
	Streams *StreamManager

	logger   *slog.Logger
	gatherer prometheus.Gatherer
	version  string
}

// Option configures the handler.
type Option func(*Server)

// WithLogger sets the request logger. Defaults to no-op.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics mounts GET /metrics serving gatherer.
func WithMetrics(gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = gatherer
	}
}

// WithVersion is reported by GET /info.
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

// NewHandler creates a new HTTP handler for the records of manager.
func NewHandler(manager *session.Manager, opts ...Option) http.Handler {
	server := &Server{
		Manager: manager,
		Streams: NewStreamManager(),
		logger:  logging.NewNop(),
		version: "dev",
	}
	for _, opt := range opts {
		opt(server)
	}
	server.Streams.logger = server.logger

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Get("/schema", server.GetSchema)
	if server.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(server.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/records", func(r chi.Router) {
		r.Get("/", server.ListRecords)
		r.Post("/", server.CreateRecord)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", server.GetRecord)
			r.Patch("/", server.PatchRecord)
			r.Delete("/", server.DeleteRecord)
			r.Get("/changes", server.GetChanges)
			r.Post("/preview", server.PreviewRecord)
			r.Get("/events", server.SubscribeEvents)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "facet-http",
		"version": s.version,
		"model":   s.Manager.Definition().Name,
	})
}

// attributeInfo describes one attribute in GET /schema.
type attributeInfo struct {
	Name      string   `json:"name"`
	Kind      string   `json:"kind"`
	Derived   bool     `json:"derived,omitempty"`
	Nested    bool     `json:"nested,omitempty"`
	DependsOn []string `json:"dependsOn,omitempty"`
}

// GetSchema handles the GET /schema request.
func (s *Server) GetSchema(w http.ResponseWriter, r *http.Request) {
	def := s.Manager.Definition()
	attrs := make([]attributeInfo, 0, len(def.Attributes))
	for _, spec := range def.Attributes {
		attrs = append(attrs, attributeInfo{
			Name:      spec.Name,
			Kind:      spec.Kind.Name,
			Derived:   spec.Kind.IsDerived(),
			Nested:    spec.Kind.Nested != nil,
			DependsOn: spec.Kind.DependsOn,
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"model":      def.Name,
		"attributes": attrs,
		"order":      def.DerivationOrder(),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

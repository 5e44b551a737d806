package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/redline/internal/config"
	"github.com/dgallion1/redline/internal/pipeline"
	"github.com/dgallion1/redline/internal/review"
	"github.com/dgallion1/redline/internal/stats"
)

// Server is the HTTP API server for redline.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	reviewer     *review.Client // nil when the reviewer is disabled
	grammarStats *stats.Window
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, reviewer *review.Client, grammarStats *stats.Window, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		reviewer:     reviewer,
		grammarStats: grammarStats,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// API endpoints, authenticated when a key is configured.
	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Post("/api/proof", s.handleProof)
		r.Get("/api/proof/{jobID}/status", s.handleProofStatus)
		r.Get("/api/proof/{jobID}/preview", s.handleProofPreview)
		r.Get("/api/proof/{jobID}/download", s.handleProofDownload)

		r.Post("/api/apply", s.handleApply)

		r.Get("/api/stats", s.handleStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dgallion1/docnav/internal/config"
	"github.com/dgallion1/docnav/internal/pipeline"
	"github.com/dgallion1/docnav/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Server is the HTTP API server for docnav.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	sessions     *session.Store
	log          *slog.Logger
	cfg          config.Config

	// Events socket timing. The socket is dropped when nothing, pongs
	// included, arrives within eventIdle.
	eventIdle  time.Duration
	pingPeriod time.Duration
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, sessions *session.Store, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		sessions:     sessions,
		log:          log,
		cfg:          cfg,
		eventIdle:    eventIdleTimeout,
		pingPeriod:   eventIdleTimeout * 9 / 10,
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
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Post("/api/nav", s.handleNav)
		r.Post("/api/render", s.handleRender)
		r.Post("/api/toc", s.handleTOC)

		r.Post("/api/build", s.handleBuild)
		r.Get("/api/build/{jobID}/status", s.handleBuildStatus)
		r.Get("/api/build/{jobID}/result", s.handleBuildResult)

		r.Post("/api/sessions", s.handleCreateSession)
		r.Put("/api/sessions/{sessionID}/layout", s.handleLayout)
		r.Get("/api/sessions/{sessionID}/selection", s.handleSelection)
		r.Get("/api/sessions/{sessionID}/scroll", s.handleScroll)
		r.Get("/api/sessions/{sessionID}/events", s.handleEvents)
		r.Delete("/api/sessions/{sessionID}", s.handleDeleteSession)

		r.Get("/api/stats", s.handleStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

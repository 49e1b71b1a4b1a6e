package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/dxfnet/internal/config"
	"github.com/dgallion1/dxfnet/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the HTTP API server for dxfnet.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	mcp          http.Handler
	home         []byte
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. mcp may be nil, in
// which case /mcp is not mounted.
func NewServer(orch *pipeline.Orchestrator, mcp http.Handler, log *slog.Logger, cfg config.Config) (*Server, error) {
	home, err := renderHome()
	if err != nil {
		return nil, err
	}
	s := &Server{
		orchestrator: orch,
		mcp:          mcp,
		home:         home,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))
	r.Use(Metrics)

	// Public endpoints.
	r.Get("/", s.handleHome)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/process-dxf", s.handleProcess)
	r.Get("/download/{jobID}/{filename}", s.handleDownload)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/convert", s.handleConvert)
		r.Get("/api/convert/{jobID}/status", s.handleConvertStatus)
		r.Get("/api/convert/{jobID}/result", s.handleConvertResult)
		r.Get("/api/stats/conversions", s.handleConversionStats)

		if s.mcp != nil {
			r.Handle("/mcp", s.mcp)
		}
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// Package api exposes the analysis operations over HTTP as JSON
// endpoints. All statistical behavior lives behind the application
// service; this layer only decodes, validates, and maps errors.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"ecocausal/app"
	"ecocausal/internal"
	"ecocausal/ports"
)

// Server wires the HTTP router to the analysis handlers
type Server struct {
	router  *chi.Mux
	handler *Handler
	logger  *internal.Logger
}

// NewServer creates the HTTP server around the analysis service
func NewServer(service *app.AnalysisService, renderer ports.ReportRenderer, logger *internal.Logger) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		handler: NewHandler(service, renderer, logger),
		logger:  logger.Component("Server"),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures HTTP middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handler.handleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		// Pairwise and matrix correlation
		r.Post("/correlation", s.handler.handleCorrelation)
		r.Post("/correlation/matrix", s.handler.handleMatrix)

		// Lag structure and seasonality
		r.Post("/lag", s.handler.handleLag)
		r.Post("/lag/multi-driver", s.handler.handleMultiLag)
		r.Post("/seasonality", s.handler.handleSeasonality)

		// Model-based causality
		r.Post("/regression", s.handler.handleRegression)
		r.Post("/granger", s.handler.handleGranger)

		// Composite analyses
		r.Post("/hypothesis/test", s.handler.handleHypothesisTest)
		r.Post("/drivers", s.handler.handleDrivers)
		r.Post("/drivers/screen", s.handler.handleScreen)
		r.Post("/reports", s.handler.handleReport)

		// Stored history
		r.Get("/analyses", s.handler.handleListAnalyses)
		r.Get("/analyses/{id}", s.handler.handleGetAnalysis)
	})
}

// Router returns the configured handler for serving or testing
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server on the given address
func (s *Server) Start(addr string) error {
	s.logger.Info("Listening on %s", addr)
	return http.ListenAndServe(addr, s.router)
}

package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/terra-clan/interview-engine/internal/config"
	"github.com/terra-clan/interview-engine/internal/interview"
	"github.com/terra-clan/interview-engine/internal/storage"
)

// Server represents the HTTP API server
type Server struct {
	config         config.ServerConfig
	router         *chi.Mux
	interviews     interview.Service
	authMiddleware *AuthMiddleware
}

// NewServer creates a new API server
func NewServer(cfg config.ServerConfig, svc interview.Service, repo storage.Repository) *Server {
	s := &Server{
		config:         cfg,
		interviews:     svc,
		authMiddleware: NewAuthMiddleware(repo),
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-API-Key"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (outside versioned API - public)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	// API v1 routes (protected by authentication)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware.Authenticate)

		r.Route("/interviews", func(r chi.Router) {
			r.With(s.authMiddleware.RequirePermission("interviews:read")).Get("/", s.handleListInterviews)
			r.With(s.authMiddleware.RequirePermission("interviews:write")).Post("/", s.handleStartInterview)

			r.Route("/{id}", func(r chi.Router) {
				r.With(s.authMiddleware.RequirePermission("interviews:read")).Get("/", s.handleGetInterview)
				r.With(s.authMiddleware.RequirePermission("interviews:write")).Delete("/", s.handleDeleteInterview)
				r.With(s.authMiddleware.RequirePermission("interviews:write")).Post("/answers", s.handleSubmitAnswer)
				r.With(s.authMiddleware.RequirePermission("interviews:read")).Get("/report", s.handleGetReport)
				r.With(s.authMiddleware.RequirePermission("interviews:write")).Get("/live", s.handleLiveWS)
			})
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

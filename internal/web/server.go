// Package web provides the HTTP API for cleaning season-stats files.
package web

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/soccerstat/internal/config"
	"github.com/JonMunkholm/soccerstat/internal/core"
	mw "github.com/JonMunkholm/soccerstat/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// Server is the HTTP server for the cleaning API.
type Server struct {
	cfg     *config.Config
	service *core.Service
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a Server with middleware and routes installed.
func NewServer(cfg *config.Config, service *core.Service) *Server {
	s := &Server{
		cfg:     cfg,
		service: service,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5, "application/json", "text/html", "text/csv"))
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	}
	s.router.Use(s.securityHeaders)

	s.router.Use(cors.New(cors.Options{
		AllowedOrigins: s.cfg.Security.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-API-Key", "HX-Request", "HX-Target", "HX-Current-URL"},
		ExposedHeaders: []string{"X-Run-ID", "X-Clean-Diagnostics", "X-Request-Id", "Content-Disposition"},
		MaxAge:         300,
	}).Handler)

	if s.cfg.Rate.Enabled {
		s.router.Use(mw.NewRateLimiter(s.cfg.Rate.RequestsPerMinute).Handler)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/health/store", s.handleStoreHealth)
	if s.cfg.Metrics.Enabled {
		s.router.Handle("/metrics", s.service.Metrics().Handler())
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(s.cfg.Security))

		r.Get("/columns", s.handleColumns)
		r.Post("/validate", s.handleValidate)

		// Cleaning is the expensive call; it gets its own, tighter budget.
		r.Group(func(r chi.Router) {
			if s.cfg.Rate.Enabled {
				r.Use(mw.NewRateLimiter(s.cfg.Rate.CleanLimit).Handler)
			}
			r.Post("/clean", s.handleClean)
		})

		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{runID}", s.handleGetRun)
	})
}

// Start begins listening on the configured address.
func (s *Server) Start() error {
	addr := s.cfg.Server.Addr()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func (s *Server) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if s.cfg.Security.EnableCSP {
			w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
		}
		next.ServeHTTP(w, r)
	})
}

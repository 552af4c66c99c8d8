// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root: New builds the whole dependency chain in
// one place,
//
//	config → sqlite.DB → AccountService / ListingService → handlers → routes
//
// and Start runs it until SIGINT or SIGTERM, then shuts down gracefully and
// closes the database.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sakif/qbay/internal/auth"
	"github.com/sakif/qbay/internal/config"
	"github.com/sakif/qbay/internal/handler"
	"github.com/sakif/qbay/internal/metrics"
	"github.com/sakif/qbay/internal/middleware"
	"github.com/sakif/qbay/internal/ratelimit"
	sqliteRepo "github.com/sakif/qbay/internal/repository/sqlite"
	"github.com/sakif/qbay/internal/service"
)

const shutdownTimeout = 30 * time.Second

// Server represents the HTTP server and all its dependencies. It owns the
// database connection and closes it on shutdown.
type Server struct {
	router  *chi.Mux
	config  config.Config
	logger  *slog.Logger
	db      *sqliteRepo.DB
	metrics *metrics.Metrics
}

// New opens the database named in cfg and wires every route. The caller
// must call Start (which closes the database) or Close.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		db:      db,
		metrics: metrics.New(),
	}
	s.metrics.Registry().MustRegister(collectors.NewDBStatsCollector(db.Pool(), "qbay"))

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database without starting the server.
func (s *Server) Close() error {
	return s.db.Close()
}

// setupRoutes configures middleware and routes.
//
// ROUTES:
//
//	GET  /healthz             → liveness
//	GET  /metrics             → Prometheus metrics
//	POST /api/register        → create account           (rate limited)
//	POST /api/login           → issue token               (rate limited)
//	POST /api/logout          → clear token cookie
//	GET  /api/me              → current user              (auth)
//	PUT  /api/me              → update profile            (auth)
//	GET  /api/listings        → list listings             (optional auth)
//	GET  /api/listings/{id}   → get one listing           (optional auth)
//	POST /api/listings        → create listing            (auth)
//	PUT  /api/listings/{id}   → update own listing        (auth)
//
// MIDDLEWARE ORDER:
// RequestID, RealIP, metrics, request logging, then Recoverer innermost so a
// panic is turned into a 500 that the logger and metrics still see.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(s.metrics.Middleware)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	tokens, err := auth.NewTokenService(s.config.Auth.JWTSecret, s.config.Auth.TokenTTL.Duration)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService(s.config.Auth.BcryptCost)

	// s.db implements repository.Store; the services never see SQL.
	accounts := service.NewAccountService(s.db, passwords, s.logger)
	listings := service.NewListingService(s.db, accounts, s.logger)

	accountHandler := handler.NewAccountHandler(accounts, tokens, s.config.Server.SecureCookie, s.logger)
	listingHandler := handler.NewListingHandler(listings, s.logger)

	limiter := ratelimit.New(s.config.RateLimit.RPS, s.config.RateLimit.Burst, 0)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", s.metrics.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(ratelimit.PerIP(limiter))
			r.Post("/register", accountHandler.HandleRegister)
			r.Post("/login", accountHandler.HandleLogin)
		})
		r.Post("/logout", accountHandler.HandleLogout)

		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuth(tokens))
			r.Get("/listings", listingHandler.HandleList)
			r.Get("/listings/{id}", listingHandler.HandleGet)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Get("/me", accountHandler.HandleMe)
			r.Put("/me", accountHandler.HandleUpdateMe)
			r.Post("/listings", listingHandler.HandleCreate)
			r.Put("/listings/{id}", listingHandler.HandleUpdate)
		})
	})

	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Start serves HTTP until SIGINT/SIGTERM or ctx is cancelled, then gives
// in-flight requests shutdownTimeout to finish and closes the database.
func (s *Server) Start(ctx context.Context) error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Server.Port)),
			slog.String("database", s.config.Database.Path),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

// Package server is the composition root: it builds the dependency graph
// from a config.Config, mounts the routes and runs the HTTP server.
//
// DEPENDENCY CHAIN:
//
//	crypt.DefaultPrimitive → crypt.Catalog → auth.PasswordService → auth.Authenticator
//	sqlite.DB (repository.UserRepository) ─┐
//	auth.TokenService ─────────────────────┼→ service.AuthService → handler.AuthHandler
//	auth.PasswordService, Authenticator ───┘
//
// Each layer only receives what it needs. The handler never touches the
// database and the service never touches HTTP.
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
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/cryptpass/internal/auth"
	"github.com/sakif/cryptpass/internal/config"
	"github.com/sakif/cryptpass/internal/crypt"
	"github.com/sakif/cryptpass/internal/handler"
	"github.com/sakif/cryptpass/internal/middleware"
	sqliteRepo "github.com/sakif/cryptpass/internal/repository/sqlite"
	"github.com/sakif/cryptpass/internal/service"
)

// Server owns the router and the database connection.
type Server struct {
	router  *chi.Mux
	config  *config.Config
	logger  *slog.Logger
	db      *sqliteRepo.DB
	catalog *crypt.Catalog
}

// New wires every dependency. primitive is normally crypt.DefaultPrimitive();
// tests pass crypt.NewNative() explicitly.
func New(cfg *config.Config, primitive crypt.Primitive, logger *slog.Logger) (*Server, error) {
	catalog := crypt.NewCatalog(primitive)
	logger.Info("crypt algorithms probed", slog.Any("available", catalog.AvailableAlgorithms()))

	passwords, err := auth.NewPasswordService(catalog, crypt.NewSystemEntropy(), cfg.Hash.Algorithm, cfg.Hash.Iterations)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	dummy, err := dummyHash(cfg, passwords, logger)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	authenticator, err := auth.NewAuthenticator(passwords.Verifier(), dummy)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	if cfg.Database.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			return nil, fmt.Errorf("server: creating database directory: %w", err)
		}
	}
	db, err := sqliteRepo.New(cfg.Database.Path, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("server: opening database: %w", err)
	}

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		db:      db,
		catalog: catalog,
	}

	authService := service.NewAuthService(db, passwords, authenticator, tokens, logger)
	authHandler := handler.NewAuthHandler(authService, tokens, cfg.Server.SecureCookies, logger)
	s.setupRoutes(authHandler, tokens)

	return s, nil
}

// dummyHash returns the configured dummy, or mints one when none is set.
// A configured dummy whose algorithm or cost differs from real hashes
// would make unknown identities measurably faster, so that is logged.
func dummyHash(cfg *config.Config, passwords *auth.PasswordService, logger *slog.Logger) (string, error) {
	if cfg.Hash.Dummy == "" {
		dummy, err := passwords.DummyHash()
		if err != nil {
			return "", err
		}
		logger.Info("minted dummy hash for unknown identities",
			slog.String("algorithm", passwords.Algorithm().String()),
			slog.Int("iterations", passwords.Iterations()),
		)
		return dummy, nil
	}

	if err := passwords.CheckDummy(cfg.Hash.Dummy); err != nil {
		logger.Warn("hash.dummy does not match the password settings; unknown identities may answer faster",
			slog.String("error", err.Error()),
		)
	}
	return cfg.Hash.Dummy, nil
}

// setupRoutes configures middleware and routes.
//
// ROUTES:
//
//	GET  /healthz        → liveness + available algorithms
//	POST /auth/register  → create user
//	POST /auth/login     → verify credentials, set session cookie
//	POST /auth/logout    → clear session cookie
//	GET  /api/me         → current user (RequireAuth)
//
// MIDDLEWARE ORDER:
// RequestID first so the logger can see the ID, RealIP before anything
// reads RemoteAddr, Recoverer innermost so a panic still gets logged as a
// 500 by our Logger.
func (s *Server) setupRoutes(authHandler *handler.AuthHandler, tokens *auth.TokenService) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))
		r.Get("/me", authHandler.HandleMe)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":     "ok",
		"algorithms": s.catalog.AvailableAlgorithms(),
	})
}

// Handler exposes the router, for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, let in-flight requests finish
// (up to 30s), close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("database", s.config.Database.Path),
			slog.String("algorithm", s.config.Hash.Algorithm.String()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

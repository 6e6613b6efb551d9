// Package server wires the application together: database, services,
// handlers, routes, and the HTTP server lifecycle. It is the composition
// root; main.go only loads config and calls into here.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/comicshelf/internal/auth"
	"github.com/sakif/comicshelf/internal/blob"
	"github.com/sakif/comicshelf/internal/handler"
	"github.com/sakif/comicshelf/internal/middleware"
	sqliteRepo "github.com/sakif/comicshelf/internal/repository/sqlite"
	"github.com/sakif/comicshelf/internal/service"
)

// Config holds everything the server needs, loaded by main from the
// environment.
type Config struct {
	Port        int
	TemplateDir string
	DBPath      string
	BlobDir     string

	SessionSecret string

	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string

	// RawBase overrides the manifest host; empty means GitHub's raw file
	// host. Tests point it at a local server.
	RawBase string
}

// Server owns the router, the database connection, and the config. The
// database is closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency chain: database → services → handlers
// → routes. Each layer receives only the interfaces it needs.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware, builds the services, and binds every
// route.
//
//	GET  /api/health                    → liveness probe
//	GET  /assets/*                      → blob store objects
//	GET  /api/me                        → current user (optional auth)
//	GET  /auth/start                    → begin OAuth
//	GET  /auth/callback                 → complete OAuth
//	POST /auth/logout                   → revoke session
//	POST /api/refresh                   → refresh a manifest (auth required)
//	GET  /read/{owner}/{repo}           → reader page (HTML)
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	signer, err := auth.NewSigner(s.config.SessionSecret)
	if err != nil {
		return fmt.Errorf("creating signer: %w", err)
	}
	provider := auth.NewGitHubProvider(
		s.config.GitHubClientID,
		s.config.GitHubClientSecret,
		s.config.GitHubCallbackURL,
	)

	sessionService := service.NewSessionService(provider, signer, s.db, s.db, s.logger)
	refreshService := service.NewRefreshService(
		s.db, s.db, service.NewHTTPFetcher(nil), s.config.RawBase, s.logger)
	readerService := service.NewReaderService(s.db, s.db, s.logger)

	store, err := blob.NewFSStore(s.config.BlobDir, s.db, s.logger)
	if err != nil {
		return fmt.Errorf("creating blob store: %w", err)
	}

	authHandler := handler.NewAuthHandler(sessionService, s.logger)
	refreshHandler := handler.NewRefreshHandler(refreshService, s.logger)
	assetHandler := handler.NewAssetHandler(store, s.logger)
	healthHandler := handler.NewHealthHandler(s.db, s.logger)

	readerHandler, err := handler.NewReaderHandler(readerService, s.config.TemplateDir, s.logger)
	if err != nil {
		return fmt.Errorf("creating reader handler: %w", err)
	}

	s.router.Get("/auth/start", authHandler.HandleStart)
	s.router.Get("/auth/callback", authHandler.HandleCallback)
	s.router.Post("/auth/logout", authHandler.HandleLogout)

	s.router.Get("/assets/*", assetHandler.HandleAsset)
	s.router.Get("/read/{owner}/{repo}", readerHandler.HandleRead)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.HandleHealth)

		r.With(auth.OptionalAuth(sessionService)).Get("/me", authHandler.HandleMe)
		r.With(auth.RequireAuth(sessionService)).Post("/refresh", refreshHandler.HandleRefresh)
	})

	// Unmatched routes get the same JSON error shape as the API.
	s.router.NotFound(handler.HandleNotFound)

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then drains in-flight
// requests for up to 30 seconds and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
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
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
			slog.String("blobDir", s.config.BlobDir),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
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

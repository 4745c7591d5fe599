// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root: the entire dependency chain is assembled
// here — store → services → handlers → routes — so no other package reaches
// for module-level singletons. Each layer receives exactly the interfaces it
// needs; the handlers never touch the database, the services never touch
// HTTP.
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

	"github.com/rashed/snippetbin/internal/auth"
	"github.com/rashed/snippetbin/internal/handler"
	"github.com/rashed/snippetbin/internal/highlight"
	"github.com/rashed/snippetbin/internal/middleware"
	sqliteRepo "github.com/rashed/snippetbin/internal/repository/sqlite"
	"github.com/rashed/snippetbin/internal/service"
)

// Config holds server configuration, loaded from the environment in main.
type Config struct {
	Port               int
	DBPath             string // path to the SQLite database file
	JWTSecret          string // HMAC secret for session tokens
	HighlightCacheSize int    // rendered documents kept in the LRU (0 = default)
}

// defaultHighlightCacheSize bounds the render memo. Rendered documents are a
// few KB each, so even the default costs single-digit megabytes.
const defaultHighlightCacheSize = 512

// Server owns the router and the database connection; the connection is
// closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server with the full dependency graph wired:
//
//	sqlite.DB → SnippetService / UserService / AuthService → handlers → routes
//
// The renderer handed to the snippet service is the chroma renderer behind
// an LRU memo — rendering is pure, so caching on the full input tuple is
// always sound.
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

// setupRoutes configures middleware, builds the services, and wires routes.
//
// ROUTE STRUCTURE:
//
//	GET    /snippets                → list (public)
//	POST   /snippets                → create (authenticated)
//	GET    /snippets/{id}           → retrieve (public)
//	PUT    /snippets/{id}           → full update (owner)
//	PATCH  /snippets/{id}           → partial update (owner)
//	DELETE /snippets/{id}           → destroy (owner)
//	GET    /snippets/{id}/highlight → rendered HTML (public)
//	GET    /users                   → list users (public)
//	POST   /users                   → register (public)
//	GET    /users/{id}              → retrieve user (public)
//	POST   /auth/login              → issue session cookie
//	POST   /auth/logout             → clear session cookie
//	GET    /auth/me                 → current principal (authenticated)
//
// All snippet and user routes sit behind OptionalAuth: the middleware
// extracts the principal when a valid token is present but never blocks.
// Whether a given operation needs a principal — and whether that principal
// suffices — is the access policy's decision, made in the service layer
// where the target record is known. Only /auth/me uses RequireAuth, since
// "who am I" is meaningless without a session.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	cacheSize := s.config.HighlightCacheSize
	if cacheSize <= 0 {
		cacheSize = defaultHighlightCacheSize
	}
	renderer, err := highlight.NewCache(highlight.New(), cacheSize)
	if err != nil {
		return fmt.Errorf("creating highlight cache: %w", err)
	}

	userDB := (*sqliteRepo.UserDB)(s.db)
	snippetService := service.NewSnippetService(s.db, userDB, renderer, s.logger)
	userService := service.NewUserService(userDB, s.db, passwords, s.logger)
	authService := service.NewAuthService(userDB, tokens, passwords, s.logger)

	snippetHandler := handler.NewSnippetHandler(snippetService, s.logger)
	userHandler := handler.NewUserHandler(userService, s.logger)
	authHandler := handler.NewAuthHandler(authService, s.logger)

	s.router.Group(func(r chi.Router) {
		r.Use(auth.OptionalAuth(tokens))

		r.Get("/snippets", snippetHandler.HandleList)
		r.Post("/snippets", snippetHandler.HandleCreate)
		r.Get("/snippets/{id}", snippetHandler.HandleGet)
		r.Put("/snippets/{id}", snippetHandler.HandleUpdate)
		r.Patch("/snippets/{id}", snippetHandler.HandlePartialUpdate)
		r.Delete("/snippets/{id}", snippetHandler.HandleDestroy)
		r.Get("/snippets/{id}/highlight", snippetHandler.HandleHighlight)

		r.Get("/users", userHandler.HandleList)
		r.Post("/users", userHandler.HandleCreate)
		r.Get("/users/{id}", userHandler.HandleGet)
	})

	s.router.Post("/auth/login", authHandler.HandleLogin)
	s.router.Post("/auth/logout", authHandler.HandleLogout)
	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))
		r.Get("/auth/me", authHandler.HandleMe)
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests for up to
// 30 seconds, close the database (flushes the WAL, releases the file lock).
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

// Package server is the composition root: it wires the repository, the
// auth primitives, the account service, and the RPC routes, and owns the
// HTTP server lifecycle.
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

	"github.com/medibook/auth-service/internal/auth"
	"github.com/medibook/auth-service/internal/handler"
	"github.com/medibook/auth-service/internal/middleware"
	"github.com/medibook/auth-service/internal/notify"
	sqliteRepo "github.com/medibook/auth-service/internal/repository/sqlite"
	"github.com/medibook/auth-service/internal/service"
)

// Config is the immutable process configuration, assembled once in
// cmd/server and passed down to every constructor. Nothing reads the
// environment after startup.
type Config struct {
	Port   int
	DBPath string

	JWTSecret  string
	SessionTTL time.Duration

	BcryptCost    int
	ResetTokenTTL time.Duration

	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string

	NotifyURL string
}

// Server owns the router and the database connection; the connection is
// closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New builds the full dependency graph. Each layer receives only what it
// needs: the service gets the repository interface, the handlers get the
// service.
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

func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.SessionTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	passwords := auth.NewPasswordService(s.config.BcryptCost)
	resets := auth.NewResetTokenSource(s.config.ResetTokenTTL)
	google := auth.NewGoogleProvider(
		s.config.GoogleClientID,
		s.config.GoogleClientSecret,
		s.config.GoogleCallbackURL,
	)
	notifier := notify.NewWebhookNotifier(s.config.NotifyURL, s.logger)

	accountService := service.NewAccountService(s.db, passwords, tokens, resets, notifier, s.logger)

	authHandler := handler.NewAuthHandler(accountService, google, s.logger)
	profileHandler := handler.NewProfileHandler(accountService, s.logger)

	// The RPC surface. Every operation is a POST carrying a typed JSON
	// payload; the gateway maps its own transport onto these routes.
	s.router.Route("/rpc", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/refreshToken", authHandler.HandleRefreshToken)
		r.Post("/validateToken", authHandler.HandleValidateToken)
		r.Post("/forgotPassword", authHandler.HandleForgotPassword)
		r.Post("/resetPassword", authHandler.HandleResetPassword)
		r.Post("/googleAuthURL", authHandler.HandleGoogleAuthURL)
		r.Post("/validateExternalIdentity", authHandler.HandleValidateGoogle)

		r.Post("/getAllPatients", profileHandler.HandleGetAllPatients)
		r.Post("/getAllDoctors", profileHandler.HandleGetAllDoctors)

		// Operations acting on the authenticated account require the
		// caller's session token, forwarded by the gateway.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Post("/getProfile", profileHandler.HandleGetProfile)
			r.Post("/updateProfile", profileHandler.HandleUpdateProfile)
			r.Post("/uploadProfilePhoto", profileHandler.HandleUploadPhoto)
		})
	})

	return nil
}

// Start runs the server until SIGINT/SIGTERM, then shuts down gracefully:
// stop accepting connections, drain in-flight requests, close the
// database.
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
		s.logger.Info("auth service starting",
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

// Skynote is a server-rendered note-taking web application. Users register
// with an email, password, and city; notes are private to their creator;
// and the notes page shows current weather for the user's city, fetched
// fresh on every visit.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/user/skynote-go/auth"
	"github.com/user/skynote-go/config"
	"github.com/user/skynote-go/db"
	"github.com/user/skynote-go/notes"
	"github.com/user/skynote-go/weather"
	"github.com/user/skynote-go/web"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil {
		logger.Warn().Err(err).Msg(".env file not found or unreadable")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	pool, err := db.NewPool(cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create database pool")
	}
	defer pool.Close()

	if err := db.RunMigrations(cfg.Database, "./migrations"); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	credentialStore := auth.NewCredentialStore(pool)
	authService := auth.NewAuthService(credentialStore, logger)
	sessions := auth.NewSessions(cfg.Session)

	noteStore := notes.NewStore(pool)
	noteService := notes.NewService(noteStore, logger)

	weatherClient := weather.NewClient(cfg.Weather, logger)

	renderer, err := web.NewRenderer(logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse templates")
	}
	handlers := web.NewHandlers(authService, noteService, weatherClient, sessions, renderer, logger)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(web.RequestLogger(logger))

	handlers.RegisterRoutes(r)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ZZZSleepy333/whatsapp-clone/internal/api"
	"github.com/ZZZSleepy333/whatsapp-clone/internal/config"
	"github.com/ZZZSleepy333/whatsapp-clone/internal/handlers"
	"github.com/ZZZSleepy333/whatsapp-clone/internal/hub"
	"github.com/ZZZSleepy333/whatsapp-clone/internal/store"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	ctx := context.Background()

	// User directory: PostgreSQL when configured, local SQLite otherwise.
	var users store.DataStore
	if cfg.DatabaseURL != "" {
		pgStore, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connection failed")
		}
		users = pgStore
		logger.Info().Msg("connected to PostgreSQL")
	} else {
		sqliteStore, err := store.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("sqlite open failed")
		}
		users = sqliteStore
		logger.Info().Str("path", cfg.SQLitePath).Msg("using SQLite user directory")
	}
	defer users.Close()

	// Message history: optional, Redis-backed.
	var redisStore *store.RedisStore
	if cfg.RedisURL != "" {
		var err error
		redisStore, err = store.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		defer redisStore.Close()
		logger.Info().Msg("connected to Redis")
	} else {
		logger.Warn().Msg("REDIS_URL not set, message history disabled")
	}

	// Identity verification on the socket endpoint.
	var verifier *hub.TokenVerifier
	if cfg.JWTSecret != "" {
		verifier = hub.NewTokenVerifier(cfg.JWTSecret)
	} else {
		logger.Warn().Msg("JWT_SECRET not set, relay trusts client-announced identities")
	}

	// The relay hub. History and the user directory are optional there.
	hubOpts := hub.Options{
		Logger:   logger,
		Users:    users,
		Verifier: verifier,
	}
	if redisStore != nil {
		hubOpts.History = redisStore
	}
	relay := hub.New(hubOpts)
	go relay.Run()

	uploads, err := handlers.NewUploadHandler(cfg.UploadDir)
	if err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.UploadDir).Msg("upload dir unavailable")
	}

	routerOpts := api.Options{
		Logger:  logger,
		Hub:     relay,
		Users:   users,
		Uploads: uploads,
	}
	if redisStore != nil {
		routerOpts.History = redisStore
		routerOpts.Redis = redisStore.Client()
	}
	router := api.NewRouter(routerOpts)

	// No global read/write timeouts: the socket endpoint holds connections
	// open for the whole session.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Msg("starting chat relay server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	// Stop the hub after the listener: closes every live socket.
	relay.Close()

	logger.Info().Msg("server stopped")
}

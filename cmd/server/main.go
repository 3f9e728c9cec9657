package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/harixx/slack-dm-tracker-web-app/internal/api"
	"github.com/harixx/slack-dm-tracker-web-app/internal/config"
	"github.com/harixx/slack-dm-tracker-web-app/internal/digest"
	"github.com/harixx/slack-dm-tracker-web-app/internal/dmsync"
	"github.com/harixx/slack-dm-tracker-web-app/internal/handlers"
	"github.com/harixx/slack-dm-tracker-web-app/internal/jobs"
	"github.com/harixx/slack-dm-tracker-web-app/internal/slackclient"
	"github.com/harixx/slack-dm-tracker-web-app/internal/store"
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

	logger.Info().
		Str("env", cfg.Env).
		Bool("slack_client_id", cfg.SlackClientID != "").
		Bool("slack_client_secret", cfg.SlackClientSecret != "").
		Bool("database_url", cfg.DatabaseURL != "").
		Bool("redis_url", cfg.RedisURL != "").
		Msg("configuration loaded")

	ctx := context.Background()

	// Pick the storage backend: postgres, sqlite, or in-memory.
	var dataStore store.DataStore
	switch {
	case cfg.DatabaseURL != "":
		pg, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connection failed")
		}
		dataStore = pg
		logger.Info().Msg("connected to PostgreSQL")
	case cfg.SQLitePath != "":
		sq, err := store.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("sqlite open failed")
		}
		dataStore = sq
		logger.Info().Str("path", cfg.SQLitePath).Msg("opened SQLite store")
	default:
		dataStore = store.NewMemoryStore()
		logger.Info().Msg("using in-memory store")
	}
	defer dataStore.Close()

	// Optional Redis (rate limiting only)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		defer redisClient.Close()
		logger.Info().Msg("connected to Redis")
	}

	// Provider client and core services
	slackAPI := slackclient.New(cfg.SlackClientID, cfg.SlackClientSecret, cfg.RedirectURL())
	syncer := dmsync.NewSyncer(slackAPI, dataStore, logger, nil)
	notifier := digest.NewNotifier(slackAPI, dataStore, logger, nil)

	// Batch jobs
	jobCtx, stopJobs := context.WithCancel(ctx)
	runner := jobs.NewRunner(dataStore, syncer, notifier, logger, cfg.SyncInterval, cfg.DigestHour, nil)
	runner.Start(jobCtx)

	// Create router
	h := handlers.NewHandler(dataStore, slackAPI, syncer, notifier, cfg, logger, redisClient)
	router := api.NewRouter(logger, cfg, h, redisClient)

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Str("install_url", cfg.BaseURL+"/auth/install").
			Msg("starting DM tracker server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")
	stopJobs()

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/weave/internal/api"
	"github.com/MikeSquared-Agency/weave/internal/companion"
	"github.com/MikeSquared-Agency/weave/internal/hermes"
	"github.com/MikeSquared-Agency/weave/internal/ratelimit"
	"github.com/MikeSquared-Agency/weave/internal/session"
	"github.com/MikeSquared-Agency/weave/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Weave HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(os.Stdout)
	if err != nil {
		return err
	}

	slog.Info("weave starting", "port", cfg.Port, "llm_provider", cfg.LLMProvider)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Database
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		return fmt.Errorf("DATABASE_URL is required")
	}
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		return err
	}
	defer db.Close()
	slog.Info("database connected")

	gateway, err := newGateway(cfg)
	if err != nil {
		return err
	}

	// Redis backs sessions and, optionally, the rate limiter.
	rdb, err := newRedis(ctx, cfg)
	if err != nil {
		slog.Error("failed to connect to redis", "error", err)
		return err
	}
	defer rdb.Close()
	slog.Info("redis connected")

	window := time.Duration(cfg.RateLimitWindow) * time.Second
	var limiter ratelimit.Limiter
	switch cfg.RateLimitBackend {
	case "redis":
		limiter = ratelimit.NewRedis(rdb, cfg.RateLimitRequests, window)
	default:
		limiter = ratelimit.NewMemory(cfg.RateLimitRequests, window)
	}
	slog.Info("rate limiter ready", "backend", cfg.RateLimitBackend, "requests", cfg.RateLimitRequests, "window", window)

	// NATS is optional; without it events are dropped.
	var events hermes.Emitter = hermes.Discard{}
	if cfg.NatsURL != "" {
		hermesClient, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			return err
		}
		defer hermesClient.Close()
		events = hermesClient
		slog.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		slog.Warn("NATS_URL not set, running without events")
	}

	srv := api.NewServer(cfg.Port, api.Deps{
		Store:      db,
		Extractor:  newExtractor(cfg, gateway),
		Companion:  companion.New(gateway, cfg.ChatModel, slog.Default()),
		Sessions:   session.NewRedisStore(rdb, session.DefaultTTL),
		Limiter:    limiter,
		Events:     events,
		Logger:     slog.Default(),
		CookieName: cfg.SessionCookie,
		Thresholds: api.Thresholds{
			Entity:         cfg.EntityMinConfidence,
			Pattern:        cfg.PatternMinConfidence,
			Recommendation: cfg.RecommendationMinConfidence,
		},
		Health: db,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	slog.Info("weave ready", "port", cfg.Port)

	select {
	case err := <-errCh:
		if err != nil {
			slog.Error("HTTP server error", "error", err)
			return err
		}
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("graceful shutdown failed", "error", err)
	}
	slog.Info("weave stopped")
	return nil
}

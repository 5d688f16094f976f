package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"carematch/internal/admin"
	"carematch/internal/auth"
	"carematch/internal/config"
	"carematch/internal/db"
	"carematch/internal/email"
	"carematch/internal/metrics"
	"carematch/internal/server"
	"carematch/internal/validation"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()
	setupLogging(cfg)

	if ok, msg := validation.ValidateURL(cfg.BaseURL); !ok {
		slog.Error("invalid BASE_URL", "error", msg)
		os.Exit(1)
	}
	if cfg.SessionSecret == "" {
		if !cfg.IsDev() {
			slog.Error("SESSION_SECRET is required outside development")
			os.Exit(1)
		}
		slog.Warn("SESSION_SECRET is empty, cookies are encrypted with a well-known key")
	}

	auth.SetCost(cfg.BcryptCost)

	// Initialize database
	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	// Run migrations
	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("migrations completed successfully")

	metrics.Init(database)

	// Seed profiles, categories and the bootstrap admin
	seed, err := config.LoadYAMLConfig(cfg.ConfigFile)
	if err != nil {
		slog.Error("failed to load config file", "path", cfg.ConfigFile, "error", err)
		os.Exit(1)
	}
	if err := admin.NewManager(database, slog.Default()).Bootstrap(ctx, seed); err != nil {
		slog.Error("failed to seed data", "error", err)
		os.Exit(1)
	}

	notifier := email.NewNotifier(cfg)

	srv := server.New(cfg)
	if err := srv.RegisterRoutes(ctx, database, notifier); err != nil {
		slog.Error("failed to register routes", "error", err)
		os.Exit(1)
	}

	// Graceful shutdown
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	if err := srv.Shutdown(); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	notifier.Wait()
	slog.Info("server exited")
}

// setupLogging installs the default logger: text for development, JSON
// otherwise.
func setupLogging(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}
	var handler slog.Handler
	if cfg.IsDev() {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mcoot/gamepoints/internal/api"
	"github.com/mcoot/gamepoints/internal/config"
	"github.com/mcoot/gamepoints/internal/factory"
	"github.com/mcoot/gamepoints/internal/model"
	redisstorage "github.com/mcoot/gamepoints/internal/storage/redis"
)

const sessionSweepInterval = 10 * time.Minute

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	level, _ := cfg.Log.SlogLevel()

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// Build factory config
	factoryCfg := factory.Config{
		Logger:         logger,
		StorageType:    cfg.Storage.Type,
		Owner:          model.Identity(cfg.Ledger.Owner),
		Credentials:    cfg.CredentialList(),
		EventChannel:   cfg.Events.RedisChannel,
		RuntimeMetrics: true,
	}
	factoryCfg.AuthConfig.SessionDuration = cfg.Auth.SessionDuration

	if cfg.Storage.Type == factory.StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.Storage.Redis.URL
		redisCfg.PoolSize = cfg.Storage.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Storage.Redis.MinIdleConns
		redisCfg.MaxRetries = cfg.Storage.Redis.MaxRetries
		redisCfg.MinRetryBackoff = cfg.Storage.Redis.MinRetryBackoff
		redisCfg.MaxRetryBackoff = cfg.Storage.Redis.MaxRetryBackoff
		factoryCfg.RedisConfig = &redisCfg
	}

	// Create application factory
	app, err := factory.New(context.Background(), factoryCfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = app.Close() }()

	// Create API router
	apiRouter := api.NewRouter(api.RouterConfig{
		Logger:      logger,
		AuthService: app.AuthService,
		Ledger:      app.Ledger,
		Hub:         app.Hub,
		Metrics:     app.Metrics,
	})

	// Combine routers
	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("/metrics", app.Metrics.Handler())

	// Create server
	server := api.NewServer(mux, cfg.Server, logger)
	if err := server.Listen(); err != nil {
		logger.Error("failed to listen", slog.String("error", err.Error()))
		_ = app.Close()
		os.Exit(1)
	}

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	// Expired sessions are otherwise only dropped when presented
	go func() {
		ticker := time.NewTicker(sessionSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				app.AuthService.CleanExpiredSessions()
			case <-ctx.Done():
				return
			}
		}
	}()

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.Storage.Type),
		slog.String("owner", cfg.Ledger.Owner))

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		// Close SSE streams first so Shutdown is not held open by them
		app.Hub.Close()
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}

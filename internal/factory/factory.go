package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/gamepoints/internal/dependencies/clock"
	"github.com/mcoot/gamepoints/internal/dependencies/random"
	"github.com/mcoot/gamepoints/internal/metrics"
	"github.com/mcoot/gamepoints/internal/model"
	"github.com/mcoot/gamepoints/internal/notify"
	"github.com/mcoot/gamepoints/internal/services/auth"
	"github.com/mcoot/gamepoints/internal/services/ledger"
	"github.com/mcoot/gamepoints/internal/sse"
	"github.com/mcoot/gamepoints/internal/storage"
	"github.com/mcoot/gamepoints/internal/storage/memory"
	redisstorage "github.com/mcoot/gamepoints/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Store storage.Store

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Ledger      *ledger.Service
	AuthService *auth.Service

	// Event sinks
	Hub      *sse.Hub
	Metrics  *metrics.Metrics
	Notifier notify.Notifier
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// Owner is the ledger owner recorded at construction (required)
	Owner model.Identity
	// Credentials are identity=secret entries accepted at login
	Credentials []string
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// EventChannel is the Redis pub/sub channel for ledger events.
	// Only used with redis storage; empty disables publishing.
	EventChannel string
	// RuntimeMetrics adds Go runtime and process collectors
	RuntimeMetrics bool
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Store
	var publisher notify.Notifier
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
		if cfg.EventChannel != "" {
			publisher = notify.NewRedis(redisStore.Client(), cfg.EventChannel, logger)
		}
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	// Use default auth config if not provided
	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg = auth.DefaultConfig()
	}
	cfg.AuthConfig = authCfg

	app, err := newWithDependencies(ctx, store, clk, rnd, publisher, cfg, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing).
// extra receives every ledger event alongside the SSE hub and metrics.
func newWithDependencies(ctx context.Context, store storage.Store, clk clock.Clock, rnd random.Random, extra notify.Notifier, cfg Config, logger *slog.Logger) (*App, error) {
	credentials, err := auth.ParseCredentials(cfg.Credentials)
	if err != nil {
		return nil, err
	}

	hub := sse.NewHub(logger)
	m := metrics.New(cfg.RuntimeMetrics)
	notifier := notify.Fanout{hub, m, extra}

	ledgerService := ledger.New(store, clk, notifier, logger)
	if err := ledgerService.EnsureOwner(ctx, cfg.Owner); err != nil {
		return nil, fmt.Errorf("initialise ledger owner: %w", err)
	}

	authService := auth.New(clk, rnd, cfg.AuthConfig, logger)
	for identity, secret := range credentials {
		if err := authService.RegisterCredential(identity, secret); err != nil {
			return nil, fmt.Errorf("register credential for %s: %w", identity, err)
		}
	}

	go hub.Run()

	return &App{
		Store:       store,
		Clock:       clk,
		Random:      rnd,
		Ledger:      ledgerService,
		AuthService: authService,
		Hub:         hub,
		Metrics:     m,
		Notifier:    notifier,
	}, nil
}

// Close stops the event hub and releases the store
func (a *App) Close() error {
	a.Hub.Close()
	return a.Store.Close()
}

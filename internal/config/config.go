// Package config loads server configuration from defaults, an optional YAML
// file and GAMEPOINTS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. GAMEPOINTS_SERVER_PORT
const EnvPrefix = "GAMEPOINTS"

// Storage backends
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

// Config holds all configuration for the server
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Ledger  LedgerConfig  `mapstructure:"ledger"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Events  EventsConfig  `mapstructure:"events"`
	Log     LogConfig     `mapstructure:"log"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StorageConfig selects and configures the storage backend
type StorageConfig struct {
	Type  string      `mapstructure:"type"`
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	URL          string `mapstructure:"url"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
	MaxRetries   int    `mapstructure:"max_retries"`

	MinRetryBackoff time.Duration `mapstructure:"min_retry_backoff"`
	MaxRetryBackoff time.Duration `mapstructure:"max_retry_backoff"`
}

// LedgerConfig holds ledger deployment settings
type LedgerConfig struct {
	Owner string `mapstructure:"owner"`
}

// AuthConfig holds identity settings
type AuthConfig struct {
	// Credentials is a comma separated list of identity=secret pairs
	Credentials     string        `mapstructure:"credentials"`
	SessionDuration time.Duration `mapstructure:"session_duration"`
}

// EventsConfig holds event fan-out settings
type EventsConfig struct {
	// RedisChannel is the pub/sub channel events are published on when
	// storage is redis. Empty disables publishing.
	RedisChannel string `mapstructure:"redis_channel"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("storage.type", StorageMemory)
	v.SetDefault("storage.redis.url", "")
	v.SetDefault("storage.redis.pool_size", 10)
	v.SetDefault("storage.redis.min_idle_conns", 2)
	v.SetDefault("storage.redis.max_retries", 16)
	v.SetDefault("storage.redis.min_retry_backoff", 2*time.Millisecond)
	v.SetDefault("storage.redis.max_retry_backoff", 250*time.Millisecond)

	v.SetDefault("ledger.owner", "")

	v.SetDefault("auth.credentials", "")
	v.SetDefault("auth.session_duration", 24*time.Hour)

	v.SetDefault("events.redis_channel", "gamepoints:events")

	v.SetDefault("log.level", "info")
}

// Load reads configuration. path may be empty, in which case only defaults
// and environment variables are used.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("could not read config file: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}
	// The owner is an identity compared byte for byte by the ledger gate
	c.Ledger.Owner = strings.TrimSpace(c.Ledger.Owner)

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the settings the server cannot start without
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case StorageMemory:
	case StorageRedis:
		if c.Storage.Redis.URL == "" {
			return errors.New("storage.redis.url required when storage.type is redis")
		}
	default:
		return fmt.Errorf("invalid storage.type %q: must be %q or %q", c.Storage.Type, StorageMemory, StorageRedis)
	}

	if strings.TrimSpace(c.Ledger.Owner) == "" {
		return errors.New("ledger.owner is required")
	}
	if c.Ledger.Owner != strings.TrimSpace(c.Ledger.Owner) {
		return fmt.Errorf("ledger.owner %q has surrounding whitespace", c.Ledger.Owner)
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// CredentialList splits Auth.Credentials into identity=secret entries
func (c *Config) CredentialList() []string {
	var out []string
	for _, entry := range strings.Split(c.Auth.Credentials, ",") {
		if entry = strings.TrimSpace(entry); entry != "" {
			out = append(out, entry)
		}
	}
	return out
}

// SlogLevel parses the configured level name
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("invalid log.level %q: %w", l.Level, err)
	}
	return level, nil
}

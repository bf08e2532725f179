package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/gamepoints/internal/model"
)

// DefaultChannel is the Pub/Sub channel events are published on
const DefaultChannel = "gamepoints:events"

// Redis publishes events as JSON on a Redis Pub/Sub channel
type Redis struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

// NewRedis creates a Redis notifier publishing on channel
func NewRedis(client *redis.Client, channel string, logger *slog.Logger) *Redis {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Redis{
		client:  client,
		channel: channel,
		logger:  logger.With(slog.String("component", "redis-notifier")),
	}
}

// Channel returns the channel events are published on
func (r *Redis) Channel() string {
	return r.channel
}

func (r *Redis) Notify(ctx context.Context, event model.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		r.logger.Error("failed to encode event",
			slog.String("type", string(event.Type)),
			slog.Any("error", err))
		return
	}

	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		r.logger.Error("failed to publish event",
			slog.String("type", string(event.Type)),
			slog.String("player", event.Player.String()),
			slog.Any("error", err))
	}
}

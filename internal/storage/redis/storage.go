package redis

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"

	"github.com/mcoot/gamepoints/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface.
// Updates use optimistic WATCH/MULTI/EXEC transactions.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	defaults := DefaultConfig()
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaults.MaxRetries
	}
	if cfg.MinRetryBackoff <= 0 {
		cfg.MinRetryBackoff = defaults.MinRetryBackoff
	}
	if cfg.MaxRetryBackoff < cfg.MinRetryBackoff {
		cfg.MaxRetryBackoff = max(defaults.MaxRetryBackoff, cfg.MinRetryBackoff)
	}
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Client returns the underlying Redis client so other components can share the pool
func (s *Storage) Client() *redis.Client {
	return s.client
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

// redisKey namespaces an opaque ledger key
func (s *Storage) redisKey(key []byte) string {
	return s.cfg.KeyPrefix + string(key)
}

func (s *Storage) View(ctx context.Context, fn storage.TxFunc) error {
	return fn(&tx{ctx: ctx, storage: s, reader: s.client, readOnly: true})
}

// Update runs fn under WATCH on the given keys and on every key fn reads,
// then applies the staged writes in MULTI/EXEC. When EXEC is aborted by a
// concurrent write the whole transaction reruns after a jittered exponential
// backoff, at most MaxRetries times, before failing with storage.ErrConflict.
// Errors from fn itself are never retried.
func (s *Storage) Update(ctx context.Context, watch [][]byte, fn storage.TxFunc) error {
	keys := make([]string, len(watch))
	for i, k := range watch {
		keys[i] = s.redisKey(k)
	}

	txf := func(rtx *redis.Tx) error {
		t := &tx{
			ctx:     ctx,
			storage: s,
			reader:  rtx,
			watcher: rtx,
			watched: make(map[string]bool, len(keys)),
			staged:  make(map[string][]byte),
		}
		for _, key := range keys {
			t.watched[key] = true
		}
		if err := fn(t); err != nil {
			return err
		}
		if len(t.order) == 0 {
			return nil
		}

		// Apply staged writes in order; EXEC fails if a watched key changed
		_, err := rtx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, key := range t.order {
				value := t.staged[key]
				if value == nil {
					pipe.Del(ctx, key)
				} else {
					pipe.Set(ctx, key, value, 0)
				}
			}
			return nil
		})
		return err
	}

	operation := func() error {
		err := s.client.Watch(ctx, txf, keys...)
		if err == nil || errors.Is(err, redis.TxFailedErr) {
			return err
		}
		return backoff.Permanent(err)
	}

	err := backoff.Retry(operation, backoff.WithContext(s.retryPolicy(), ctx))
	if errors.Is(err, redis.TxFailedErr) {
		return storage.ErrConflict
	}
	return err
}

// retryPolicy spreads conflicting writers apart so that contention on a
// shared key, such as the player counter, drains instead of repeating.
func (s *Storage) retryPolicy() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.cfg.MinRetryBackoff
	b.MaxInterval = s.cfg.MaxRetryBackoff
	b.Multiplier = 2.0
	b.RandomizationFactor = 0.5
	b.MaxElapsedTime = 0 // bounded by MaxRetries instead
	return backoff.WithMaxRetries(b, uint64(s.cfg.MaxRetries))
}

// getter is satisfied by both *redis.Client and *redis.Tx
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// watcher adds keys to the WATCH set of an open transaction
type watcher interface {
	Watch(ctx context.Context, keys ...string) *redis.StatusCmd
}

// tx stages writes locally and reads through them to Redis
type tx struct {
	ctx      context.Context
	storage  *Storage
	reader   getter
	watcher  watcher
	watched  map[string]bool
	readOnly bool
	staged   map[string][]byte
	order    []string
}

func (t *tx) Get(key []byte) ([]byte, error) {
	rkey := t.storage.redisKey(key)
	if value, ok := t.staged[rkey]; ok {
		if value == nil {
			return nil, storage.ErrNotFound
		}
		return clone(value), nil
	}

	// Watch before reading so the value cannot change unnoticed before EXEC
	if t.watcher != nil && !t.watched[rkey] {
		if err := t.watcher.Watch(t.ctx, rkey).Err(); err != nil {
			return nil, err
		}
		t.watched[rkey] = true
	}

	data, err := t.reader.Get(t.ctx, rkey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func (t *tx) Set(key, value []byte) error {
	if t.readOnly {
		return storage.ErrReadOnly
	}
	if value == nil {
		value = []byte{}
	}
	t.stage(t.storage.redisKey(key), clone(value))
	return nil
}

func (t *tx) Delete(key []byte) error {
	if t.readOnly {
		return storage.ErrReadOnly
	}
	t.stage(t.storage.redisKey(key), nil)
	return nil
}

func (t *tx) stage(rkey string, value []byte) {
	if _, ok := t.staged[rkey]; !ok {
		t.order = append(t.order, rkey)
	}
	t.staged[rkey] = value
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	latestCacheKey      = "catalog:latest"
	snapshotCachePrefix = "catalog:snapshot:"
)

// DefaultCacheTTL applies when NewCached gets a non-positive ttl.
const DefaultCacheTTL = 5 * time.Minute

// NewRedisClient parses a redis:// URL and checks the server answers.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	slog.Info("connected to redis", "addr", opts.Addr)
	return client, nil
}

// Cached is a cache-aside decorator over another Store. Snapshots are
// immutable, so a cached copy by ID never goes stale; the latest pointer
// is rewritten on every Save. Redis failures are logged and the wrapped
// store answers instead.
type Cached struct {
	next  Store
	redis *redis.Client
	ttl   time.Duration
}

// NewCached wraps next with client.
func NewCached(next Store, client *redis.Client, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cached{next: next, redis: client, ttl: ttl}
}

func (c *Cached) Save(ctx context.Context, snap Snapshot) error {
	if err := c.next.Save(ctx, snap); err != nil {
		return err
	}
	c.put(ctx, latestCacheKey, snap)
	c.put(ctx, snapshotCachePrefix+snap.ID.String(), snap)
	return nil
}

func (c *Cached) Latest(ctx context.Context) (Snapshot, error) {
	if snap, ok := c.get(ctx, latestCacheKey); ok {
		return snap, nil
	}

	snap, err := c.next.Latest(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	// A Save that ran since the read above already cached a newer
	// snapshot; only fill the key when it is still empty.
	c.putIfAbsent(ctx, latestCacheKey, snap)
	return snap, nil
}

func (c *Cached) Get(ctx context.Context, id uuid.UUID) (Snapshot, error) {
	key := snapshotCachePrefix + id.String()
	if snap, ok := c.get(ctx, key); ok {
		return snap, nil
	}

	snap, err := c.next.Get(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	c.put(ctx, key, snap)
	return snap, nil
}

// List is not cached; summaries are small and change on every save.
func (c *Cached) List(ctx context.Context, limit int) ([]Summary, error) {
	return c.next.List(ctx, limit)
}

func (c *Cached) Close() error {
	return errors.Join(c.redis.Close(), c.next.Close())
}

func (c *Cached) get(ctx context.Context, key string) (Snapshot, bool) {
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("cache read failed", "key", key, "error", err)
		}
		return Snapshot{}, false
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		slog.Warn("cached snapshot undecodable", "key", key, "error", err)
		return Snapshot{}, false
	}
	return snap, true
}

func (c *Cached) put(ctx context.Context, key string, snap Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		slog.Warn("failed to marshal snapshot for cache", "key", key, "error", err)
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		slog.Warn("cache write failed", "key", key, "error", err)
	}
}

func (c *Cached) putIfAbsent(ctx context.Context, key string, snap Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		slog.Warn("failed to marshal snapshot for cache", "key", key, "error", err)
		return
	}
	if err := c.redis.SetNX(ctx, key, data, c.ttl).Err(); err != nil {
		slog.Warn("cache write failed", "key", key, "error", err)
	}
}

// Package store persists built catalogs as immutable snapshots.
//
// Every successful refresh or import saves one Snapshot. Readers ask for
// the latest one (what the storefront shows), a specific one by ID, or a
// newest-first list of summaries. Backends: in-process memory, Postgres
// via pgxpool, and an embedded SQLite file. A redis cache can sit in
// front of any of them.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/JonMunkholm/catalog/internal/catalog"
	"github.com/JonMunkholm/catalog/internal/config"
	"github.com/google/uuid"
)

// ErrNotFound is returned when no snapshot matches (or none exist yet).
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is one built catalog and where it came from.
type Snapshot struct {
	ID        uuid.UUID       `json:"id"`
	Source    string          `json:"source"`
	CreatedAt time.Time       `json:"created_at"`
	Catalog   catalog.Catalog `json:"catalog"`
}

// Summary describes a snapshot without its products.
type Summary struct {
	ID        uuid.UUID     `json:"id"`
	Source    string        `json:"source"`
	CreatedAt time.Time     `json:"created_at"`
	Stats     catalog.Stats `json:"stats"`
}

// NewSnapshot stamps cat with a fresh ID and the current time.
func NewSnapshot(source string, cat catalog.Catalog) Snapshot {
	return Snapshot{
		ID:        uuid.New(),
		Source:    source,
		CreatedAt: time.Now().UTC(),
		Catalog:   cat,
	}
}

// Summary returns s without its products.
func (s Snapshot) Summary() Summary {
	return Summary{
		ID:        s.ID,
		Source:    s.Source,
		CreatedAt: s.CreatedAt,
		Stats:     s.Catalog.Stats,
	}
}

// Store saves and loads snapshots. Implementations are safe for
// concurrent use.
type Store interface {
	Save(ctx context.Context, snap Snapshot) error
	// Latest returns the most recently saved snapshot.
	Latest(ctx context.Context) (Snapshot, error)
	Get(ctx context.Context, id uuid.UUID) (Snapshot, error)
	// List returns up to limit summaries, newest first. limit <= 0 means
	// DefaultListLimit.
	List(ctx context.Context, limit int) ([]Summary, error)
	Close() error
}

// DefaultListLimit caps List when the caller does not.
const DefaultListLimit = 50

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 1000 {
		return DefaultListLimit
	}
	return limit
}

// Open builds the store selected by cfg.Store.Driver and wraps it in the
// redis cache when cfg.Cache.URL is set.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	var (
		base Store
		err  error
	)

	switch strings.ToLower(cfg.Store.Driver) {
	case "", "memory":
		base = NewMemory()
	case "postgres":
		base, err = OpenPostgres(ctx, cfg.Store)
	case "sqlite":
		base, err = OpenSQLite(ctx, cfg.Store.URL)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	slog.Info("snapshot store opened", "driver", cfg.Store.Driver)

	if cfg.Cache.URL == "" {
		return base, nil
	}

	client, err := NewRedisClient(ctx, cfg.Cache.URL)
	if err != nil {
		// The cache is optional; run uncached rather than refuse to start.
		slog.Warn("redis unavailable, serving without cache", "error", err)
		return base, nil
	}
	return NewCached(base, client, cfg.Cache.TTL), nil
}

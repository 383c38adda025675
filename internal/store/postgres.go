package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/JonMunkholm/catalog/internal/config"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the subset of pgx used by the store.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS catalog_snapshots (
	seq           BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	id            UUID        NOT NULL UNIQUE,
	source        TEXT        NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL,
	total_rows    INTEGER     NOT NULL,
	valid_rows    INTEGER     NOT NULL,
	product_count INTEGER     NOT NULL,
	catalog       JSONB       NOT NULL
)`

// Postgres stores snapshots in a single table, products as JSONB.
type Postgres struct {
	db   DBTX
	pool *pgxpool.Pool
}

// OpenPostgres connects a pool sized from cfg and ensures the table exists.
func OpenPostgres(ctx context.Context, cfg config.StoreConfig) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}

	p := &Postgres{db: pool, pool: pool}
	if err := p.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

// NewPostgres wraps an existing connection or transaction. Close is a
// no-op; the caller owns db.
func NewPostgres(db DBTX) *Postgres {
	return &Postgres{db: db}
}

// Migrate creates the snapshot table if it does not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("create snapshot table: %w", err)
	}
	return nil
}

func (p *Postgres) Save(ctx context.Context, snap Snapshot) error {
	body, err := json.Marshal(snap.Catalog)
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}

	_, err = p.db.Exec(ctx, `
		INSERT INTO catalog_snapshots
			(id, source, created_at, total_rows, valid_rows, product_count, catalog)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, $7::jsonb)`,
		snap.ID.String(),
		snap.Source,
		snap.CreatedAt,
		snap.Catalog.Stats.TotalRows,
		snap.Catalog.Stats.ValidRows,
		snap.Catalog.Stats.Products,
		string(body),
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (p *Postgres) Latest(ctx context.Context) (Snapshot, error) {
	return p.getOne(ctx, `
		SELECT id::text, source, created_at, catalog::text
		FROM catalog_snapshots
		ORDER BY seq DESC
		LIMIT 1`)
}

func (p *Postgres) Get(ctx context.Context, id uuid.UUID) (Snapshot, error) {
	return p.getOne(ctx, `
		SELECT id::text, source, created_at, catalog::text
		FROM catalog_snapshots
		WHERE id = $1::uuid`, id.String())
}

func (p *Postgres) getOne(ctx context.Context, query string, args ...any) (Snapshot, error) {
	var (
		snap      Snapshot
		id        string
		createdAt time.Time
		body      string
	)

	err := p.db.QueryRow(ctx, query, args...).Scan(&id, &snap.Source, &createdAt, &body)
	if errors.Is(err, pgx.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}

	if snap.ID, err = uuid.Parse(id); err != nil {
		return Snapshot{}, fmt.Errorf("load snapshot: bad id %q: %w", id, err)
	}
	snap.CreatedAt = createdAt.UTC()
	if err := json.Unmarshal([]byte(body), &snap.Catalog); err != nil {
		return Snapshot{}, fmt.Errorf("decode catalog: %w", err)
	}
	return snap, nil
}

func (p *Postgres) List(ctx context.Context, limit int) ([]Summary, error) {
	rows, err := p.db.Query(ctx, `
		SELECT id::text, source, created_at, total_rows, valid_rows, product_count
		FROM catalog_snapshots
		ORDER BY seq DESC
		LIMIT $1`, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var (
			s  Summary
			id string
		)
		if err := rows.Scan(&id, &s.Source, &s.CreatedAt, &s.Stats.TotalRows, &s.Stats.ValidRows, &s.Stats.Products); err != nil {
			return nil, fmt.Errorf("list snapshots: %w", err)
		}
		if s.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("list snapshots: bad id %q: %w", id, err)
		}
		s.CreatedAt = s.CreatedAt.UTC()
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return out, nil
}

func (p *Postgres) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

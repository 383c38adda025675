package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS catalog_snapshots (
	seq           INTEGER PRIMARY KEY AUTOINCREMENT,
	id            TEXT    NOT NULL UNIQUE,
	source        TEXT    NOT NULL,
	created_at    INTEGER NOT NULL,
	total_rows    INTEGER NOT NULL,
	valid_rows    INTEGER NOT NULL,
	product_count INTEGER NOT NULL,
	catalog       TEXT    NOT NULL
)`

// SQLite stores snapshots in an embedded database file. created_at is kept
// as unix nanoseconds.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path. Use
// ":memory:" for a throwaway store.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One writer keeps SQLite from returning SQLITE_BUSY, and makes
	// ":memory:" a single shared database instead of one per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create snapshot table: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Save(ctx context.Context, snap Snapshot) error {
	body, err := json.Marshal(snap.Catalog)
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO catalog_snapshots
			(id, source, created_at, total_rows, valid_rows, product_count, catalog)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		snap.ID.String(),
		snap.Source,
		snap.CreatedAt.UnixNano(),
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

func (s *SQLite) Latest(ctx context.Context) (Snapshot, error) {
	return s.getOne(ctx, `
		SELECT id, source, created_at, catalog
		FROM catalog_snapshots
		ORDER BY seq DESC
		LIMIT 1`)
}

func (s *SQLite) Get(ctx context.Context, id uuid.UUID) (Snapshot, error) {
	return s.getOne(ctx, `
		SELECT id, source, created_at, catalog
		FROM catalog_snapshots
		WHERE id = ?`, id.String())
}

func (s *SQLite) getOne(ctx context.Context, query string, args ...any) (Snapshot, error) {
	var (
		snap    Snapshot
		id      string
		created int64
		body    string
	)

	err := s.db.QueryRowContext(ctx, query, args...).Scan(&id, &snap.Source, &created, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}

	if snap.ID, err = uuid.Parse(id); err != nil {
		return Snapshot{}, fmt.Errorf("load snapshot: bad id %q: %w", id, err)
	}
	snap.CreatedAt = time.Unix(0, created).UTC()
	if err := json.Unmarshal([]byte(body), &snap.Catalog); err != nil {
		return Snapshot{}, fmt.Errorf("decode catalog: %w", err)
	}
	return snap, nil
}

func (s *SQLite) List(ctx context.Context, limit int) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, created_at, total_rows, valid_rows, product_count
		FROM catalog_snapshots
		ORDER BY seq DESC
		LIMIT ?`, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var (
			sum     Summary
			id      string
			created int64
		)
		if err := rows.Scan(&id, &sum.Source, &created, &sum.Stats.TotalRows, &sum.Stats.ValidRows, &sum.Stats.Products); err != nil {
			return nil, fmt.Errorf("list snapshots: %w", err)
		}
		if sum.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("list snapshots: bad id %q: %w", id, err)
		}
		sum.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return out, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/JonMunkholm/catalog/internal/catalog"
	"github.com/JonMunkholm/catalog/internal/config"
	"github.com/JonMunkholm/catalog/internal/logging"
	"github.com/JonMunkholm/catalog/internal/source"
	"github.com/JonMunkholm/catalog/internal/store"
	"github.com/google/uuid"
)

// SourceSheet labels snapshots built from the published sheet.
const SourceSheet = "sheet"

// DefaultTimeout bounds one refresh or import when none is configured.
const DefaultTimeout = 2 * time.Minute

// Fetcher downloads the export rows. *source.Fetcher implements it.
type Fetcher interface {
	Fetch(ctx context.Context) ([][]string, error)
}

// Service runs catalog builds and keeps their snapshots.
type Service struct {
	store   store.Store
	fetcher Fetcher
	limiter *ImportLimiter

	maxFileSize int64
	timeout     time.Duration

	// refreshMu serializes refreshes so the scheduler and a manual
	// refresh never download the sheet twice at once.
	refreshMu sync.Mutex
}

// NewService wires a store and a fetcher with the import settings from cfg.
func NewService(st store.Store, fetcher Fetcher, cfg config.ImportConfig) *Service {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Service{
		store:       st,
		fetcher:     fetcher,
		limiter:     NewImportLimiter(cfg.MaxConcurrent, cfg.MaxWaitTime),
		maxFileSize: cfg.MaxFileSize,
		timeout:     timeout,
	}
}

// Limiter exposes the import limiter for health reporting and shutdown.
func (s *Service) Limiter() *ImportLimiter {
	return s.limiter
}

// Refresh downloads the published sheet, builds the catalog and saves it.
func (s *Service) Refresh(ctx context.Context) (store.Snapshot, error) {
	if s.fetcher == nil {
		return store.Snapshot{}, source.ErrNoURL
	}

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	log := logging.WithFields(ctx, "op", "refresh", "source", SourceSheet)
	start := time.Now()

	rows, err := s.fetcher.Fetch(ctx)
	if err != nil {
		log.Error("sheet fetch failed", "error", err)
		return store.Snapshot{}, err
	}

	return s.buildAndSave(ctx, log, SourceSheet, rows, start)
}

// Import builds and saves a catalog from an uploaded export (CSV or
// .xlsx, detected from name and content).
func (s *Service) Import(ctx context.Context, name string, r io.Reader) (store.Snapshot, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return store.Snapshot{}, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	src := "upload:" + name
	log := logging.WithFields(ctx, "op", "import", "source", src)
	start := time.Now()

	rows, err := source.ReadRows(name, r, s.maxFileSize)
	if err != nil {
		log.Warn("upload unreadable", "error", err)
		return store.Snapshot{}, fmt.Errorf("import %s: %w", name, err)
	}

	return s.buildAndSave(ctx, log, src, rows, start)
}

func (s *Service) buildAndSave(ctx context.Context, log *slog.Logger, src string, rows [][]string, start time.Time) (store.Snapshot, error) {
	cat, err := catalog.Build(rows)
	if err != nil {
		log.Warn("catalog rejected", "error", err)
		return store.Snapshot{}, err
	}

	snap := store.NewSnapshot(src, cat)
	if err := s.store.Save(ctx, snap); err != nil {
		log.Error("snapshot save failed", "snapshot_id", snap.ID, "error", err)
		return store.Snapshot{}, err
	}

	logBuild(ctx, log, cat.Stats,
		"snapshot_id", snap.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return snap, nil
}

// logBuild writes the per-build report.
func logBuild(ctx context.Context, log *slog.Logger, stats catalog.Stats, args ...any) {
	args = append([]any{
		"total_rows", stats.TotalRows,
		"valid_rows", stats.ValidRows,
		"products", stats.Products,
	}, args...)
	if ip := GetIPAddressFromContext(ctx); ip != "" {
		args = append(args, "client_ip", ip)
	}
	log.Info("catalog built", args...)
}

// Latest returns the snapshot currently on display.
func (s *Service) Latest(ctx context.Context) (store.Snapshot, error) {
	return s.store.Latest(ctx)
}

// Snapshot returns one snapshot by ID.
func (s *Service) Snapshot(ctx context.Context, id uuid.UUID) (store.Snapshot, error) {
	return s.store.Get(ctx, id)
}

// History lists recent snapshots, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]store.Summary, error) {
	return s.store.List(ctx, limit)
}

package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/JonMunkholm/catalog/internal/catalog"
	"github.com/JonMunkholm/catalog/internal/logging"
	"github.com/JonMunkholm/catalog/internal/source"
	"github.com/JonMunkholm/catalog/internal/store"
	"github.com/google/uuid"
)

// PreviewResult is a built catalog that was not saved, compared with the
// snapshot currently on display.
type PreviewResult struct {
	Catalog catalog.Catalog `json:"catalog"`

	// BaseID is the snapshot Changes is relative to; nil when nothing has
	// been saved yet, in which case Changes is nil too.
	BaseID  *uuid.UUID      `json:"base_id,omitempty"`
	Changes *CatalogChanges `json:"changes,omitempty"`

	ProcessingTimeMs int64 `json:"processing_time_ms"`
}

// CatalogChanges lists what saving a preview would change.
type CatalogChanges struct {
	Added        []string      `json:"added"`   // product names new in the preview
	Removed      []string      `json:"removed"` // product names no longer present
	StockChanged []StockChange `json:"stock_changed"`
}

// StockChange is a presentation present before and after whose stock moved.
type StockChange struct {
	Name         string `json:"name"`
	Presentation string `json:"presentation"`
	Before       int    `json:"before"`
	After        int    `json:"after"`
}

// Preview builds a catalog from an upload without saving it.
func (s *Service) Preview(ctx context.Context, name string, r io.Reader) (PreviewResult, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return PreviewResult{}, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	log := logging.WithFields(ctx, "op", "preview", "source", "upload:"+name)
	start := time.Now()

	rows, err := source.ReadRows(name, r, s.maxFileSize)
	if err != nil {
		return PreviewResult{}, fmt.Errorf("preview %s: %w", name, err)
	}

	cat, err := catalog.Build(rows)
	if err != nil {
		log.Debug("preview rejected", "error", err)
		return PreviewResult{}, err
	}

	result := PreviewResult{Catalog: cat}

	base, err := s.store.Latest(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return PreviewResult{}, err
	default:
		changes := DiffCatalogs(base.Catalog, cat)
		result.BaseID = &base.ID
		result.Changes = &changes
	}

	result.ProcessingTimeMs = time.Since(start).Milliseconds()
	log.Debug("preview built",
		"products", cat.Stats.Products,
		"duration_ms", result.ProcessingTimeMs,
	)
	return result, nil
}

type presentationKey struct {
	product      catalog.GroupKey
	presentation string
}

// DiffCatalogs compares two catalogs by product identity (name and image,
// as grouping uses). Added and StockChanged follow after's order, Removed
// follows before's.
func DiffCatalogs(before, after catalog.Catalog) CatalogChanges {
	changes := CatalogChanges{
		Added:        []string{},
		Removed:      []string{},
		StockChanged: []StockChange{},
	}

	prevProducts := make(map[catalog.GroupKey]bool, len(before.Products))
	prevStock := make(map[presentationKey]int)
	for _, p := range before.Products {
		key := productKey(p)
		prevProducts[key] = true
		for _, pr := range p.Presentations {
			prevStock[presentationKey{key, pr.Presentation}] = pr.Stock
		}
	}

	seen := make(map[catalog.GroupKey]bool, len(after.Products))
	for _, p := range after.Products {
		key := productKey(p)
		seen[key] = true
		if !prevProducts[key] {
			changes.Added = append(changes.Added, p.Name)
			continue
		}
		for _, pr := range p.Presentations {
			old, ok := prevStock[presentationKey{key, pr.Presentation}]
			if ok && old != pr.Stock {
				changes.StockChanged = append(changes.StockChanged, StockChange{
					Name:         p.Name,
					Presentation: pr.Presentation,
					Before:       old,
					After:        pr.Stock,
				})
			}
		}
	}

	for _, p := range before.Products {
		if !seen[productKey(p)] {
			changes.Removed = append(changes.Removed, p.Name)
		}
	}

	return changes
}

func productKey(p catalog.Product) catalog.GroupKey {
	return catalog.KeyOf(catalog.Draft{Name: p.Name, Image: p.Image})
}
